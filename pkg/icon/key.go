package icon

import (
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SystemPack names the tier of icons resolved without an icon pack.
const SystemPack = "system"

const (
	// MinMemoryBudget is the smallest memory tier the cache will use.
	MinMemoryBudget int64 = 4 << 20

	// fallbackMemoryBudget applies when the runtime has no memory limit.
	fallbackMemoryBudget int64 = 32 << 20
)

// CacheKey returns the hex-encoded xxhash64 of (pack|pkg|size). An empty
// pack hashes as SystemPack, so a pack whose id is "system" shares keys
// with the system icons.
func CacheKey(pack, pkg string, sizePx int) string {
	if pack == "" {
		pack = SystemPack
	}

	d := xxhash.New()
	_, _ = d.WriteString(pack)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(pkg)
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.Itoa(sizePx))

	return fmt.Sprintf("%016x", d.Sum64())
}

// DefaultMemoryBudget returns one eighth of the Go runtime memory limit
// (GOMEMLIMIT) when one is set, otherwise 32 MiB. The result is never
// below MinMemoryBudget.
func DefaultMemoryBudget() int64 {
	return budgetFor(debug.SetMemoryLimit(-1))
}

func budgetFor(limit int64) int64 {
	budget := fallbackMemoryBudget
	// math.MaxInt64 means no limit was configured.
	if limit > 0 && limit < 1<<62 {
		budget = limit / 8
	}
	return max(budget, MinMemoryBudget)
}

// bitmapBytes is the decoded size of a square NRGBA icon.
func bitmapBytes(w, h int) int64 {
	return 4 * int64(w) * int64(h)
}
