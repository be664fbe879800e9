package icon

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	hex := regexp.MustCompile(`^[0-9a-f]{16}$`)

	k := CacheKey("", "com.example", 64)
	assert.Regexp(t, hex, k)
	assert.Equal(t, k, CacheKey("", "com.example", 64), "keys are stable")
	assert.Equal(t, k, CacheKey(SystemPack, "com.example", 64), "no pack is the system tier")

	assert.NotEqual(t, k, CacheKey("", "com.example", 128))
	assert.NotEqual(t, k, CacheKey("pack", "com.example", 64))
	assert.NotEqual(t, k, CacheKey("", "com.other", 64))
}

func TestBudgetFor(t *testing.T) {
	tests := []struct {
		name  string
		limit int64
		want  int64
	}{
		{name: "no limit", limit: 1<<63 - 1, want: 32 << 20},
		{name: "one GiB", limit: 1 << 30, want: 128 << 20},
		{name: "small limit clamps", limit: 8 << 20, want: MinMemoryBudget},
		{name: "zero", limit: 0, want: 32 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, budgetFor(tt.limit))
		})
	}
}

func TestDefaultMemoryBudget(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultMemoryBudget(), MinMemoryBudget)
}
