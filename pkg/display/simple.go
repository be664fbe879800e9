package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/icon"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatFocus implements Formatter.FormatFocus.
func (f *simpleFormatter) FormatFocus(w io.Writer, snap focus.Snapshot) error {
	if !snap.Active {
		_, err := fmt.Fprintf(w, "%s\n", snap.State)
		return err
	}

	_, err := fmt.Fprintf(w, "%s %s / %s", snap.State, formatClock(snap.RemainingSec), formatClock(snap.DurationSec))
	if err != nil {
		return err
	}
	if snap.Type != "" {
		if _, err := fmt.Fprintf(w, " (%s)", snap.Type); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}

// FormatIconStats implements Formatter.FormatIconStats.
func (f *simpleFormatter) FormatIconStats(w io.Writer, stats icon.Stats) error {
	_, err := fmt.Fprintf(w, "Entries: %d | Memory: %s/%s | Hits: %d+%d | Misses: %d | Evictions: %d\n",
		stats.Entries,
		formatBytes(stats.Bytes),
		formatBytes(stats.Budget),
		stats.MemoryHits,
		stats.DiskHits,
		stats.Misses,
		stats.Evictions)
	return err
}

// FormatList implements Formatter.FormatList.
func (f *simpleFormatter) FormatList(w io.Writer, title string, items []string) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", title, strings.Join(items, ", "))
	return err
}

// FormatSettings implements Formatter.FormatSettings.
func (f *simpleFormatter) FormatSettings(w io.Writer, settings []Setting) error {
	for _, s := range settings {
		if _, err := fmt.Fprintf(w, "%s=%s\n", s.Key, s.Value); err != nil {
			return err
		}
	}
	return nil
}
