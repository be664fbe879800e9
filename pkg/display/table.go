package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/icon"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatFocus implements Formatter.FormatFocus.
func (f *tableFormatter) FormatFocus(w io.Writer, snap focus.Snapshot) error {
	if err := writeHeader(w, "Focus Session", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"State", snap.State.String()},
	}
	if snap.Active {
		rows = append(rows,
			[]string{"Remaining", formatClock(snap.RemainingSec)},
			[]string{"Duration", formatClock(snap.DurationSec)},
		)
		if snap.Type != "" {
			rows = append(rows, []string{"Type", snap.Type})
		}
		if snap.BackgroundSound != "" {
			rows = append(rows, []string{"Sound", snap.BackgroundSound})
		}
		if snap.SessionID != "" {
			rows = append(rows, []string{"Session", snap.SessionID})
		}
	}

	return f.writeTable(w, []string{"Field", "Value"}, rows)
}

// FormatIconStats implements Formatter.FormatIconStats.
func (f *tableFormatter) FormatIconStats(w io.Writer, stats icon.Stats) error {
	if err := writeHeader(w, "Icon Cache", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Entries", formatNumber(int64(stats.Entries))},
		{"Memory", fmt.Sprintf("%s / %s", formatBytes(stats.Bytes), formatBytes(stats.Budget))},
		{"Memory Hits", formatNumber(int64(stats.MemoryHits))},
		{"Disk Hits", formatNumber(int64(stats.DiskHits))},
		{"Misses", formatNumber(int64(stats.Misses))},
		{"Hit Rate", fmt.Sprintf("%.1f%%", hitRate(stats.MemoryHits, stats.DiskHits, stats.Misses))},
		{"Evictions", formatNumber(int64(stats.Evictions))},
		{"Provider Loads", formatNumber(int64(stats.ProviderLoads))},
		{"Disk Write Failures", formatNumber(int64(stats.DiskWriteFailures))},
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatList implements Formatter.FormatList.
func (f *tableFormatter) FormatList(w io.Writer, title string, items []string) error {
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = []string{fmt.Sprintf("%d", i+1), item}
	}

	return f.writeTable(w, []string{"#", "Package"}, rows)
}

// FormatSettings implements Formatter.FormatSettings.
func (f *tableFormatter) FormatSettings(w io.Writer, settings []Setting) error {
	if err := writeHeader(w, "Settings", f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, len(settings))
	for i, s := range settings {
		rows[i] = []string{s.Key, s.Kind, s.Value}
	}

	return f.writeTable(w, []string{"Key", "Kind", "Value"}, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. The last column is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		fmt.Fprintf(&b, "%-*s", widths[i], cell)
	}

	_, err := fmt.Fprintln(w, b.String())
	return err
}
