package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/icon"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// FormatFocus implements Formatter.FormatFocus.
func (f *jsonFormatter) FormatFocus(w io.Writer, snap focus.Snapshot) error {
	return f.encode(w, snap)
}

// FormatIconStats implements Formatter.FormatIconStats.
func (f *jsonFormatter) FormatIconStats(w io.Writer, stats icon.Stats) error {
	return f.encode(w, stats)
}

// FormatList implements Formatter.FormatList. A nil list encodes as [].
func (f *jsonFormatter) FormatList(w io.Writer, _ string, items []string) error {
	if items == nil {
		items = []string{}
	}
	return f.encode(w, items)
}

// FormatSettings implements Formatter.FormatSettings.
func (f *jsonFormatter) FormatSettings(w io.Writer, settings []Setting) error {
	if settings == nil {
		settings = []Setting{}
	}
	return f.encode(w, settings)
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(v)
}
