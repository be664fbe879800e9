// Package display formats launcher state for terminal output.
//
// It supports multiple output formats (table, JSON, simple text) for focus
// sessions, icon cache statistics and settings.
package display

import (
	"io"

	"github.com/0xmhha/launcher-core/pkg/focus"
	"github.com/0xmhha/launcher-core/pkg/icon"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays values in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays values as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays values in simple text format.
	FormatSimple Format = "simple"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatJSON, FormatSimple}

// Setting is one stored key and its rendered value.
type Setting struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Formatter formats and displays launcher state.
type Formatter interface {
	// FormatFocus formats a focus session snapshot.
	FormatFocus(w io.Writer, snap focus.Snapshot) error

	// FormatIconStats formats icon cache statistics.
	FormatIconStats(w io.Writer, stats icon.Stats) error

	// FormatList formats a titled list of names (whitelist, home apps,
	// icon packs). Order is preserved.
	FormatList(w io.Writer, title string, items []string) error

	// FormatSettings formats stored settings.
	FormatSettings(w io.Writer, settings []Setting) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
