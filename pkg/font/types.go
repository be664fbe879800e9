// Package font loads, caches and persists the launcher's custom font.
//
// A selection names a font in one of three places:
//
//	res  a font bundled with the launcher ("goregular", "gomono", ...)
//	uri  a font file on disk
//	pkg  "<package>:<name>", a font shipped by another package and found
//	     at <FontsDir>/<package>/<name>.ttf (or .otf)
//
// The active selection is persisted in the settings store and restored
// with Reapply on startup.
package font

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Type identifies where a font comes from.
type Type string

// Selection types.
const (
	TypeRes Type = "res"
	TypeURI Type = "uri"
	TypePkg Type = "pkg"
)

// Font sizes accepted by SetSize, in points.
const (
	MinSize = 8
	MaxSize = 48
)

// DefaultCacheSize is the number of parsed fonts kept in memory.
const DefaultCacheSize = 8

// Selection identifies a font.
type Selection struct {
	Type  Type   `json:"type"`
	Value string `json:"value"`
}

// String returns "type:value".
func (s Selection) String() string {
	return string(s.Type) + ":" + s.Value
}

// Validate checks that the selection is well formed.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.Value) == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidSelection)
	}

	switch s.Type {
	case TypeRes, TypeURI:
		return nil
	case TypePkg:
		_, _, err := s.packageFont()
		return err
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidSelection, s.Type)
	}
}

// packageFont splits a pkg value into package and font name.
func (s Selection) packageFont() (pkg, name string, err error) {
	pkg, name, ok := strings.Cut(s.Value, ":")
	if !ok || !validName(pkg) || !validName(name) {
		return "", "", fmt.Errorf("%w: want <package>:<font>, got %q", ErrInvalidSelection, s.Value)
	}
	return pkg, name, nil
}

// Font is a parsed font and the selection it was loaded from.
type Font struct {
	Selection Selection
	Name      string
	Face      *opentype.Font
}

// Config contains font manager configuration.
type Config struct {
	// FontsDir holds fonts shipped by other packages.
	FontsDir string

	// CacheSize bounds the parsed fonts kept in memory.
	// Default: DefaultCacheSize.
	CacheSize int
}

func fontName(f *opentype.Font) string {
	for _, id := range []sfnt.NameID{sfnt.NameIDFull, sfnt.NameIDFamily} {
		if name, err := f.Name(nil, id); err == nil && name != "" {
			return name
		}
	}
	return ""
}

func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
