package font

import (
	"sort"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// bundled maps res keys to the TTF data shipped with the launcher.
var bundled = map[string][]byte{
	"goregular":   goregular.TTF,
	"gobold":      gobold.TTF,
	"goitalic":    goitalic.TTF,
	"gomedium":    gomedium.TTF,
	"gomono":      gomono.TTF,
	"gosmallcaps": gosmallcaps.TTF,
}

// Bundled lists the res keys of the bundled fonts.
func Bundled() []string {
	keys := make([]string, 0, len(bundled))
	for k := range bundled {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
