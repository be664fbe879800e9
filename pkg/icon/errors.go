package icon

import "errors"

// Common errors returned by the icon package.
var (
	// ErrNotFound is returned when no strategy in the fallback chain
	// produced an icon.
	ErrNotFound = errors.New("icon not found")

	// ErrNotInPack is returned when an icon pack has no mapping for a package.
	ErrNotInPack = errors.New("package not mapped by icon pack")

	// ErrPackNotFound is returned when an icon pack is not installed.
	ErrPackNotFound = errors.New("icon pack not found")

	// ErrInvalidName is returned for package, pack or drawable names that
	// cannot be used as a single path element.
	ErrInvalidName = errors.New("invalid icon name")

	// ErrInvalidSize is returned when a render size is not positive.
	ErrInvalidSize = errors.New("invalid icon size: must be > 0")

	// ErrRenderFailed is returned when a source could not be drawn.
	ErrRenderFailed = errors.New("icon render failed")

	// ErrNoProvider is returned when a cache is created without a provider.
	ErrNoProvider = errors.New("icon provider is required")

	// ErrCacheClosed is returned by operations on a closed cache.
	ErrCacheClosed = errors.New("icon cache is closed")
)
