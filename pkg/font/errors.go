package font

import "errors"

// Common errors returned by the font package.
var (
	// ErrInvalidSelection is returned for an unknown type or malformed value.
	ErrInvalidSelection = errors.New("invalid font selection")

	// ErrFontNotFound is returned when the selected font cannot be located.
	ErrFontNotFound = errors.New("font not found")

	// ErrParseFont is returned when a font file is not a valid OpenType font.
	ErrParseFont = errors.New("failed to parse font")

	// ErrInvalidSize is returned when a font size is out of range.
	ErrInvalidSize = errors.New("invalid font size")

	// ErrManagerClosed is returned by operations on a closed manager.
	ErrManagerClosed = errors.New("font manager is closed")
)
