package prefs

import "errors"

// Common errors returned by the prefs facade.
var (
	// ErrEmptyPackage is returned when a package name is empty.
	ErrEmptyPackage = errors.New("package name cannot be empty")

	// ErrHomeAppsFull is returned when the home screen already holds
	// MaxHomeApps apps.
	ErrHomeAppsFull = errors.New("home screen is full")
)
