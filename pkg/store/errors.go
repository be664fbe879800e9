package store

import "errors"

// Common errors returned by the store.
var (
	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store closed")

	// ErrEmptyKey is returned when an edit uses a key with an empty name.
	ErrEmptyKey = errors.New("key name cannot be empty")

	// ErrWriteFailed wraps backend failures during an edit. The record is
	// left exactly as it was before the edit.
	ErrWriteFailed = errors.New("store write failed")
)
