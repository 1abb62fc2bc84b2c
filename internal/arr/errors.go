package arr

import "errors"

var (
	// ErrUnavailable indicates the acquisition manager could not be reached
	// or timed out. Callers treat this as a recoverable per-item failure.
	ErrUnavailable = errors.New("acquisition manager unavailable")

	// ErrNotFound indicates the record doesn't exist on the manager side.
	ErrNotFound = errors.New("record not found")
)
