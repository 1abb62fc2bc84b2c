package mediaserver

import "errors"

var (
	// ErrNotFound indicates the collection or item doesn't exist on the
	// server. Only returned when the lookup itself succeeded.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates the media server could not be reached or
	// timed out.
	ErrUnavailable = errors.New("media server unavailable")

	// ErrSmartCollection indicates the mirror is a smart/dynamic collection
	// the engine cannot manage; it is treated as "no usable mirror".
	ErrSmartCollection = errors.New("smart collection cannot be mirrored")
)
