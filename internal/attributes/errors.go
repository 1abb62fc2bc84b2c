package attributes

import "errors"

var (
	// ErrUnavailable indicates the attribute could not be supplied: no
	// provider covers the application, the backing service does not know
	// the item, or the property has no value for it.
	ErrUnavailable = errors.New("attribute unavailable")
)
