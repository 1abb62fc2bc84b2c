package rules

import "errors"

var (
	// ErrUnknownAttribute indicates an identifier or (application, property)
	// pair that is not registered in the catalog.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrIncompatibleMediaType indicates a rule document whose declared media
	// type does not match the importing context.
	ErrIncompatibleMediaType = errors.New("incompatible media type")
)
