package bio

import "errors"

var (
	// ErrStorage is returned when the storage engine fails to read or write.
	ErrStorage = errors.New("storage failed")

	// ErrUnknownField is returned when Patch is given an unrecognized
	// field name. This is a caller error, never silently ignored.
	ErrUnknownField = errors.New("unknown biography field")

	// ErrInvalidValue is returned when a patch value does not match the
	// field's type (string for scalars, []string for lists).
	ErrInvalidValue = errors.New("invalid value for biography field")
)
