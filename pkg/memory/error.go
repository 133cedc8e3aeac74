package memory

import "errors"

var (
	// ErrNotFound is returned when a memory does not exist in the store.
	ErrNotFound = errors.New("memory not found")

	// ErrStorage is returned when the storage engine fails to read or write.
	ErrStorage = errors.New("storage failed")
)
