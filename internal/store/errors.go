package store

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable matches every failure of the underlying backend,
// including quota exhaustion on write.
var ErrStorageUnavailable = errors.New("record storage unavailable")

// StorageError reports which slot operation failed.
type StorageError struct {
	Op   string // "read" or "write"
	Slot string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Slot, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStorageUnavailable) true for any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}
