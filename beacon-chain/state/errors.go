package state

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNilValidatorsInState returns when accessing validators in the state while the state has a
	// nil slice for the validators field.
	ErrNilValidatorsInState = errors.New("state has nil validator slice")
	// ErrNilParentState is returned when a required state is nil.
	ErrNilParentState = errors.New("nil state")
)

// IndexOutOfRangeError represents an error scenario where a list field of the state
// has no element at the given index.
type IndexOutOfRangeError struct {
	field string
	index uint64
	len   int
}

// NewIndexOutOfRangeError creates a new error instance.
func NewIndexOutOfRangeError(field string, index uint64, length int) *IndexOutOfRangeError {
	return &IndexOutOfRangeError{field: field, index: index, len: length}
}

// Error returns the underlying error message.
func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s index %d out of range (length %d)", e.field, e.index, e.len)
}
