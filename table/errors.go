package table

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a Get misses.
	ErrNotFound = errors.New("lattice: item not found")

	// ErrAlreadyExists is returned when a guarded Put finds an item under
	// the same key.
	ErrAlreadyExists = errors.New("lattice: item already exists")

	// ErrConditionFailed is returned when a caller-supplied condition
	// expression rejects a write.
	ErrConditionFailed = errors.New("lattice: condition failed")

	// ErrNoKeyCondition is returned by Query when no key condition
	// expression is supplied.
	ErrNoKeyCondition = errors.New("lattice: query requires a key condition")
)

// ValidationError carries every validation failure collected for one
// operation. The schema layer never short-circuits, so Messages holds all
// independent failures, not just the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "lattice: validation failed: " + strings.Join(e.Messages, "; ")
}

// AsValidation unwraps err into a *ValidationError, or nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
