package placeholder

import "errors"

var (
	// ErrParameterCountMismatch is returned when the number of positional
	// markers differs from the number of supplied parameters.
	ErrParameterCountMismatch = errors.New("quarry: parameter count mismatch")

	// ErrUnknownParameter is returned when a named placeholder has no binding.
	ErrUnknownParameter = errors.New("quarry: unknown named parameter")

	// ErrEmptyListBinding is returned when an expand-list placeholder is bound
	// to an empty list, which has no valid SQL rendering.
	ErrEmptyListBinding = errors.New("quarry: empty list binding")
)
