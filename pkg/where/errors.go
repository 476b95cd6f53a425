package where

import "errors"

var (
	// ErrUnsupportedOperator is returned when an operator-shaped key is not
	// part of the vocabulary, or when an operator cannot be expressed in the
	// requested output form. Unknown operators are never ignored.
	ErrUnsupportedOperator = errors.New("quarry: unsupported operator")

	// ErrInvalidCondition is returned when a condition document is malformed:
	// wrong argument shape, mixed operator and field keys, duplicate fields.
	ErrInvalidCondition = errors.New("quarry: invalid condition")
)
