package query

import "errors"

var (
	// ErrMissingJoinKey is returned when relations are requested without the
	// join key that ties the page subquery to the outer query.
	ErrMissingJoinKey = errors.New("quarry: relations require an inner join key")

	// ErrInvalidOrder is returned for an unknown sort direction or a sort
	// column that the page subquery cannot see.
	ErrInvalidOrder = errors.New("quarry: invalid order")

	// ErrUnknownDialect is returned when no dialect matches a driver name.
	ErrUnknownDialect = errors.New("quarry: unknown dialect")
)
