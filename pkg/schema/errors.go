package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSchema is returned when an entity document or definition is
	// malformed or inconsistent.
	ErrInvalidSchema = errors.New("quarry/schema: invalid schema")

	// ErrUnknownEntity is returned when an entity name is not registered.
	ErrUnknownEntity = errors.New("quarry/schema: unknown entity")

	// ErrUnknownRelation is returned when an entity has no relation by that name.
	ErrUnknownRelation = errors.New("quarry/schema: unknown relation")
)

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}

func unknownRelation(entity, relation string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, entity, relation)
}
