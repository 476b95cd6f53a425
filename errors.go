package quarry

import (
	"errors"
	"fmt"

	"github.com/pthm/quarry/internal/sqldsl"
	"github.com/pthm/quarry/pkg/placeholder"
	"github.com/pthm/quarry/pkg/query"
	"github.com/pthm/quarry/pkg/schema"
	"github.com/pthm/quarry/pkg/where"
)

// Sentinel errors. Compile and composition failures are reported before any
// statement reaches the database. Use the Is*Err helpers to test for them.
var (
	// ErrUnsupportedOperator is returned for an operator outside the
	// vocabulary, or one the requested output cannot express.
	ErrUnsupportedOperator = where.ErrUnsupportedOperator

	// ErrInvalidCondition is returned for a malformed condition document.
	ErrInvalidCondition = where.ErrInvalidCondition

	// ErrParameterCountMismatch is returned when markers and parameters differ in number.
	ErrParameterCountMismatch = placeholder.ErrParameterCountMismatch

	// ErrUnknownParameter is returned when a named placeholder has no binding.
	ErrUnknownParameter = placeholder.ErrUnknownParameter

	// ErrEmptyListBinding is returned when a list placeholder is bound to an empty list.
	ErrEmptyListBinding = placeholder.ErrEmptyListBinding

	// ErrMissingJoinKey is returned when relations are requested without a join key.
	ErrMissingJoinKey = query.ErrMissingJoinKey

	// ErrInvalidOrder is returned for a bad sort direction or column.
	ErrInvalidOrder = query.ErrInvalidOrder

	// ErrUnknownEntity is returned for an entity missing from the registry.
	ErrUnknownEntity = schema.ErrUnknownEntity

	// ErrUnknownRelation is returned for a relation the entity does not define.
	ErrUnknownRelation = schema.ErrUnknownRelation

	// ErrInvalidSchema is returned when entity metadata is inconsistent.
	ErrInvalidSchema = schema.ErrInvalidSchema

	// ErrInvalidIdentifier is returned when a name cannot be safely placed in SQL.
	ErrInvalidIdentifier = sqldsl.ErrInvalidIdentifier

	// ErrConnectionNotReady is the parent of ErrNotInitialized and
	// ErrNotConnected. Callers may retry once options are set or Connect
	// has succeeded.
	ErrConnectionNotReady = errors.New("quarry: connection not ready")

	// ErrNotInitialized is returned before SetOptions has been called.
	ErrNotInitialized = fmt.Errorf("%w: options not set", ErrConnectionNotReady)

	// ErrNotConnected is returned before Connect or after Disconnect.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrConnectionNotReady)

	// ErrMissingTable is returned when a statement references a table the
	// database does not have. Check the schema file against the database.
	ErrMissingTable = errors.New("quarry: table not found")
)

// IsUnsupportedOperatorErr returns true if err is or wraps ErrUnsupportedOperator.
func IsUnsupportedOperatorErr(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsParameterCountMismatchErr returns true if err is or wraps ErrParameterCountMismatch.
func IsParameterCountMismatchErr(err error) bool {
	return errors.Is(err, ErrParameterCountMismatch)
}

// IsMissingJoinKeyErr returns true if err is or wraps ErrMissingJoinKey.
func IsMissingJoinKeyErr(err error) bool {
	return errors.Is(err, ErrMissingJoinKey)
}

// IsConnectionNotReadyErr returns true if err is or wraps ErrConnectionNotReady,
// including ErrNotInitialized and ErrNotConnected.
func IsConnectionNotReadyErr(err error) bool {
	return errors.Is(err, ErrConnectionNotReady)
}

// IsNotConnectedErr returns true if err is or wraps ErrNotConnected.
func IsNotConnectedErr(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsNotInitializedErr returns true if err is or wraps ErrNotInitialized.
func IsNotInitializedErr(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsMissingTableErr returns true if err is or wraps ErrMissingTable.
func IsMissingTableErr(err error) bool {
	return errors.Is(err, ErrMissingTable)
}

// Error records the component and operation that failed.
type Error struct {
	Component string
	Op        string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("quarry %s: %s: %v", e.Component, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PostgreSQL error codes for error mapping.
const (
	pgUndefinedTable = "42P01" // undefined_table
)

// IsInvalidSchemaErr returns true if err is or wraps ErrInvalidSchema.
func IsInvalidSchemaErr(err error) bool {
	return errors.Is(err, ErrInvalidSchema)
}
