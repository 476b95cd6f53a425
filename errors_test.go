package quarry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm/quarry"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		target error
		is     func(error) bool
	}{
		{"IsUnsupportedOperatorErr", quarry.ErrUnsupportedOperator, quarry.IsUnsupportedOperatorErr},
		{"IsParameterCountMismatchErr", quarry.ErrParameterCountMismatch, quarry.IsParameterCountMismatchErr},
		{"IsMissingJoinKeyErr", quarry.ErrMissingJoinKey, quarry.IsMissingJoinKeyErr},
		{"IsNotConnectedErr", quarry.ErrNotConnected, quarry.IsNotConnectedErr},
		{"IsNotInitializedErr", quarry.ErrNotInitialized, quarry.IsNotInitializedErr},
		{"IsMissingTableErr", quarry.ErrMissingTable, quarry.IsMissingTableErr},
		{"IsInvalidSchemaErr", quarry.ErrInvalidSchema, quarry.IsInvalidSchemaErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.target)))
			assert.False(t, tt.is(errors.New("other error")))
		})
	}
}

func TestConnectionNotReadyHierarchy(t *testing.T) {
	assert.True(t, quarry.IsConnectionNotReadyErr(quarry.ErrNotConnected))
	assert.True(t, quarry.IsConnectionNotReadyErr(quarry.ErrNotInitialized))
	assert.False(t, quarry.IsNotConnectedErr(quarry.ErrNotInitialized))
	assert.False(t, quarry.IsConnectionNotReadyErr(quarry.ErrMissingTable))
}

func TestErrorUnwrap(t *testing.T) {
	err := &quarry.Error{Component: "main", Op: "find", Err: quarry.ErrMissingTable}
	assert.Equal(t, "quarry main: find: quarry: table not found", err.Error())
	assert.True(t, quarry.IsMissingTableErr(err))

	var qerr *quarry.Error
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &qerr))
	assert.Equal(t, "find", qerr.Op)
}

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{
		quarry.ErrUnsupportedOperator,
		quarry.ErrInvalidCondition,
		quarry.ErrParameterCountMismatch,
		quarry.ErrUnknownParameter,
		quarry.ErrEmptyListBinding,
		quarry.ErrMissingJoinKey,
		quarry.ErrInvalidOrder,
		quarry.ErrUnknownEntity,
		quarry.ErrUnknownRelation,
		quarry.ErrInvalidSchema,
		quarry.ErrInvalidIdentifier,
		quarry.ErrConnectionNotReady,
		quarry.ErrMissingTable,
	} {
		t.Run(err.Error(), func(t *testing.T) {
			assert.Contains(t, err.Error(), "quarry")
		})
	}
}
