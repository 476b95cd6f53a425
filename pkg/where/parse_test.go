package where

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/quarry/internal/sqldsl"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Where
	}{
		{
			name:  "empty document",
			input: "",
			want:  Where{},
		},
		{
			name:  "null document",
			input: "null",
			want:  Where{},
		},
		{
			name:  "empty object",
			input: "{}",
			want:  Where{},
		},
		{
			name:  "literal",
			input: `{"name": "ada"}`,
			want:  Where{All(Field("name", "ada"))},
		},
		{
			name:  "field order preserved",
			input: `{"zeta": 1, "alpha": 2}`,
			want:  Where{All(Field("zeta", 1), Field("alpha", 2))},
		},
		{
			name:  "operators on one field",
			input: `{"age": {"$gte": 18, "$lt": 65}}`,
			want:  Where{All(Field("age", Ops{Gte{Value: 18}, Lt{Value: 65}}))},
		},
		{
			name:  "between keeps order",
			input: `{"age": {"$between": [65, 18]}}`,
			want:  Where{All(Field("age", Between{Low: 65, High: 18}))},
		},
		{
			name:  "in and any",
			input: `{"id": {"$in": [1, 2]}, "tag": {"$any": ["a"]}}`,
			want: Where{All(
				Field("id", In{Values: []any{1, 2}}),
				Field("tag", Any{Values: []any{"a"}}),
			)},
		},
		{
			name:  "empty in",
			input: `{"id": {"$in": []}}`,
			want:  Where{All(Field("id", In{Values: []any{}}))},
		},
		{
			name:  "is null",
			input: `{"deleted_at": {"$isNull": false}}`,
			want:  Where{All(Field("deleted_at", IsNull{Null: false}))},
		},
		{
			name:  "patterns",
			input: `{"name": {"$like": "a%"}, "email": {"$iLike": "%@EXAMPLE.com"}}`,
			want: Where{All(
				Field("name", Like{Pattern: "a%"}),
				Field("email", ILike{Pattern: "%@EXAMPLE.com"}),
			)},
		},
		{
			name:  "not literal",
			input: `{"status": {"$not": "archived"}}`,
			want:  Where{All(Field("status", Not{Value: Literal{V: "archived"}}))},
		},
		{
			name:  "not operator",
			input: `{"id": {"$not": {"$in": [3]}}}`,
			want:  Where{All(Field("id", Not{Value: Ops{In{Values: []any{3}}}}))},
		},
		{
			name:  "raw text",
			input: `{"age": {"$raw": "{{column}} % 2 = 0"}}`,
			want:  Where{All(Field("age", Raw{SQL: "{{column}} % 2 = 0"}))},
		},
		{
			name:  "raw with args",
			input: "age:\n  $raw:\n    sql: \"{{column}} > ?\"\n    args: [21]\n",
			want:  Where{All(Field("age", Raw{SQL: "{{column}} > ?", Args: []any{21}}))},
		},
		{
			name:  "nested condition",
			input: `{"author": {"name": "ada", "active": true}}`,
			want: Where{All(Field("author", All(
				Field("name", "ada"),
				Field("active", true),
			)))},
		},
		{
			name:  "alternatives",
			input: `[{"f": 1}, {"f": 2}]`,
			want:  Where{All(Field("f", 1)), All(Field("f", 2))},
		},
		{
			name:  "null literal",
			input: `{"parent_id": null}`,
			want:  Where{All(Field("parent_id", nil))},
		},
		{
			name:  "yaml alias",
			input: "min: &m 3\nmax: *m\n",
			want:  Where{All(Field("min", 3), Field("max", 3))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unknown operator", `{"f": {"$bogus": 1}}`, ErrUnsupportedOperator},
		{"unknown operator among known", `{"f": {"$eq": 1, "$near": 2}}`, ErrUnsupportedOperator},
		{"top level unknown operator", `{"$or": []}`, ErrUnsupportedOperator},
		{"top level known operator", `{"$eq": 1}`, ErrInvalidCondition},
		{"between arity", `{"f": {"$between": [1]}}`, ErrInvalidCondition},
		{"between not a list", `{"f": {"$between": 1}}`, ErrInvalidCondition},
		{"in not a list", `{"f": {"$in": 1}}`, ErrInvalidCondition},
		{"in nested list", `{"f": {"$in": [[1]]}}`, ErrInvalidCondition},
		{"isNull not bool", `{"f": {"$isNull": "yes"}}`, ErrInvalidCondition},
		{"like not string", `{"f": {"$like": [1]}}`, ErrInvalidCondition},
		{"eq with object", `{"f": {"$eq": {"a": 1}}}`, ErrInvalidCondition},
		{"raw empty", `{"f": {"$raw": ""}}`, ErrInvalidCondition},
		{"mixed keys", `{"f": {"$eq": 1, "g": 2}}`, ErrInvalidCondition},
		{"unknown operator mixed with field", `{"f": {"$bogus": 1, "g": 2}}`, ErrUnsupportedOperator},
		{"field mixed with unknown operator", `{"f": {"g": 2, "$bogus": 1}}`, ErrUnsupportedOperator},
		{"empty nested", `{"f": {}}`, ErrInvalidCondition},
		{"list literal", `{"f": [1, 2]}`, ErrInvalidCondition},
		{"duplicate field", `{"f": 1, "f": 2}`, ErrInvalidCondition},
		{"duplicate operator", `{"f": {"$eq": 1, "$eq": 2}}`, ErrInvalidCondition},
		{"scalar document", `42`, ErrInvalidCondition},
		{"list of scalars", `[1]`, ErrInvalidCondition},
		{"malformed", `{"f": `, ErrInvalidCondition},
		{"bad field", `{"f; drop table x": 1}`, sqldsl.ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, w)
		})
	}
}

func TestFromValue(t *testing.T) {
	got, err := FromValue(map[string]any{
		"status": "active",
		"age":    map[string]any{"$between": []any{18, 65}},
	})
	require.NoError(t, err)

	want := Where{All(
		Field("age", Between{Low: 18, High: 65}),
		Field("status", "active"),
	)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromValue() mismatch (-want +got):\n%s", diff)
	}

	got, err = FromValue([]any{map[string]any{"id": 1}, map[string]any{"id": 2}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = FromValue(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = FromValue(map[string]any{"id": map[string]any{"$nope": 1}})
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
}

func TestParseOperator(t *testing.T) {
	for _, op := range Vocabulary() {
		got, err := ParseOperator(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	assert.Len(t, Vocabulary(), 13)

	_, err := ParseOperator("$bogus")
	assert.ErrorIs(t, err, ErrUnsupportedOperator)
	_, err = ParseOperator("eq")
	assert.ErrorIs(t, err, ErrUnsupportedOperator)

	assert.Equal(t, ShapePair, OpBetween.Shape())
	assert.Equal(t, ShapeList, OpIn.Shape())
	assert.Equal(t, ShapeBool, OpIsNull.Shape())
	assert.Equal(t, ShapeValue, OpNot.Shape())
	assert.Equal(t, "pair", ShapePair.String())
}

func TestWhere_Relations(t *testing.T) {
	w := Where{
		All(Field("author", All(Field("name", "ada"))), Field("id", 1)),
		All(Field("tags", All(Field("name", "go"))), Field("author", All(Field("id", 2)))),
	}
	assert.Equal(t, []string{"author", "tags"}, w.Relations())
	assert.Empty(t, Where{All(Field("id", 1))}.Relations())
}
