package where

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/quarry/internal/sqldsl"
)

type bogusOp struct{}

func (bogusOp) Operator() Operator { return "$bogus" }

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		where    Where
		opts     []CompileOption
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "empty",
			where:    Where{},
			wantSQL:  "(1=1)",
			wantArgs: []any{},
		},
		{
			name:     "literal",
			where:    Where{All(Field("name", "ada"))},
			wantSQL:  "(name = ?)",
			wantArgs: []any{"ada"},
		},
		{
			name: "entries and operators",
			where: Where{All(
				Field("name", "ada"),
				Field("age", Ops{Gte{Value: 18}, Lt{Value: 65}}),
			)},
			wantSQL:  "(name = ? AND (age >= ? AND age < ?))",
			wantArgs: []any{"ada", 18, 65},
		},
		{
			name:     "table qualifier",
			where:    Where{All(Field("age", Lte{Value: 3}), Field("author.id", 9))},
			opts:     []CompileOption{WithTable("self")},
			wantSQL:  "(self.age <= ? AND author.id = ?)",
			wantArgs: []any{3, 9},
		},
		{
			name:     "is null",
			where:    Where{All(Field("deleted_at", IsNull{Null: true}))},
			wantSQL:  "(deleted_at IS NULL)",
			wantArgs: nil,
		},
		{
			name:     "is not null",
			where:    Where{All(Field("deleted_at", IsNull{Null: false}))},
			wantSQL:  "(deleted_at IS NOT NULL)",
			wantArgs: nil,
		},
		{
			name:     "in",
			where:    Where{All(Field("id", In{Values: []any{1, 2, 3}}))},
			wantSQL:  "(id IN (?,?,?))",
			wantArgs: []any{1, 2, 3},
		},
		{
			name:     "empty in matches nothing",
			where:    Where{All(Field("id", In{Values: []any{}}))},
			wantSQL:  "((1=0))",
			wantArgs: nil,
		},
		{
			name:     "any",
			where:    Where{All(Field("id", Any{Values: []any{1, 2}}))},
			wantSQL:  "(id = ANY(?))",
			wantArgs: []any{pq.Array([]any{1, 2})},
		},
		{
			name:     "between",
			where:    Where{All(Field("age", Between{Low: 30, High: 10}))},
			wantSQL:  "(age BETWEEN ? AND ?)",
			wantArgs: []any{30, 10},
		},
		{
			name:     "like",
			where:    Where{All(Field("name", Like{Pattern: "a%"}))},
			wantSQL:  "(name LIKE ?)",
			wantArgs: []any{"a%"},
		},
		{
			name:     "ilike",
			where:    Where{All(Field("name", ILike{Pattern: "A%"}))},
			wantSQL:  "(name ILIKE ?)",
			wantArgs: []any{"A%"},
		},
		{
			name:     "gt",
			where:    Where{All(Field("score", Gt{Value: 1.5}))},
			wantSQL:  "(score > ?)",
			wantArgs: []any{1.5},
		},
		{
			name:     "not literal",
			where:    Where{All(Field("status", Not{Value: Literal{V: "archived"}}))},
			wantSQL:  "(NOT (status = ?))",
			wantArgs: []any{"archived"},
		},
		{
			name:     "not nested operator",
			where:    Where{All(Field("id", Not{Value: Ops{In{Values: []any{1, 2}}}}))},
			wantSQL:  "(NOT (id IN (?,?)))",
			wantArgs: []any{1, 2},
		},
		{
			name:     "raw with column token",
			where:    Where{All(Field("age", Raw{SQL: "{{column}} % ? = 0", Args: []any{2}}))},
			opts:     []CompileOption{WithTable("self")},
			wantSQL:  "(self.age % ? = 0)",
			wantArgs: []any{2},
		},
		{
			name:     "raw whole predicate",
			where:    Where{All(Field("age", Raw{SQL: "length(name) > 3"}))},
			wantSQL:  "(length(name) > 3)",
			wantArgs: nil,
		},
		{
			name:     "alternatives",
			where:    Where{All(Field("a", 1)), All(Field("a", 2))},
			wantSQL:  "((a = ?) OR (a = ?))",
			wantArgs: []any{1, 2},
		},
		{
			name:     "nested relation",
			where:    Where{All(Field("author", All(Field("name", "ada"))))},
			opts:     []CompileOption{WithTable("self")},
			wantSQL:  "((author.name = ?))",
			wantArgs: []any{"ada"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(tt.where, tt.opts...)
			require.NoError(t, err)
			sql, args, err := pred.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if len(tt.wantArgs) == 0 {
				assert.Empty(t, args)
			} else if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompile_RelationResolver(t *testing.T) {
	var relations []string
	resolver := func(relation string, pred sq.Sqlizer) (sq.Sqlizer, error) {
		relations = append(relations, relation)
		sql, args, err := pred.ToSql()
		if err != nil {
			return nil, err
		}
		return sq.Expr("EXISTS (SELECT 1 FROM "+relation+" WHERE "+sql+")", args...), nil
	}

	w := Where{All(
		Field("id", 7),
		Field("posts", All(Field("title", Like{Pattern: "go%"}))),
	)}
	pred, err := Compile(w, WithTable("self"), WithRelationResolver(resolver))
	require.NoError(t, err)

	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(self.id = ? AND EXISTS (SELECT 1 FROM posts WHERE (posts.title LIKE ?)))", sql)
	assert.Equal(t, []any{7, "go%"}, args)
	assert.Equal(t, []string{"posts"}, relations)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		where   Where
		wantErr error
	}{
		{"unknown operator", Where{All(Field("f", bogusOp{}))}, ErrUnsupportedOperator},
		{"unknown operator under not", Where{All(Field("f", Not{Value: Ops{bogusOp{}}}))}, ErrUnsupportedOperator},
		{"empty operator list", Where{All(Field("f", Ops{}))}, ErrInvalidCondition},
		{"empty nested", Where{All(Field("f", Condition{}))}, ErrInvalidCondition},
		{"nil value", Where{All(Entry{Field: "f"})}, ErrInvalidCondition},
		{"bad field", Where{All(Field("f OR 1=1", 1))}, sqldsl.ErrInvalidIdentifier},
		{"empty raw", Where{All(Field("f", Raw{}))}, ErrInvalidCondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(tt.where)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, pred)
		})
	}
}

func TestCompile_ParsedUnknownOperatorNeverCompiles(t *testing.T) {
	w, err := Parse([]byte(`{"f": {"$bogus": 1}}`))
	require.ErrorIs(t, err, ErrUnsupportedOperator)
	assert.Nil(t, w)
}
