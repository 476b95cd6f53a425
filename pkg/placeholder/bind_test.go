package placeholder

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		positional []any
		named      map[string]any
		format     sq.PlaceholderFormat
		wantSQL    string
		wantArgs   []any
	}{
		{
			name:       "question format",
			sql:        "SELECT * FROM t WHERE a = ? AND b = :value0",
			positional: []any{1},
			named:      map[string]any{"value0": "x"},
			format:     sq.Question,
			wantSQL:    "SELECT * FROM t WHERE a = ? AND b = ?",
			wantArgs:   []any{1, "x"},
		},
		{
			name:     "dollar format expands lists",
			sql:      "id IN (:...value0) AND age > :value1",
			named:    map[string]any{"value0": []int{4, 5, 6}, "value1": 18},
			format:   sq.Dollar,
			wantSQL:  "id IN ($1,$2,$3) AND age > $4",
			wantArgs: []any{4, 5, 6, 18},
		},
		{
			name:       "positional and named interleave in text order",
			sql:        "a = :value0 AND b = ? AND c = :value0",
			positional: []any{2},
			named:      map[string]any{"value0": 1},
			format:     sq.Dollar,
			wantSQL:    "a = $1 AND b = $2 AND c = $3",
			wantArgs:   []any{1, 2, 1},
		},
		{
			name:     "casts and quoted text untouched",
			sql:      `SELECT created_at::date, ':value9', 'who?' FROM t WHERE id = :id`,
			named:    map[string]any{"id": 3},
			format:   sq.Dollar,
			wantSQL:  `SELECT created_at::date, ':value9', 'who?' FROM t WHERE id = $1`,
			wantArgs: []any{3},
		},
		{
			name:     "escaped question mark with dollar",
			sql:      "data ?? 'k' AND id = :value0",
			named:    map[string]any{"value0": 7},
			format:   sq.Dollar,
			wantSQL:  "data ? 'k' AND id = $1",
			wantArgs: []any{7},
		},
		{
			name:     "escaped question mark with question",
			sql:      "data ?? 'k'",
			format:   sq.Question,
			wantSQL:  "data ? 'k'",
			wantArgs: []any{},
		},
		{
			name:     "nil format defaults to question",
			sql:      "a = :x",
			named:    map[string]any{"x": true},
			wantSQL:  "a = ?",
			wantArgs: []any{true},
		},
		{
			name:       "positional list expands",
			sql:        "id IN (?) AND name = ?",
			positional: []any{[]int64{1, 2}, "x"},
			format:     sq.Dollar,
			wantSQL:    "id IN ($1,$2) AND name = $3",
			wantArgs:   []any{int64(1), int64(2), "x"},
		},
		{
			name:       "positional bytes stay scalar",
			sql:        "hash = ?",
			positional: []any{[]byte("ab")},
			format:     sq.Question,
			wantSQL:    "hash = ?",
			wantArgs:   []any{[]byte("ab")},
		},
		{
			name:     "scalar under list placeholder",
			sql:      "id IN (:...ids)",
			named:    map[string]any{"ids": 9},
			format:   sq.Question,
			wantSQL:  "id IN (?)",
			wantArgs: []any{9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := Bind(tt.sql, tt.positional, tt.named, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBind_Errors(t *testing.T) {
	tests := []struct {
		name       string
		sql        string
		positional []any
		named      map[string]any
		wantErr    error
	}{
		{"unknown name", "a = :missing", nil, nil, ErrUnknownParameter},
		{"unknown list name", "a IN (:...missing)", nil, nil, ErrUnknownParameter},
		{"empty list", "a IN (:...ids)", nil, map[string]any{"ids": []int{}}, ErrEmptyListBinding},
		{"empty positional list", "a IN (?)", []any{[]int{}}, nil, ErrEmptyListBinding},
		{"missing positional", "a = ? AND b = ?", []any{1}, nil, ErrParameterCountMismatch},
		{"extra positional", "a = ?", []any{1, 2}, nil, ErrParameterCountMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Bind(tt.sql, tt.positional, tt.named, sq.Dollar)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRewriteThenBind(t *testing.T) {
	named, err := Rewrite("SELECT self.id FROM users AS self WHERE (self.id in (?)) LIMIT 2", []any{[]any{1, 2, 3}})
	require.NoError(t, err)

	sql, args, err := Bind(named.SQL, nil, named.Parameters, sq.Dollar)
	require.NoError(t, err)
	assert.Equal(t, "SELECT self.id FROM users AS self WHERE (self.id in ($1,$2,$3)) LIMIT 2", sql)
	assert.Equal(t, []any{1, 2, 3}, args)
}

func TestBind_ListSameBeforeAndAfterRewrite(t *testing.T) {
	const sql = "SELECT id FROM users WHERE id IN (?) AND age > ?"
	params := []any{[]int{4, 5}, 18}

	direct, directArgs, err := Bind(sql, params, nil, sq.Dollar)
	require.NoError(t, err)

	named, err := Rewrite(sql, params)
	require.NoError(t, err)
	rewritten, rewrittenArgs, err := Bind(named.SQL, nil, named.Parameters, sq.Dollar)
	require.NoError(t, err)

	assert.Equal(t, "SELECT id FROM users WHERE id IN ($1,$2) AND age > $3", direct)
	assert.Equal(t, direct, rewritten)
	assert.Equal(t, directArgs, rewrittenArgs)
}
