package where

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// RelationResolver turns a predicate over a nested relation, whose columns
// are addressed as <relation>.<column>, into a predicate on the base entity.
// The query composer uses it to emit EXISTS subqueries.
type RelationResolver func(relation string, pred sq.Sqlizer) (sq.Sqlizer, error)

type compiler struct {
	table    string
	resolver RelationResolver
}

// CompileOption configures Compile.
type CompileOption func(*compiler)

// WithTable qualifies top-level columns with a table alias.
func WithTable(alias string) CompileOption {
	return func(c *compiler) {
		c.table = alias
	}
}

// WithRelationResolver sets how nested conditions are attached to the base
// predicate. Without one, nested columns are referenced directly and the
// caller must join the relation under its own name.
func WithRelationResolver(r RelationResolver) CompileOption {
	return func(c *compiler) {
		c.resolver = r
	}
}

// Compile compiles w into a predicate tree. Alternatives become sq.Or, the
// entries of a condition become sq.And, and an empty Where compiles to the
// always-true sq.And{}. Either the whole tree is returned or an error.
func Compile(w Where, opts ...CompileOption) (sq.Sqlizer, error) {
	c := &compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	switch len(w) {
	case 0:
		return sq.And{}, nil
	case 1:
		return c.condition(w[0], c.table, true)
	}
	or := make(sq.Or, 0, len(w))
	for _, cond := range w {
		p, err := c.condition(cond, c.table, true)
		if err != nil {
			return nil, err
		}
		or = append(or, p)
	}
	return or, nil
}

func (c *compiler) condition(cond Condition, table string, top bool) (sq.Sqlizer, error) {
	and := make(sq.And, 0, len(cond.Entries))
	for _, e := range cond.Entries {
		p, err := c.entry(e.Field, e.Value, table, top)
		if err != nil {
			return nil, err
		}
		and = append(and, p)
	}
	return and, nil
}

func (c *compiler) entry(field string, v Value, table string, top bool) (sq.Sqlizer, error) {
	switch x := v.(type) {
	case Condition:
		inner, err := c.condition(x, field, false)
		if err != nil {
			return nil, err
		}
		if top && c.resolver != nil {
			return c.resolver(field, inner)
		}
		return inner, nil
	case Literal:
		return sq.Eq{qualify(table, field): x.V}, nil
	case Ops:
		col := qualify(table, field)
		if len(x) == 1 {
			return c.op(col, field, table, top, x[0])
		}
		and := make(sq.And, 0, len(x))
		for _, op := range x {
			p, err := c.op(col, field, table, top, op)
			if err != nil {
				return nil, err
			}
			and = append(and, p)
		}
		return and, nil
	}
	return nil, fmt.Errorf("%w: field %q has unsupported value %T", ErrInvalidCondition, field, v)
}

func (c *compiler) op(col, field, table string, top bool, op Op) (sq.Sqlizer, error) {
	switch x := op.(type) {
	case Any:
		return sq.Expr(col+" = ANY(?)", pq.Array(x.Values)), nil
	case Between:
		return between{column: col, low: x.Low, high: x.High}, nil
	case Eq:
		return sq.Eq{col: x.Value}, nil
	case ILike:
		return sq.ILike{col: x.Pattern}, nil
	case In:
		return sq.Eq{col: x.Values}, nil
	case IsNull:
		if x.Null {
			return sq.Eq{col: nil}, nil
		}
		return sq.NotEq{col: nil}, nil
	case Lt:
		return sq.Lt{col: x.Value}, nil
	case Lte:
		return sq.LtOrEq{col: x.Value}, nil
	case Like:
		return sq.Like{col: x.Pattern}, nil
	case Gt:
		return sq.Gt{col: x.Value}, nil
	case Gte:
		return sq.GtOrEq{col: x.Value}, nil
	case Not:
		inner, err := c.entry(field, x.Value, table, top)
		if err != nil {
			return nil, err
		}
		return not{pred: inner}, nil
	case Raw:
		return sq.Expr(rawText(x.SQL, col), x.Args...), nil
	}
	return nil, fmt.Errorf("%w: %T on field %q", ErrUnsupportedOperator, op, field)
}

// between renders a closed range with bounds in the order given.
type between struct {
	column    string
	low, high any
}

func (b between) ToSql() (string, []any, error) {
	return b.column + " BETWEEN ? AND ?", []any{b.low, b.high}, nil
}

// not wraps a predicate in negation.
type not struct {
	pred sq.Sqlizer
}

func (n not) ToSql() (string, []any, error) {
	s, args, err := n.pred.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + s + ")", args, nil
}

func qualify(table, field string) string {
	if table == "" || strings.Contains(field, ".") {
		return field
	}
	return table + "." + field
}

func rawText(sql, col string) string {
	if strings.Contains(sql, ColumnToken) {
		return strings.ReplaceAll(sql, ColumnToken, col)
	}
	return sql
}
