package where

import (
	"fmt"

	"github.com/pthm/quarry/internal/sqldsl"
)

// Fragment is parameterized SQL text with positional ? markers. The number of
// markers always equals len(Parameters); list-valued parameters stay whole
// and are expanded later by the placeholder binder.
type Fragment struct {
	SQL        string
	Parameters []any
}

// CompileSQL compiles w into a boolean SQL fragment. Each entry becomes one
// parenthesized clause, entries are joined with "and", and alternatives are
// parenthesized and joined with "or". When table is set, top-level fields are
// qualified with it; nested conditions are qualified with their relation name.
//
// An empty Where, or one with an empty alternative, yields an empty fragment.
func CompileSQL(w Where, table string) (Fragment, error) {
	if err := w.Validate(); err != nil {
		return Fragment{}, err
	}
	if table != "" {
		if err := sqldsl.CheckIdent(table); err != nil {
			return Fragment{}, fmt.Errorf("table: %w", err)
		}
	}
	if w.IsEmpty() {
		return Fragment{SQL: "", Parameters: []any{}}, nil
	}

	var expr sqldsl.Expr
	if len(w) == 1 {
		e, err := conditionExpr(w[0], table)
		if err != nil {
			return Fragment{}, err
		}
		expr = e
	} else {
		alts := make([]sqldsl.Expr, 0, len(w))
		for _, c := range w {
			e, err := conditionExpr(c, table)
			if err != nil {
				return Fragment{}, err
			}
			alts = append(alts, sqldsl.Paren{Expr: e})
		}
		expr = sqldsl.Or(alts...)
	}

	params := expr.Args()
	if params == nil {
		params = []any{}
	}
	return Fragment{SQL: expr.SQL(), Parameters: params}, nil
}

func conditionExpr(c Condition, table string) (sqldsl.Expr, error) {
	clauses := make([]sqldsl.Expr, 0, len(c.Entries))
	for _, e := range c.Entries {
		clause, err := entryExpr(e.Field, e.Value, table)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return sqldsl.And(clauses...), nil
}

func entryExpr(field string, v Value, table string) (sqldsl.Expr, error) {
	col := sqldsl.Column(table, field)
	switch x := v.(type) {
	case Literal:
		return literalExpr(col, x.V), nil
	case Condition:
		inner, err := conditionExpr(x, field)
		if err != nil {
			return nil, err
		}
		return sqldsl.Paren{Expr: inner}, nil
	case Ops:
		if len(x) == 1 {
			return opExpr(col, field, x[0])
		}
		parts := make([]sqldsl.Expr, 0, len(x))
		for _, op := range x {
			p, err := opExpr(col, field, op)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		return sqldsl.Paren{Expr: sqldsl.And(parts...)}, nil
	}
	return nil, fmt.Errorf("%w: field %q has unsupported value %T", ErrInvalidCondition, field, v)
}

func literalExpr(col sqldsl.Col, v any) sqldsl.Expr {
	if v == nil {
		return sqldsl.Paren{Expr: sqldsl.IsNull{Expr: col}}
	}
	return sqldsl.Paren{Expr: sqldsl.Eq{Left: col, Right: sqldsl.Param{Value: v}}}
}

func opExpr(col sqldsl.Col, field string, op Op) (sqldsl.Expr, error) {
	var e sqldsl.Expr
	switch x := op.(type) {
	case Between:
		e = sqldsl.Between{Expr: col, Low: sqldsl.Param{Value: x.Low}, High: sqldsl.Param{Value: x.High}}
	case Eq:
		return literalExpr(col, x.Value), nil
	case Like:
		e = sqldsl.Like{Left: col, Pattern: sqldsl.Param{Value: x.Pattern}}
	case ILike:
		e = sqldsl.Like{Left: col, Pattern: sqldsl.Param{Value: x.Pattern}}
	case In:
		e = listExpr(col, x.Values)
	case Any:
		e = listExpr(col, x.Values)
	case IsNull:
		if x.Null {
			e = sqldsl.IsNull{Expr: col}
		} else {
			e = sqldsl.IsNotNull{Expr: col}
		}
	case Lt:
		e = sqldsl.Lt{Left: col, Right: sqldsl.Param{Value: x.Value}}
	case Lte:
		e = sqldsl.Lte{Left: col, Right: sqldsl.Param{Value: x.Value}}
	case Gt:
		e = sqldsl.Gt{Left: col, Right: sqldsl.Param{Value: x.Value}}
	case Gte:
		e = sqldsl.Gte{Left: col, Right: sqldsl.Param{Value: x.Value}}
	case Not:
		v, ok := negatedEquality(x.Value)
		if !ok {
			return nil, fmt.Errorf("%w: %s on field %q only negates a single equality in SQL fragments",
				ErrUnsupportedOperator, OpNot, field)
		}
		e = sqldsl.Not{Expr: sqldsl.Eq{Left: col, Right: sqldsl.Param{Value: v}}}
	case Raw:
		e = sqldsl.Raw{Text: rawText(x.SQL, col.SQL()), Values: x.Args}
	default:
		return nil, fmt.Errorf("%w: %T on field %q", ErrUnsupportedOperator, op, field)
	}
	return sqldsl.Paren{Expr: e}, nil
}

// listExpr binds the whole list to one marker. An empty list matches nothing.
func listExpr(col sqldsl.Col, values []any) sqldsl.Expr {
	if len(values) == 0 {
		return sqldsl.False{}
	}
	return sqldsl.In{Expr: col, List: sqldsl.Param{Value: values}}
}

// negatedEquality extracts the compared value from a non-null literal or a
// lone $eq.
func negatedEquality(v Value) (any, bool) {
	switch x := v.(type) {
	case Literal:
		return x.V, x.V != nil
	case Ops:
		if len(x) != 1 {
			return nil, false
		}
		if eq, ok := x[0].(Eq); ok && eq.Value != nil {
			return eq.Value, true
		}
	}
	return nil, false
}
