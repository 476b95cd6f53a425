package sqldsl

import (
	"strings"
)

// Expr is the interface that all SQL expression types implement.
// Args returns the values bound to the positional markers in SQL, in order.
type Expr interface {
	SQL() string
	Args() []any
}

// Col represents a table column reference (e.g., self.created_at).
type Col struct {
	Table  string
	Column string
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// Args implements Expr.
func (Col) Args() []any { return nil }

// Column builds a Col from a possibly dotted name. When name already carries
// a qualifier it is kept as-is and table is ignored.
func Column(table, name string) Col {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return Col{Table: name[:i], Column: name[i+1:]}
	}
	return Col{Table: table, Column: name}
}

// Param is a single positional marker bound to Value.
// A slice Value is bound as one parameter; expansion is left to the binder.
type Param struct {
	Value any
}

// SQL renders the positional marker.
func (Param) SQL() string { return "?" }

// Args implements Expr.
func (p Param) Args() []any { return []any{p.Value} }

// Raw is an escape hatch for arbitrary SQL text with its own bound values.
type Raw struct {
	Text   string
	Values []any
}

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string { return r.Text }

// Args implements Expr.
func (r Raw) Args() []any { return r.Values }

// False is the always-false predicate.
type False struct{}

// SQL renders the predicate.
func (False) SQL() string { return "1 = 0" }

// Args implements Expr.
func (False) Args() []any { return nil }

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}

// Args implements Expr.
func (p Paren) Args() []any { return p.Expr.Args() }

// Alias wraps an expression with an alias (expr AS alias).
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string {
	return a.Expr.SQL() + " AS " + a.Name
}

// Args implements Expr.
func (a Alias) Args() []any { return a.Expr.Args() }

// SelectAs creates an aliased column expression (expr AS alias).
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}

// collectArgs concatenates the bound values of exprs in rendering order.
func collectArgs(exprs ...Expr) []any {
	var args []any
	for _, e := range exprs {
		args = append(args, e.Args()...)
	}
	return args
}
