package sqldsl

import (
	"strings"
)

// Comparison operators

// Eq represents an equality comparison (=).
type Eq struct {
	Left  Expr
	Right Expr
}

func (e Eq) SQL() string { return e.Left.SQL() + " = " + e.Right.SQL() }
func (e Eq) Args() []any { return collectArgs(e.Left, e.Right) }

// Lt represents a less-than comparison (<).
type Lt struct {
	Left  Expr
	Right Expr
}

func (l Lt) SQL() string { return l.Left.SQL() + " < " + l.Right.SQL() }
func (l Lt) Args() []any { return collectArgs(l.Left, l.Right) }

// Gt represents a greater-than comparison (>).
type Gt struct {
	Left  Expr
	Right Expr
}

func (g Gt) SQL() string { return g.Left.SQL() + " > " + g.Right.SQL() }
func (g Gt) Args() []any { return collectArgs(g.Left, g.Right) }

// Lte represents a less-than-or-equal comparison (<=).
type Lte struct {
	Left  Expr
	Right Expr
}

func (l Lte) SQL() string { return l.Left.SQL() + " <= " + l.Right.SQL() }
func (l Lte) Args() []any { return collectArgs(l.Left, l.Right) }

// Gte represents a greater-than-or-equal comparison (>=).
type Gte struct {
	Left  Expr
	Right Expr
}

func (g Gte) SQL() string { return g.Left.SQL() + " >= " + g.Right.SQL() }
func (g Gte) Args() []any { return collectArgs(g.Left, g.Right) }

// Like represents a pattern match (like).
// Case-insensitive matching is a dialect concern and renders the same way.
type Like struct {
	Left    Expr
	Pattern Expr
}

func (l Like) SQL() string { return l.Left.SQL() + " like " + l.Pattern.SQL() }
func (l Like) Args() []any { return collectArgs(l.Left, l.Pattern) }

// Between represents a closed range test. Low and High are rendered in the
// order given.
type Between struct {
	Expr Expr
	Low  Expr
	High Expr
}

func (b Between) SQL() string {
	return b.Expr.SQL() + " between " + b.Low.SQL() + " and " + b.High.SQL()
}
func (b Between) Args() []any { return collectArgs(b.Expr, b.Low, b.High) }

// In represents a set membership test against a single list-valued marker.
type In struct {
	Expr Expr
	List Expr
}

func (i In) SQL() string { return i.Expr.SQL() + " in (" + i.List.SQL() + ")" }
func (i In) Args() []any { return collectArgs(i.Expr, i.List) }

// IsNull represents IS NULL check.
type IsNull struct {
	Expr Expr
}

func (i IsNull) SQL() string { return i.Expr.SQL() + " is null" }
func (i IsNull) Args() []any { return i.Expr.Args() }

// IsNotNull represents IS NOT NULL check.
type IsNotNull struct {
	Expr Expr
}

func (i IsNotNull) SQL() string { return i.Expr.SQL() + " is not null" }
func (i IsNotNull) Args() []any { return i.Expr.Args() }

// Logical operators

// Not represents a logical negation.
type Not struct {
	Expr Expr
}

func (n Not) SQL() string { return "NOT(" + n.Expr.SQL() + ")" }
func (n Not) Args() []any { return n.Expr.Args() }

// filterNilExprs removes nil expressions from the slice.
func filterNilExprs(exprs []Expr) []Expr {
	filtered := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// joinExprs renders expressions joined by a separator. Operands are not
// parenthesized here; callers wrap them in Paren where grouping matters.
func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, sep)
}

// AndExpr represents a logical AND of multiple expressions.
// An empty AndExpr renders as the empty string (no restriction).
type AndExpr struct {
	Exprs []Expr
}

func (a AndExpr) SQL() string { return joinExprs(a.Exprs, " and ") }
func (a AndExpr) Args() []any { return collectArgs(a.Exprs...) }

// And creates an AND expression from multiple expressions.
func And(exprs ...Expr) AndExpr {
	return AndExpr{Exprs: filterNilExprs(exprs)}
}

// OrExpr represents a logical OR of multiple expressions.
// An empty OrExpr renders as the empty string.
type OrExpr struct {
	Exprs []Expr
}

func (o OrExpr) SQL() string { return joinExprs(o.Exprs, " or ") }
func (o OrExpr) Args() []any { return collectArgs(o.Exprs...) }

// Or creates an OR expression from multiple expressions.
func Or(exprs ...Expr) OrExpr {
	return OrExpr{Exprs: filterNilExprs(exprs)}
}
