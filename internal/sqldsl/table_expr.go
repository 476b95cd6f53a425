package sqldsl

// TableExpr is the interface for table expressions in FROM and JOIN clauses.
type TableExpr interface {
	// TableSQL returns the SQL for use in FROM/JOIN clauses.
	TableSQL() string
	// TableAlias returns the alias if any (empty string if none).
	TableAlias() string
}

// TableRef wraps a raw table name for use as a TableExpr.
type TableRef struct {
	Name  string
	Alias string
}

// TableSQL implements TableExpr.
func (t TableRef) TableSQL() string {
	if t.Alias != "" {
		return t.Name + " AS " + t.Alias
	}
	return t.Name
}

// TableAlias implements TableExpr.
func (t TableRef) TableAlias() string {
	return t.Alias
}

// TableAs creates a table reference with an alias.
func TableAs(name, alias string) TableRef {
	return TableRef{Name: name, Alias: alias}
}

// Subquery is a derived table built from already rendered SQL.
// Alias is emitted exactly as given, so reserved words must arrive quoted.
type Subquery struct {
	Query string
	Alias string
}

// TableSQL implements TableExpr.
func (s Subquery) TableSQL() string {
	out := "(" + s.Query + ")"
	if s.Alias != "" {
		out += " AS " + s.Alias
	}
	return out
}

// TableAlias implements TableExpr.
func (s Subquery) TableAlias() string {
	return s.Alias
}

// Join is the tail of a JOIN clause: the joined source and its ON condition.
// The join keyword itself is left to the caller.
type Join struct {
	Table TableExpr
	On    Expr
}

// SQL renders "<source> ON <cond>", or just the source when On is nil.
func (j Join) SQL() string {
	if j.On == nil {
		return j.Table.TableSQL()
	}
	return j.Table.TableSQL() + " ON " + j.On.SQL()
}

// Args implements Expr.
func (j Join) Args() []any {
	if j.On == nil {
		return nil
	}
	return j.On.Args()
}
