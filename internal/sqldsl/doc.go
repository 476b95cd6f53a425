// Package sqldsl provides typed building blocks for parameterized SQL
// fragments.
//
// # Overview
//
// Rather than concatenating clause strings by hand, the condition compiler
// and the paginated query composer assemble fragments from small expression
// values that render their SQL text and report the values bound to their
// positional markers. Rendering and argument collection always walk the tree
// in the same order, so the number of `?` markers in SQL() matches
// len(Args()) for every well-formed expression.
//
// # Expression Types
//
// Basic expressions:
//
//	Col{Table: "self", Column: "id"}  // Column reference: self.id
//	Param{Value: 42}                  // Positional marker: ?  (args: [42])
//	Raw{Text: "now()"}                // Raw SQL (escape hatch)
//	False{}                           // Always-false predicate: 1 = 0
//
// Operators:
//
//	Eq{Left: col, Right: param}       // self.id = ?
//	Between{Expr: col, Low: p1, High: p2}
//	In{Expr: col, List: param}        // self.id in (?)
//	IsNull{Expr: col}                 // self.id is null
//	Not{Expr: eq}                     // NOT(self.id = ?)
//	And(e1, e2)                       // e1 and e2
//	Or(e1, e2)                        // e1 or e2
//	Paren{Expr: e}                    // (e)
//
// # Table Expressions
//
// TableRef and Subquery render FROM/JOIN sources, Join renders the
// "<source> ON <cond>" tail consumed by query builders that prepend the join
// keyword themselves.
package sqldsl
