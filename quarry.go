// Package quarry is a data-access layer that turns declarative conditions
// into SQL and composes paginated queries that eager-load relations.
//
// # Packages
//
// The root package holds the connection lifecycle; the compilers live in
// subpackages and have no runtime dependencies on a database:
//
//   - pkg/where: condition documents, compiled to squirrel predicates or to
//     parameterized SQL fragments.
//   - pkg/placeholder: positional to named placeholder rewriting and driver
//     binding with list expansion.
//   - pkg/schema: entity and relation metadata.
//   - pkg/query: immutable query builder and the paginated relation composer.
//
// # Basic Usage
//
//	reg, _ := schema.Load("schema.yaml")
//	c := quarry.New("main", reg, quarry.WithLogger(logger))
//	_ = c.SetOptions(quarry.DatabaseOptions{Driver: "pgx", DSN: dsn})
//	if err := c.Connect(ctx); err != nil { ... }
//	defer c.Disconnect()
//
//	w, _ := where.Parse([]byte(`{"status": "active", "age": {"$gte": 18}}`))
//	q, _ := c.BuildSQL("user", query.Options{
//	    Relations:    []string{"posts"},
//	    InnerJoinKey: "id",
//	    Where:        w,
//	    Limit:        20,
//	})
//	rows, _ := c.Find(ctx, q)
//
// # Pagination With Relations
//
// Applying LIMIT to a query that already left-joins a one-to-many relation
// counts joined rows, not entities. When relations are requested the composer
// selects the page's join keys in a subquery first and joins the relations
// afterwards, so every page holds exactly the requested number of entities
// with all of their related rows.
//
// # Transaction Support
//
// FindWith and QueryWith accept any Querier, so reads can run inside a
// transaction:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	rows, _ := c.FindWith(ctx, tx, q)
package quarry

import (
	"context"
	"database/sql"
)

// Querier executes queries.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer extends Querier with ExecContext.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
