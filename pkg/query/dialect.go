package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect describes how a statement is rendered for one database family.
type Dialect struct {
	Name string
	// Format is the driver placeholder style.
	Format sq.PlaceholderFormat
	// OffsetNeedsLimit is set when OFFSET is only valid after a LIMIT.
	OffsetNeedsLimit bool
}

var (
	// Postgres numbers placeholders ($1, $2, ...).
	Postgres = Dialect{Name: "postgres", Format: sq.Dollar}
	// SQLite uses ? placeholders and requires LIMIT before OFFSET.
	SQLite = Dialect{Name: "sqlite3", Format: sq.Question, OffsetNeedsLimit: true}
)

// DialectFor maps a dialect or database/sql driver name to a Dialect.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx", "pq":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

func (d Dialect) String() string { return d.Name }
