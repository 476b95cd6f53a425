package quarry

import (
	// Registers the "pgx" driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)
