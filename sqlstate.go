package quarry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// mapError wraps an executor error with the component and operation that
// produced it. Missing tables additionally match ErrMissingTable.
func (c *Component) mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isMissingTable(err) {
		err = fmt.Errorf("%w: %w", ErrMissingTable, err)
	}
	return &Error{Component: c.name, Op: op, Err: err}
}

func isMissingTable(err error) bool {
	if sqlState(err) == pgUndefinedTable {
		return true
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrError {
		return strings.Contains(serr.Error(), "no such table")
	}
	return false
}

// sqlState extracts the SQLSTATE code from a PostgreSQL error.
// Works with both drivers:
//   - pgx/pgconn: *pgconn.PgError
//   - lib/pq: *pq.Error
//
// Returns empty string if the error doesn't contain a SQLSTATE.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	type sqlStateErr interface{ SQLState() string }
	var se sqlStateErr
	if errors.As(err, &se) {
		return se.SQLState()
	}

	// Format: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
	errStr := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(errStr, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(errStr) {
				return errStr[start : start+5]
			}
		}
	}
	return ""
}
