// Package cli provides shared configuration and utilities for the quarry CLI.
package cli

import (
	"errors"
	"fmt"
	"io"
)

// Exit codes. Scripts piping conditions through quarry can tell a bad
// document (ExitParse) apart from a database that is down (ExitConnect)
// or a statement the database rejected (ExitQuery).
const (
	ExitOK      = 0
	ExitGeneral = 1
	ExitConfig  = 2
	ExitParse   = 3
	ExitConnect = 4
	ExitQuery   = 5
)

// ExitError carries the exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Code returns the exit code for err: ExitOK for nil, the code of the first
// ExitError in the chain, or ExitGeneral.
func Code(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}

// Report writes err to w and returns its exit code.
func Report(w io.Writer, err error) int {
	if err != nil {
		fmt.Fprintln(w, "quarry:", err)
	}
	return Code(err)
}

func exitError(code int, msg string, err error) *ExitError {
	return &ExitError{Code: code, Message: msg, Err: err}
}

// ConfigError reports unusable configuration or flags.
func ConfigError(msg string, err error) *ExitError { return exitError(ExitConfig, msg, err) }

// ParseError reports a schema file or condition document that does not parse.
func ParseError(msg string, err error) *ExitError { return exitError(ExitParse, msg, err) }

// ConnectError reports a database that could not be reached.
func ConnectError(msg string, err error) *ExitError { return exitError(ExitConnect, msg, err) }

// QueryError reports a statement that failed against the database.
func QueryError(msg string, err error) *ExitError { return exitError(ExitQuery, msg, err) }

// GeneralError reports any other failure.
func GeneralError(msg string, err error) *ExitError { return exitError(ExitGeneral, msg, err) }
