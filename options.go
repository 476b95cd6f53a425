package quarry

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DatabaseOptions configure the connection a Component opens.
type DatabaseOptions struct {
	// Driver is a database/sql driver name: "pgx", "postgres" or "sqlite3".
	Driver string `json:"driver"`
	// DSN is passed to sql.Open unchanged.
	DSN string `json:"dsn"`
	// Dialect overrides the placeholder dialect derived from Driver.
	Dialect string `json:"dialect,omitempty"`

	MaxOpenConns    int           `json:"maxOpenConns,omitempty"`
	MaxIdleConns    int           `json:"maxIdleConns,omitempty"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime,omitempty"`
}

func (o DatabaseOptions) validate() error {
	if o.Driver == "" {
		return fmt.Errorf("database options: driver is required")
	}
	if o.DSN == "" {
		return fmt.Errorf("database options: dsn is required")
	}
	return nil
}

func (o DatabaseOptions) dialectName() string {
	if o.Dialect != "" {
		return o.Dialect
	}
	return o.Driver
}

var dsnPassword = regexp.MustCompile(`(?i)(password=)('[^']*'|\S+)`)

// Redacted returns a copy with the password in DSN hidden.
func (o DatabaseOptions) Redacted() DatabaseOptions {
	o.DSN = redactDSN(o.DSN)
	return o
}

// LogValue implements slog.LogValuer so options never log a password.
func (o DatabaseOptions) LogValue() slog.Value {
	r := o.Redacted()
	return slog.GroupValue(
		slog.String("driver", r.Driver),
		slog.String("dsn", r.DSN),
		slog.String("dialect", r.dialectName()),
	)
}

func redactDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsnPassword.ReplaceAllString(dsn, "${1}xxxxx")
		}
		// pgx and lib/pq also read the password from the query string.
		if q := u.Query(); q.Has("password") {
			q.Set("password", "xxxxx")
			u.RawQuery = q.Encode()
		}
		return u.Redacted()
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}xxxxx")
}
