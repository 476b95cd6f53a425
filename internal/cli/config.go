package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pthm/quarry"
)

const (
	maxWalkDepth = 25
)

// Config represents the quarry configuration from quarry.yaml.
type Config struct {
	// Schema is the entity metadata file.
	Schema string `mapstructure:"schema" json:"schema"`
	// Dialect overrides the placeholder dialect derived from the driver.
	Dialect string `mapstructure:"dialect" json:"dialect,omitempty"`

	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
	Paginate PaginateConfig `mapstructure:"paginate" json:"paginate"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" json:"driver"`
	URL          string `mapstructure:"url" json:"url,omitempty"`
	Host         string `mapstructure:"host" json:"host,omitempty"`
	Port         int    `mapstructure:"port" json:"port,omitempty"`
	Name         string `mapstructure:"name" json:"name,omitempty"`
	User         string `mapstructure:"user" json:"user,omitempty"`
	Password     string `mapstructure:"password" json:"password,omitempty"`
	SSLMode      string `mapstructure:"sslmode" json:"sslmode,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" json:"max_open_conns,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// PaginateConfig holds defaults for the paginate command.
type PaginateConfig struct {
	JoinKey string `mapstructure:"join_key" json:"join_key"`
	Limit   uint64 `mapstructure:"limit" json:"limit"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("QUARRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "schema.yaml")
	v.SetDefault("dialect", "")

	// Database defaults
	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.max_open_conns", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("paginate.join_key", "id")
	v.SetDefault("paginate.limit", 0)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for quarry.yaml or quarry.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"quarry.yaml", "quarry.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a postgres URL from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// DatabaseOptions converts the database section into component options.
func (c *Config) DatabaseOptions() (quarry.DatabaseOptions, error) {
	dsn, err := c.DSN()
	if err != nil {
		return quarry.DatabaseOptions{}, err
	}
	return quarry.DatabaseOptions{
		Driver:       c.Database.Driver,
		DSN:          dsn,
		Dialect:      c.ResolvedDialect(),
		MaxOpenConns: c.Database.MaxOpenConns,
	}, nil
}

// ResolvedDialect returns the configured dialect, falling back to the driver.
func (c *Config) ResolvedDialect() string {
	if c.Dialect != "" {
		return c.Dialect
	}
	return c.Database.Driver
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	r := *c
	if r.Database.Password != "" {
		r.Database.Password = "xxxxx"
	}
	if r.Database.URL != "" {
		r.Database.URL = quarry.DatabaseOptions{DSN: r.Database.URL}.Redacted().DSN
	}
	return r
}

// Logger builds a slog logger from the log section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
}
