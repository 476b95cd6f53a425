package quarry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pthm/quarry/internal/sqldsl"
	"github.com/pthm/quarry/internal/version"
	"github.com/pthm/quarry/pkg/placeholder"
	"github.com/pthm/quarry/pkg/query"
	"github.com/pthm/quarry/pkg/schema"
)

// Component owns one named database connection and the composer that
// builds queries for it.
//
// A Component moves through three states: created, configured (SetOptions)
// and connected (Connect). Accessors return ErrNotInitialized or
// ErrNotConnected until the matching state is reached. It is safe for
// concurrent use; the pool itself is managed by database/sql.
type Component struct {
	name     string
	registry *schema.Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	opts     *DatabaseOptions
	dialect  query.Dialect
	db       *sql.DB
	composer *query.Composer
}

// Option configures a Component.
type Option func(*Component)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Component) {
		c.logger = l
	}
}

// New creates a Component for the given entity registry.
func New(name string, reg *schema.Registry, opts ...Option) *Component {
	c := &Component{
		name:     name,
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", name)
	return c
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Registry returns the entity registry.
func (c *Component) Registry() *schema.Registry { return c.registry }

// Version reports the module version.
func (c *Component) Version() string { return version.Short() }

// SetOptions validates and stores the connection options. It does not
// open a connection, and fails if the component is already connected.
func (c *Component) SetOptions(opts DatabaseOptions) error {
	if err := opts.validate(); err != nil {
		return &Error{Component: c.name, Op: "set options", Err: err}
	}
	d, err := query.DialectFor(opts.dialectName())
	if err != nil {
		return &Error{Component: c.name, Op: "set options", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return &Error{Component: c.name, Op: "set options", Err: fmt.Errorf("already connected")}
	}
	c.opts = &opts
	c.dialect = d
	return nil
}

// LogOptions returns the configured options with the password hidden.
func (c *Component) LogOptions() (DatabaseOptions, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.opts == nil {
		return DatabaseOptions{}, ErrNotInitialized
	}
	return c.opts.Redacted(), nil
}

// Connect opens the pool and verifies it with a ping. Calling Connect on a
// connected component is a no-op.
func (c *Component) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts == nil {
		return ErrNotInitialized
	}
	if c.db != nil {
		return nil
	}

	opts := *c.opts
	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return &Error{Component: c.name, Op: "connect", Err: err}
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &Error{Component: c.name, Op: "connect", Err: err}
	}

	c.db = db
	c.composer = query.NewComposer(c.registry, c.dialect)
	c.logger.Info("connected", "options", opts)
	return nil
}

// Disconnect closes the pool. The options are kept so Connect can be
// called again.
func (c *Component) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.composer = nil
	c.logger.Info("disconnected")
	if err != nil {
		return &Error{Component: c.name, Op: "disconnect", Err: err}
	}
	return nil
}

func (c *Component) ready() error {
	if c.opts == nil {
		return ErrNotInitialized
	}
	if c.db == nil {
		return ErrNotConnected
	}
	return nil
}

// DB returns the connection pool.
func (c *Component) DB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.db, nil
}

// Composer returns the query composer bound to the connection's dialect.
func (c *Component) Composer() (*query.Composer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.ready(); err != nil {
		return nil, err
	}
	return c.composer, nil
}

// QueryBuilder starts a plain query over entity.
func (c *Component) QueryBuilder(entity, alias string) (query.Builder, error) {
	comp, err := c.Composer()
	if err != nil {
		return query.Builder{}, err
	}
	return comp.QueryBuilder(entity, alias), nil
}

// BuildSQL composes a paginated query over entity.
func (c *Component) BuildSQL(entity string, opts query.Options) (query.Builder, error) {
	comp, err := c.Composer()
	if err != nil {
		return query.Builder{}, err
	}
	b, err := comp.Paginate(entity, opts)
	if err != nil {
		return query.Builder{}, &Error{Component: c.name, Op: "build sql", Err: err}
	}
	return b, nil
}

// Find renders b and runs it on the component's pool.
func (c *Component) Find(ctx context.Context, b query.Builder) ([]Row, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	return c.FindWith(ctx, db, b)
}

// FindWith renders b and runs it on q, which may be a transaction.
func (c *Component) FindWith(ctx context.Context, q Querier, b query.Builder) ([]Row, error) {
	stmt, args, err := b.Statement()
	if err != nil {
		return nil, &Error{Component: c.name, Op: "find", Err: err}
	}
	return c.run(ctx, q, "find", stmt, args)
}

// Query runs a statement written with :name and :...name placeholders, as
// produced by placeholder.Rewrite.
func (c *Component) Query(ctx context.Context, sqlText string, named map[string]any) ([]Row, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	return c.QueryWith(ctx, db, sqlText, named)
}

// QueryWith is Query on an explicit Querier.
func (c *Component) QueryWith(ctx context.Context, q Querier, sqlText string, named map[string]any) ([]Row, error) {
	c.mu.RLock()
	d := c.dialect
	initialized := c.opts != nil
	c.mu.RUnlock()
	if !initialized {
		return nil, ErrNotInitialized
	}

	stmt, args, err := placeholder.Bind(sqlText, nil, named, d.Format)
	if err != nil {
		return nil, &Error{Component: c.name, Op: "query", Err: err}
	}
	return c.run(ctx, q, "query", stmt, args)
}

// Columns returns the column names of table as the database reports them.
// A table that does not exist fails with ErrMissingTable.
func (c *Component) Columns(ctx context.Context, table string) ([]string, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	if err := sqldsl.CheckIdent(table); err != nil {
		return nil, &Error{Component: c.name, Op: "columns", Err: err}
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 1 = 0")
	if err != nil {
		return nil, c.mapError("columns", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, c.mapError("columns", err)
	}
	return cols, nil
}

func (c *Component) run(ctx context.Context, q Querier, op, stmt string, args []any) ([]Row, error) {
	id := uuid.NewString()
	start := time.Now()

	out, err := c.exec(ctx, q, stmt, args)
	elapsed := time.Since(start)
	sampleQuery(c.name, op, elapsed, len(out), err)

	if err != nil {
		c.logger.Error("statement failed",
			"op", op, "query_id", id, "duration", elapsed, "error", err)
		return nil, c.mapError(op, err)
	}
	c.logger.Debug("statement executed",
		"op", op, "query_id", id, "sql", stmt, "args", len(args),
		"rows", len(out), "duration", elapsed)
	return out, nil
}

func (c *Component) exec(ctx context.Context, q Querier, stmt string, args []any) ([]Row, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}
