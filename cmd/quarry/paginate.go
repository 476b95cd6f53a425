package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pthm/quarry"
	"github.com/pthm/quarry/internal/cli"
	"github.com/pthm/quarry/pkg/query"
	"github.com/pthm/quarry/pkg/schema"
	"github.com/pthm/quarry/pkg/where"
)

var (
	paginateSchema    string
	paginateEntity    string
	paginateRelations []string
	paginateJoinKey   string
	paginateWhere     string
	paginateOrder     []string
	paginateSelect    []string
	paginateLimit     uint64
	paginateOffset    uint64
	paginateExecute   bool
	paginateDB        string
)

var paginateCmd = &cobra.Command{
	Use:   "paginate",
	Short: "Compose a paginated query",
	Long: `Compose a paginated query over an entity. With --relation the page is
selected by join key in a subquery before relations are joined, so every page
holds --limit entities with all of their related rows.`,
	Example: `  # Second page of users with their posts
  quarry paginate --entity user --relation posts --order id:ASC --limit 20 --offset 20

  # Filter and run against the configured database
  quarry paginate --entity user --where active.json --limit 10 --execute`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(paginateSchema)
		if err != nil {
			return err
		}

		opts, err := paginateOptions()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if paginateExecute {
			return executePaginate(ctx, reg, opts)
		}

		d, err := query.DialectFor(cfg.ResolvedDialect())
		if err != nil {
			return cli.ConfigError("dialect", err)
		}
		q, err := query.NewComposer(reg, d).Paginate(paginateEntity, opts)
		if err != nil {
			return cli.GeneralError("composing query", err)
		}
		sqlText, sqlArgs, err := q.Statement()
		if err != nil {
			return cli.GeneralError("rendering query", err)
		}
		return printYAML(os.Stdout, statement{SQL: sqlText, Args: sqlArgs})
	},
}

func paginateOptions() (query.Options, error) {
	opts := query.Options{
		Select:       paginateSelect,
		Relations:    paginateRelations,
		InnerJoinKey: paginateJoinKey,
		Limit:        paginateLimit,
		Offset:       paginateOffset,
	}
	if len(opts.Relations) > 0 && opts.InnerJoinKey == "" {
		opts.InnerJoinKey = cfg.Paginate.JoinKey
	}
	if opts.Limit == 0 {
		opts.Limit = cfg.Paginate.Limit
	}

	for _, o := range paginateOrder {
		order, err := parseOrder(o)
		if err != nil {
			return query.Options{}, cli.GeneralError("parsing --order", err)
		}
		opts.Order = append(opts.Order, order)
	}

	if paginateWhere != "" {
		data, err := readInput([]string{paginateWhere})
		if err != nil {
			return query.Options{}, cli.GeneralError("reading --where", err)
		}
		w, err := where.Parse(data)
		if err != nil {
			return query.Options{}, cli.ParseError("parsing condition", err)
		}
		opts.Where = w
	}
	return opts, nil
}

// parseOrder parses "column" or "column:DIRECTION".
func parseOrder(s string) (query.Order, error) {
	col, dir, found := strings.Cut(s, ":")
	if col == "" {
		return query.Order{}, fmt.Errorf("%w: empty column in %q", query.ErrInvalidOrder, s)
	}
	if !found {
		return query.Order{Column: col, Direction: query.Asc}, nil
	}
	d, err := query.ParseDirection(dir)
	if err != nil {
		return query.Order{}, err
	}
	return query.Order{Column: col, Direction: d}, nil
}

func executePaginate(ctx context.Context, reg *schema.Registry, opts query.Options) error {
	dbOpts, err := cfg.DatabaseOptions()
	if paginateDB != "" {
		dbOpts.Driver, dbOpts.DSN, dbOpts.Dialect = cfg.Database.Driver, paginateDB, cfg.ResolvedDialect()
		err = nil
	}
	if err != nil {
		return cli.ConfigError("database configuration", err)
	}

	c := quarry.New("cli", reg, quarry.WithLogger(logger))
	if err := c.SetOptions(dbOpts); err != nil {
		return cli.ConfigError("database options", err)
	}
	if err := c.Connect(ctx); err != nil {
		return cli.ConnectError("connecting to database", err)
	}
	defer func() { _ = c.Disconnect() }()

	q, err := c.BuildSQL(paginateEntity, opts)
	if err != nil {
		return cli.GeneralError("composing query", err)
	}
	rows, err := c.Find(ctx, q)
	if err != nil {
		return cli.QueryError("executing query", err)
	}
	return printYAML(os.Stdout, rows)
}

func init() {
	f := paginateCmd.Flags()
	f.StringVar(&paginateSchema, "schema", "", "path to entity metadata file")
	f.StringVar(&paginateEntity, "entity", "", "entity to query")
	f.StringSliceVar(&paginateRelations, "relation", nil, "relation to load (repeatable)")
	f.StringVar(&paginateJoinKey, "join-key", "", "column identifying an entity (default from config)")
	f.StringVar(&paginateWhere, "where", "", "condition file, or - for stdin")
	f.StringSliceVar(&paginateOrder, "order", nil, "sort as column[:ASC|DESC] (repeatable)")
	f.StringSliceVar(&paginateSelect, "select", nil, "columns to project")
	f.Uint64Var(&paginateLimit, "limit", 0, "page size")
	f.Uint64Var(&paginateOffset, "offset", 0, "entities to skip")
	f.BoolVar(&paginateExecute, "execute", false, "run the query and print the rows")
	f.StringVar(&paginateDB, "db", "", "database URL (with --execute)")
	_ = paginateCmd.MarkFlagRequired("entity")
}
