// Package doctor provides health checks for a quarry deployment.
//
// The doctor command validates that the entity metadata file loads, that the
// database is reachable, that every mapped table and column exists, and that
// the composer's queries run against the live schema.
//
// Example usage:
//
//	d := doctor.New("schema.yaml", doctor.WithDatabase(opts))
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/pthm/quarry"
	"github.com/pthm/quarry/pkg/query"
	"github.com/pthm/quarry/pkg/schema"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "schema", "functions", "tuples").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	// Print each category
	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				// Indent details
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	// Print summary
	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor performs health checks on entity metadata and the database it maps.
type Doctor struct {
	schemaPath string
	opts       *quarry.DatabaseOptions
	logger     *slog.Logger

	// Populated during Run
	registry  *schema.Registry
	component *quarry.Component
	tables    map[string][]string
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithDatabase enables the database checks.
func WithDatabase(opts quarry.DatabaseOptions) Option {
	return func(d *Doctor) {
		d.opts = &opts
	}
}

// WithLogger sets the logger handed to the database component.
func WithLogger(l *slog.Logger) Option {
	return func(d *Doctor) {
		d.logger = l
	}
}

// New creates a new Doctor instance.
func New(schemaPath string, opts ...Option) *Doctor {
	d := &Doctor{
		schemaPath: schemaPath,
		logger:     slog.New(slog.DiscardHandler),
		tables:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes all health checks and returns a report.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkSchemaFile(report)
	if err := d.checkConnectivity(ctx, report); err != nil {
		return nil, fmt.Errorf("checking connectivity: %w", err)
	}
	if d.component != nil {
		defer func() { _ = d.component.Disconnect() }()
	}
	if err := d.checkEntityTables(ctx, report); err != nil {
		return nil, fmt.Errorf("checking entity tables: %w", err)
	}
	if err := d.checkQueries(ctx, report); err != nil {
		return nil, fmt.Errorf("checking queries: %w", err)
	}

	return report, nil
}

// checkSchemaFile validates the schema file exists and is valid.
func (d *Doctor) checkSchemaFile(report *Report) {
	if _, err := os.Stat(d.schemaPath); err != nil {
		report.AddCheck(CheckResult{
			Category: "Schema File",
			Name:     "exists",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Schema file not found at %s", d.schemaPath),
			FixHint:  "Create a schema.yaml describing your entities, or set 'schema' in quarry.yaml",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: "Schema File",
		Name:     "exists",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema file exists at %s", d.schemaPath),
	})

	reg, err := schema.Load(d.schemaPath)
	if err != nil {
		hint := "Fix the YAML syntax of the schema file"
		if schema.IsInvalidSchemaErr(err) {
			hint = "Check entity names, columns and relation targets"
		}
		report.AddCheck(CheckResult{
			Category: "Schema File",
			Name:     "valid",
			Status:   StatusFail,
			Message:  "Schema is invalid",
			Details:  err.Error(),
			FixHint:  hint,
		})
		return
	}

	d.registry = reg

	entities := reg.Entities()
	relationCount := 0
	for _, e := range entities {
		relationCount += len(e.Relations)
	}

	report.AddCheck(CheckResult{
		Category: "Schema File",
		Name:     "valid",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema is valid (%d entities, %d relations)", len(entities), relationCount),
	})

	if len(entities) == 0 {
		report.AddCheck(CheckResult{
			Category: "Schema File",
			Name:     "entities",
			Status:   StatusWarn,
			Message:  "Schema defines no entities",
			FixHint:  "Add entities to the schema file",
		})
	}
}

// checkConnectivity opens the configured database and pings it.
func (d *Doctor) checkConnectivity(ctx context.Context, report *Report) error {
	if d.opts == nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "configured",
			Status:   StatusWarn,
			Message:  "No database configured, skipping database checks",
			FixHint:  "Set database.url in quarry.yaml or QUARRY_DATABASE_URL",
		})
		return nil
	}

	reg := d.registry
	if reg == nil {
		var err error
		if reg, err = schema.NewRegistry(); err != nil {
			return err
		}
	}

	c := quarry.New("doctor", reg, quarry.WithLogger(d.logger))
	if err := c.SetOptions(*d.opts); err != nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "configured",
			Status:   StatusFail,
			Message:  "Database options are invalid",
			Details:  err.Error(),
			FixHint:  "Check database.driver and dialect",
		})
		return nil
	}

	if err := c.Connect(ctx); err != nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "connect",
			Status:   StatusFail,
			Message:  "Cannot connect to database",
			Details:  err.Error(),
			FixHint:  "Check the database URL and that the server is running",
		})
		return nil
	}

	d.component = c
	redacted, _ := c.LogOptions()
	report.AddCheck(CheckResult{
		Category: "Database",
		Name:     "connect",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected (%s)", redacted.Driver),
		Details:  redacted.DSN,
	})
	return nil
}

// checkEntityTables verifies every mapped table and column exists.
func (d *Doctor) checkEntityTables(ctx context.Context, report *Report) error {
	if d.component == nil || d.registry == nil {
		return nil // Already reported
	}

	for _, e := range d.registry.Entities() {
		cols, err := d.tableColumns(ctx, e.Table)
		if err != nil {
			if errors.Is(err, quarry.ErrConnectionNotReady) {
				return err
			}
			msg := fmt.Sprintf("%s: cannot read table %s", e.Name, e.Table)
			if quarry.IsMissingTableErr(err) {
				msg = fmt.Sprintf("%s: table %s does not exist", e.Name, e.Table)
			}
			report.AddCheck(CheckResult{
				Category: "Entity Tables",
				Name:     e.Name,
				Status:   StatusFail,
				Message:  msg,
				Details:  err.Error(),
				FixHint:  "Create the table or fix 'table' for this entity",
			})
			continue
		}

		want := e.Columns
		if !slices.Contains(want, e.PrimaryKey) {
			want = append([]string{e.PrimaryKey}, want...)
		}
		missing := missingColumns(cols, want)
		if len(missing) > 0 {
			report.AddCheck(CheckResult{
				Category: "Entity Tables",
				Name:     e.Name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s: missing columns: %s", e.Name, strings.Join(missing, ", ")),
				Details:  fmt.Sprintf("Found columns: %s", strings.Join(cols, ", ")),
				FixHint:  "Update the entity's columns to match the table",
			})
			continue
		}

		report.AddCheck(CheckResult{
			Category: "Entity Tables",
			Name:     e.Name,
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s: table %s has all mapped columns", e.Name, e.Table),
		})

		for _, rel := range e.Relations {
			if rel.Junction == nil {
				continue
			}
			if err := d.checkJunction(ctx, report, e, rel); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Doctor) checkJunction(ctx context.Context, report *Report, e schema.Entity, rel schema.Relation) error {
	j := rel.Junction
	cols, err := d.tableColumns(ctx, j.Table)
	name := e.Name + "." + rel.Name
	switch {
	case errors.Is(err, quarry.ErrConnectionNotReady):
		return err
	case err != nil:
		report.AddCheck(CheckResult{
			Category: "Entity Tables",
			Name:     name,
			Status:   StatusFail,
			Message:  fmt.Sprintf("%s: junction table %s is not readable", name, j.Table),
			Details:  err.Error(),
			FixHint:  "Create the junction table or fix the relation's junction",
		})
	default:
		if missing := missingColumns(cols, []string{j.LocalColumn, j.TargetColumn}); len(missing) > 0 {
			report.AddCheck(CheckResult{
				Category: "Entity Tables",
				Name:     name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s: junction %s missing columns: %s", name, j.Table, strings.Join(missing, ", ")),
			})
			return nil
		}
		report.AddCheck(CheckResult{
			Category: "Entity Tables",
			Name:     name,
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s: junction table %s is present", name, j.Table),
		})
	}
	return nil
}

// checkQueries composes and runs a one-row page over each entity with all of
// its relations, which exercises every join condition.
func (d *Doctor) checkQueries(ctx context.Context, report *Report) error {
	if d.component == nil || d.registry == nil {
		return nil
	}

	for _, e := range d.registry.Entities() {
		if len(e.Relations) == 0 {
			continue
		}
		if _, ok := d.tables[e.Table]; !ok {
			continue // Table check already failed
		}

		relations := make([]string, 0, len(e.Relations))
		for _, rel := range e.Relations {
			relations = append(relations, rel.Name)
		}

		q, err := d.component.BuildSQL(e.Name, query.Options{
			Relations:    relations,
			InnerJoinKey: e.PrimaryKey,
			Limit:        1,
		})
		if err == nil {
			_, err = d.component.Find(ctx, q)
		}
		if err != nil {
			if errors.Is(err, quarry.ErrConnectionNotReady) {
				return err
			}
			report.AddCheck(CheckResult{
				Category: "Queries",
				Name:     e.Name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s: paginated query with %s failed", e.Name, strings.Join(relations, ", ")),
				Details:  err.Error(),
				FixHint:  "Check relation columns against the related tables",
			})
			continue
		}

		report.AddCheck(CheckResult{
			Category: "Queries",
			Name:     e.Name,
			Status:   StatusPass,
			Message:  fmt.Sprintf("%s: paginated query with %s runs", e.Name, strings.Join(relations, ", ")),
		})
	}
	return nil
}

func (d *Doctor) tableColumns(ctx context.Context, table string) ([]string, error) {
	if cols, ok := d.tables[table]; ok {
		return cols, nil
	}
	cols, err := d.component.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	d.tables[table] = cols
	return cols, nil
}

func missingColumns(have, want []string) []string {
	var missing []string
	for _, col := range want {
		if !slices.ContainsFunc(have, func(h string) bool { return strings.EqualFold(h, col) }) {
			missing = append(missing, col)
		}
	}
	return missing
}
