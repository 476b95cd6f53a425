package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/quarry/internal/cli"
	"github.com/pthm/quarry/internal/doctor"
)

var (
	doctorDB      string
	doctorSchema  string
	doctorVerbose bool
	doctorOffline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Check the entity metadata file and the database tables it maps.`,
	Example: `  # Run health checks
  quarry doctor --db postgres://localhost/mydb

  # Only check the schema file
  quarry doctor --offline`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath := resolveString(doctorSchema, cfg.Schema)
		opts := []doctor.Option{doctor.WithLogger(logger)}

		if !doctorOffline {
			dbOpts, err := cfg.DatabaseOptions()
			if doctorDB != "" {
				dbOpts.Driver, dbOpts.DSN, dbOpts.Dialect = cfg.Database.Driver, doctorDB, cfg.ResolvedDialect()
				err = nil
			}
			if err != nil {
				return cli.ConfigError("database configuration", err)
			}
			opts = append(opts, doctor.WithDatabase(dbOpts))
		}

		return runDoctor(schemaPath, doctorVerbose, opts...)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.StringVar(&doctorSchema, "schema", "", "path to entity metadata file")
	f.BoolVar(&doctorVerbose, "details", false, "show detailed output")
	f.BoolVar(&doctorOffline, "offline", false, "skip database checks")
}

func runDoctor(schemaPath string, verboseFlag bool, opts ...doctor.Option) error {
	ctx := context.Background()

	if !quiet {
		fmt.Println("quarry doctor - Health Check")
	}

	report, err := doctor.New(schemaPath, opts...).Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, verboseFlag || verbose > 0)

	if report.HasErrors() {
		return cli.GeneralError("health checks failed", nil)
	}
	return nil
}
