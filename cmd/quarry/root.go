package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/quarry/internal/cli"
	"github.com/pthm/quarry/pkg/schema"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Condition compiler and paginated query composer",
	Long: `quarry - condition compiler and paginated query composer

Quarry turns declarative condition documents into SQL predicates and composes
paginated queries that eager-load relations without undercounting pages.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		if verbose > 0 {
			cfg.Log.Level = "debug"
		}
		logger, err = cfg.Logger(os.Stderr)
		if err != nil {
			return cli.ConfigError("configuring logger", err)
		}
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupQuery    = "query"
	groupDatabase = "database"
	groupUtility  = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover quarry.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupQuery, Title: "Query:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	compileCmd.GroupID = groupQuery
	rewriteCmd.GroupID = groupQuery
	paginateCmd.GroupID = groupQuery
	validateCmd.GroupID = groupQuery
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(paginateCmd)
	rootCmd.AddCommand(validateCmd)

	doctorCmd.GroupID = groupDatabase
	rootCmd.AddCommand(doctorCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return cli.Report(os.Stderr, rootCmd.Execute())
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveDSN returns the flag DSN or the one built from configuration.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	return dsn, nil
}

// loadRegistry loads the entity metadata named by flag or config.
func loadRegistry(flagPath string) (*schema.Registry, error) {
	path := resolveString(flagPath, cfg.Schema)
	if _, err := os.Stat(path); err != nil {
		return nil, cli.ParseError("schema not found: "+path, nil)
	}
	reg, err := schema.Load(path)
	if err != nil {
		return nil, cli.ParseError("loading schema", err)
	}
	return reg, nil
}
