package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/quarry/internal/cli"
)

var (
	configShowSource bool
	configShowJSON   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long: `Show the configuration quarry runs with: defaults, then quarry.yaml,
then QUARRY_* environment variables. The database password and any password
in database.url are masked.`,
	Example: `  # Effective configuration as YAML
  quarry config show

  # Include the config file that was loaded
  quarry config show --source

  # JSON, for scripts
  quarry config show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd.OutOrStdout(), cfg, configPath)
	},
}

// writeConfig renders the redacted configuration. With --source the file
// path is written as a leading YAML comment so the output stays loadable.
func writeConfig(w io.Writer, c *cli.Config, source string) error {
	redacted := c.Redacted()
	if configShowJSON {
		out, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			return cli.GeneralError("encoding configuration", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", out)
		return err
	}

	if configShowSource {
		if source == "" {
			source = "(none, defaults and environment only)"
		}
		if _, err := fmt.Fprintf(w, "# source: %s\n", source); err != nil {
			return err
		}
	}
	out, err := yaml.Marshal(redacted)
	if err != nil {
		return cli.GeneralError("encoding configuration", err)
	}
	_, err = w.Write(out)
	return err
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "prefix the output with the loaded config file")
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "print JSON instead of YAML")
	configCmd.AddCommand(configShowCmd)
}
