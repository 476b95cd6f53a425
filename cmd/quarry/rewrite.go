package main

import (
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/quarry/internal/cli"
	"github.com/pthm/quarry/pkg/placeholder"
)

var (
	rewriteSQL    string
	rewriteParams string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite positional placeholders to named ones",
	Long: `Rewrite each ? marker to :valueN, or :...valueN when its parameter is a
list. Markers inside quoted text are left alone.`,
	Example: `  quarry rewrite --sql 'SELECT * FROM t WHERE a = ? AND b IN (?)' --params '[1, [2, 3]]'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var params []any
		if rewriteParams != "" {
			if err := yaml.Unmarshal([]byte(rewriteParams), &params); err != nil {
				return cli.GeneralError("parsing --params", err)
			}
		}

		named, err := placeholder.Rewrite(rewriteSQL, params)
		if err != nil {
			return cli.GeneralError("rewriting", err)
		}
		return printYAML(os.Stdout, statement{SQL: named.SQL, NamedArgs: named.Parameters})
	},
}

func init() {
	f := rewriteCmd.Flags()
	f.StringVar(&rewriteSQL, "sql", "", "SQL text with ? markers")
	f.StringVar(&rewriteParams, "params", "", "parameters as a JSON array")
	_ = rewriteCmd.MarkFlagRequired("sql")
}
