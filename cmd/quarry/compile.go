package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/quarry/internal/cli"
	"github.com/pthm/quarry/pkg/placeholder"
	"github.com/pthm/quarry/pkg/query"
	"github.com/pthm/quarry/pkg/where"
)

var (
	compileTable   string
	compileDialect string
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a condition document",
	Long: `Compile a condition document (JSON or YAML) into a predicate for the
configured dialect, a positional SQL fragment, and the fragment rewritten to
named placeholders.`,
	Example: `  # Compile a condition file
  quarry compile cond.json

  # Compile from stdin with a table prefix
  echo '{"age": {"$gte": 18}}' | quarry compile --table u`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return cli.GeneralError("reading condition", err)
		}
		w, err := where.Parse(data)
		if err != nil {
			return cli.ParseError("parsing condition", err)
		}

		d, err := query.DialectFor(resolveString(compileDialect, cfg.ResolvedDialect()))
		if err != nil {
			return cli.ConfigError("dialect", err)
		}

		var out struct {
			Predicate statement `json:"predicate"`
			Fragment  statement `json:"fragment"`
			Named     statement `json:"named"`
		}

		out.Predicate = compilePredicate(w, d)

		frag, err := where.CompileSQL(w, compileTable)
		if err != nil {
			out.Fragment.Error = err.Error()
		} else {
			out.Fragment = statement{SQL: frag.SQL, Args: frag.Parameters}
			named, err := placeholder.Rewrite(frag.SQL, frag.Parameters)
			if err != nil {
				out.Named.Error = err.Error()
			} else {
				out.Named = statement{SQL: named.SQL, NamedArgs: named.Parameters}
			}
		}

		logger.Debug("compiled condition", "alternatives", len(w), "dialect", d.Name)
		return printYAML(os.Stdout, out)
	},
}

func compilePredicate(w where.Where, d query.Dialect) statement {
	var opts []where.CompileOption
	if compileTable != "" {
		opts = append(opts, where.WithTable(compileTable))
	}
	pred, err := where.Compile(w, opts...)
	if err != nil {
		return statement{Error: err.Error()}
	}
	sqlText, args, err := pred.ToSql()
	if err == nil {
		sqlText, err = d.Format.ReplacePlaceholders(sqlText)
	}
	if err != nil {
		return statement{Error: err.Error()}
	}
	return statement{SQL: sqlText, Args: args}
}

func init() {
	f := compileCmd.Flags()
	f.StringVar(&compileTable, "table", "", "table or alias prefix for field names")
	f.StringVar(&compileDialect, "dialect", "", "placeholder dialect (postgres, sqlite)")
}
