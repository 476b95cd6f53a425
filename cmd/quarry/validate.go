package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateSchema string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate entity metadata",
	Long:  `Load the entity metadata file and check names, columns and relation targets.`,
	Example: `  # Validate a specific schema file
  quarry validate --schema schema.yaml

  # Validate using config file settings
  quarry validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(validateSchema)
		if err != nil {
			return err
		}

		if !quiet {
			entities := reg.Entities()
			fmt.Printf("Schema is valid. Found %d entities:\n", len(entities))
			for _, e := range entities {
				fmt.Printf("  - %s (table %s, %d relations)\n", e.Name, e.Table, len(e.Relations))
			}
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "path to entity metadata file")
}
