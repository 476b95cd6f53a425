package main

import (
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"
)

// statement is the printed form of rendered SQL.
type statement struct {
	SQL       string `json:"sql"`
	Args      []any  `json:"args,omitempty"`
	Error     string `json:"error,omitempty"`
	NamedArgs any    `json:"parameters,omitempty"`
}

func printYAML(w io.Writer, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(out))
	return err
}

// readInput reads a file argument, or stdin for "-" or no argument.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
