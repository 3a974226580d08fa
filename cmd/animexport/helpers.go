package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"animexport/internal/diag"
	"animexport/internal/language"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func severityLabel(s diag.Severity) string {
	return language.Title(s.String())
}
