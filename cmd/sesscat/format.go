package main

import (
	"fmt"
	"strings"

	"github.com/k0kubun/sqlitesession/value"
)

// formatRow renders a row of values for the dump subcommand, showing
// Undefined slots explicitly rather than silently as empty fields.
func formatRow(row []*value.Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = formatValue(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatValue(v *value.Value) string {
	if value.IsUndefined(v) {
		return "<undefined>"
	}
	switch v.Kind() {
	case value.Null:
		return "NULL"
	case value.Integer:
		return fmt.Sprintf("%d", v.Int64())
	case value.Real:
		return fmt.Sprintf("%g", v.Float64())
	case value.Text:
		return fmt.Sprintf("%q", string(v.Bytes()))
	case value.Blob:
		return fmt.Sprintf("X'%x'", v.Bytes())
	default:
		return "?"
	}
}
