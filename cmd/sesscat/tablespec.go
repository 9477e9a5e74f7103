package main

import (
	"fmt"
	"strings"

	"github.com/k0kubun/sqlitesession/schema"
)

// parseTableSpec decodes a `--table` flag of the form
// "name:col1,col2,...:pk1,pk2,..." into a NamedTable. The third segment
// lists the PK columns in key order; every other column gets PK ordinal
// 0.
func parseTableSpec(spec string) (*schema.NamedTable, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed --table spec %q, want name:columns:pk-columns", spec)
	}
	name := parts[0]
	cols := strings.Split(parts[1], ",")
	pkCols := strings.Split(parts[2], ",")

	pkOrdinal := make(map[string]uint8, len(pkCols))
	for i, c := range pkCols {
		pkOrdinal[c] = uint8(i + 1)
	}

	ordinals := make([]uint8, len(cols))
	for i, c := range cols {
		ordinals[i] = pkOrdinal[c]
	}

	return schema.NewNamed(name, cols, ordinals)
}
