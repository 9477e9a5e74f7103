// Package schema models the table descriptor carried at the head of each
// wire table section: a name, a column count, and the primary-key ordinal
// assigned to each column.
package schema

import (
	"errors"
	"fmt"

	"github.com/k0kubun/sqlitesession/value"
)

// ErrBadRow is returned when a row's length doesn't match the schema's
// column count.
var ErrBadRow = errors.New("schema: row length does not match column count")

// ErrBadSchema is returned when the PK-ordinal vector doesn't form a
// contiguous {1..K} multiset, per invariant 6.
var ErrBadSchema = errors.New("schema: PK ordinals must be a contiguous 1..K multiset")

// Table is an ordered tuple of table name, column count, and a
// column-PK-ordinal vector: entry i is 0 if column i isn't part of the
// primary key, or the 1-based ordinal of column i within the key.
type Table struct {
	name       string
	pkOrdinals []uint8 // length == column count
}

// New validates and constructs a Table descriptor. pkOrdinals must have one
// entry per column; non-zero entries must form the multiset {1..K} for
// some K <= len(pkOrdinals).
func New(name string, pkOrdinals []uint8) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("schema: table name must not be empty")
	}
	if len(pkOrdinals) == 0 || len(pkOrdinals) > 255 {
		return nil, fmt.Errorf("schema: column count %d out of range 1..255", len(pkOrdinals))
	}

	seen := make(map[uint8]bool)
	maxOrdinal := uint8(0)
	for _, ord := range pkOrdinals {
		if ord == 0 {
			continue
		}
		if seen[ord] {
			return nil, ErrBadSchema
		}
		seen[ord] = true
		if ord > maxOrdinal {
			maxOrdinal = ord
		}
	}
	for k := uint8(1); k <= maxOrdinal; k++ {
		if !seen[k] {
			return nil, ErrBadSchema
		}
	}

	cp := make([]uint8, len(pkOrdinals))
	copy(cp, pkOrdinals)
	return &Table{name: name, pkOrdinals: cp}, nil
}

// Name returns the table's wire name.
func (t *Table) Name() string {
	return t.name
}

// ColumnCount returns N, the number of value slots each row carries.
func (t *Table) ColumnCount() int {
	return len(t.pkOrdinals)
}

// PKOrdinal returns the PK ordinal assigned to column i (0 if column i is
// not part of the primary key).
func (t *Table) PKOrdinal(i int) uint8 {
	return t.pkOrdinals[i]
}

// PKIndices returns the column indices that make up the primary key,
// ordered by ascending PK ordinal.
func (t *Table) PKIndices() []int {
	maxOrdinal := uint8(0)
	for _, ord := range t.pkOrdinals {
		if ord > maxOrdinal {
			maxOrdinal = ord
		}
	}
	indices := make([]int, maxOrdinal)
	for i, ord := range t.pkOrdinals {
		if ord != 0 {
			indices[ord-1] = i
		}
	}
	return indices
}

// ExtractPK returns the tuple of values at the PK column indices of row.
// It fails with ErrBadRow if len(row) != ColumnCount(); a Null PK
// component is not itself an error.
func (t *Table) ExtractPK(row []*value.Value) ([]*value.Value, error) {
	if len(row) != t.ColumnCount() {
		return nil, ErrBadRow
	}
	indices := t.PKIndices()
	pk := make([]*value.Value, len(indices))
	for i, colIdx := range indices {
		pk[i] = row[colIdx]
	}
	return pk, nil
}

// Key returns a canonical string identifying this schema value: two Table
// descriptors with the same name, column count, and PK-ordinal vector
// produce the same Key, regardless of where they were constructed. The
// DiffSet builder (package changeset) uses this as its outer map key,
// since spec's "keyed by the full schema value" doesn't translate directly
// into a comparable Go map key over a struct holding a slice.
func (t *Table) Key() string {
	buf := make([]byte, 0, len(t.name)+len(t.pkOrdinals)+2)
	buf = append(buf, t.name...)
	buf = append(buf, 0)
	buf = append(buf, t.pkOrdinals...)
	return string(buf)
}

// NamedTable extends Table with column names, required by the SQL-digest
// adapter (package sqldigest) to resolve identifiers against positions.
type NamedTable struct {
	*Table
	columnNames []string
}

// NewNamed validates and constructs a NamedTable. columnNames must have the
// same length as pkOrdinals.
func NewNamed(name string, columnNames []string, pkOrdinals []uint8) (*NamedTable, error) {
	if len(columnNames) != len(pkOrdinals) {
		return nil, fmt.Errorf("schema: %d column names but %d PK ordinals", len(columnNames), len(pkOrdinals))
	}
	t, err := New(name, pkOrdinals)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(columnNames))
	copy(names, columnNames)
	return &NamedTable{Table: t, columnNames: names}, nil
}

// ColumnIndex returns the 0-based index of the named column, or -1 if no
// column with that name exists.
func (t *NamedTable) ColumnIndex(name string) int {
	for i, n := range t.columnNames {
		if n == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the table's column names in declaration order.
func (t *NamedTable) ColumnNames() []string {
	names := make([]string, len(t.columnNames))
	copy(names, t.columnNames)
	return names
}
