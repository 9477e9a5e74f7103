package changeset

import (
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
)

// tableEntry holds the live operations recorded against one schema, plus
// the hash table used to reconstruct emission order.
type tableEntry struct {
	schema *schema.Table
	rows   map[string]*operation
	hash   *rowHashTable
}

// DiffSet accumulates row operations against one or more schemas and
// serializes them to the wire format selected by its Format.
type DiffSet struct {
	format     Format
	tableOrder []string // schema keys, first-touch order
	tables     map[string]*tableEntry
}

// New returns an empty DiffSet for the given wire format.
func New(format Format) *DiffSet {
	return &DiffSet{format: format, tables: make(map[string]*tableEntry)}
}

// Format reports the DiffSet's wire format.
func (d *DiffSet) Format() Format {
	return d.format
}

// AddTable registers t with the DiffSet, establishing its first-touch
// position even if no operation is ever recorded against it. Calling it
// more than once for an equivalent schema is a no-op.
func (d *DiffSet) AddTable(t *schema.Table) {
	d.tableEntry(t)
}

func (d *DiffSet) tableEntry(t *schema.Table) *tableEntry {
	key := t.Key()
	te, ok := d.tables[key]
	if !ok {
		te = &tableEntry{schema: t, rows: make(map[string]*operation), hash: newRowHashTable()}
		d.tables[key] = te
		d.tableOrder = append(d.tableOrder, key)
	}
	return te
}

// rowKey returns the canonical byte string identifying a row: the
// concatenation of each PK column's wire value encoding, in PK-ordinal
// order. The same bytes serve as the map key and as the hash table's
// registration key (it's also the hash function's input, per §4.E).
func rowKey(pk []*value.Value) string {
	var buf []byte
	for _, v := range pk {
		buf = value.Encode(buf, v)
	}
	return string(buf)
}

func pkOf(t *schema.Table, row []*value.Value) ([]*value.Value, error) {
	pk, err := t.ExtractPK(row)
	if err != nil {
		return nil, ErrBadRow
	}
	return pk, nil
}

// Insert records an INSERT operation against table t.
func (d *DiffSet) Insert(t *schema.Table, b *Insert) error {
	op, err := b.bind(t.ColumnCount())
	if err != nil {
		return err
	}
	pk, err := pkOf(t, op.new)
	if err != nil {
		return err
	}
	return d.apply(t, pk, op)
}

// Update records an UPDATE operation against table t.
func (d *DiffSet) Update(t *schema.Table, b *Update) error {
	op, err := b.bind(t.ColumnCount())
	if err != nil {
		return err
	}
	pk, err := pkOf(t, op.old)
	if err != nil {
		return err
	}
	return d.apply(t, pk, op)
}

// Delete records a DELETE operation against table t. For a patchset, only
// the PK columns of the builder are retained; non-PK values are dropped.
func (d *DiffSet) Delete(t *schema.Table, b *Delete) error {
	op, err := b.bind(t.ColumnCount())
	if err != nil {
		return err
	}
	if d.format == Patchset {
		pkSet := make(map[int]bool)
		for _, i := range t.PKIndices() {
			pkSet[i] = true
		}
		for i := range op.old {
			if !pkSet[i] {
				op.old[i] = nil
			}
		}
	}
	pk, err := pkOf(t, op.old)
	if err != nil {
		return err
	}
	return d.apply(t, pk, op)
}

func (d *DiffSet) apply(t *schema.Table, pk []*value.Value, op *operation) error {
	te := d.tableEntry(t)
	key := rowKey(pk)

	existing, ok := te.rows[key]
	if !ok {
		if isNoOpUpdate(op) {
			return nil
		}
		te.rows[key] = op
		te.hash.Insert(key)
		return nil
	}

	merged, removed := mergeOperations(d.format, t.PKIndices(), existing, op)
	if removed {
		delete(te.rows, key)
		te.hash.Remove(key)
		return nil
	}
	te.rows[key] = merged
	return nil
}

// RestoreOrder replaces t's row-emission hash with one rebuilt directly
// from order, which must list exactly t's current row keys. wireparser
// calls this once it finishes reading a table's section: incoming wire
// records are already in final emission order, and replaying them through
// the ordinary chronological Insert path (prepend-based) would invert any
// colliding bucket's chain on every subsequent parse/build pass instead of
// converging to a fixed point, per the byte-stability property a parsed
// DiffSet must satisfy.
func (d *DiffSet) RestoreOrder(t *schema.Table, order []string) {
	te := d.tableEntry(t)
	te.hash = newRowHashTableFromOrder(order)
}

// Build serializes the DiffSet to its wire form.
func (d *DiffSet) Build() []byte {
	var out []byte
	for _, key := range d.tableOrder {
		te := d.tables[key]
		if len(te.rows) == 0 {
			continue
		}
		out = append(out, d.format.Marker())
		out = append(out, byte(te.schema.ColumnCount()))
		for i := 0; i < te.schema.ColumnCount(); i++ {
			out = append(out, te.schema.PKOrdinal(i))
		}
		out = append(out, te.schema.Name()...)
		out = append(out, 0x00)

		for _, rowKeyStr := range te.hash.EmissionOrder() {
			op := te.rows[rowKeyStr]
			out = appendRecord(out, op)
		}
	}
	return out
}

func appendRecord(dst []byte, op *operation) []byte {
	switch op.kind {
	case kindInsert:
		dst = append(dst, opcodeInsert, indirectFlag)
		for _, v := range op.new {
			dst = value.Encode(dst, v)
		}
	case kindDelete:
		dst = append(dst, opcodeDelete, indirectFlag)
		for _, v := range op.old {
			dst = value.Encode(dst, v)
		}
	case kindUpdate:
		dst = append(dst, opcodeUpdate, indirectFlag)
		for i := range op.old {
			dst = value.Encode(dst, op.old[i])
			dst = value.Encode(dst, op.new[i])
		}
	}
	return dst
}

// Equal compares two DiffSets for logical equality: same format, and the
// same non-empty tables carrying value-equal operations for the same set
// of rows, in the same emission order. Empty tables (registered via
// AddTable but never mutated) are ignored on both sides, and two DiffSets
// with no non-empty tables are equal whatever their formats.
func (d *DiffSet) Equal(other *DiffSet) bool {
	a := nonEmptyTables(d)
	b := nonEmptyTables(other)
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	if d.format != other.format {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ta, tb := a[i], b[i]
		if ta.schema.Key() != tb.schema.Key() {
			return false
		}
		orderA := ta.hash.EmissionOrder()
		orderB := tb.hash.EmissionOrder()
		if len(orderA) != len(orderB) {
			return false
		}
		for j := range orderA {
			if orderA[j] != orderB[j] {
				return false
			}
			if !operationsEqual(ta.rows[orderA[j]], tb.rows[orderB[j]]) {
				return false
			}
		}
	}
	return true
}

func nonEmptyTables(d *DiffSet) []*tableEntry {
	var out []*tableEntry
	for _, key := range d.tableOrder {
		te := d.tables[key]
		if len(te.rows) > 0 {
			out = append(out, te)
		}
	}
	return out
}

func operationsEqual(a, b *operation) bool {
	if a.kind != b.kind {
		return false
	}
	return rowsEqualUndefinedAware(a.old, b.old) && rowsEqualUndefinedAware(a.new, b.new)
}

func rowsEqualUndefinedAware(a, b []*value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
