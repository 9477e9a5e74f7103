package changeset

import (
	"errors"

	"github.com/k0kubun/sqlitesession/value"
)

// ErrNotChangeset is returned by Reverse when called on a patchset
// DiffSet: patchsets discard the old non-PK values reversal requires.
var ErrNotChangeset = errors.New("changeset: reverse is only defined for changeset DiffSets")

// Reverse returns a new DiffSet whose operations are the logical inverse
// of d's: INSERT becomes DELETE and vice versa, and UPDATE has its old and
// new column pairs swapped. Undefined propagates unchanged in either
// direction. Applying Reverse twice yields a DiffSet whose build() output
// is byte-identical to the original.
func (d *DiffSet) Reverse() (*DiffSet, error) {
	if d.format != Changeset {
		return nil, ErrNotChangeset
	}

	out := New(Changeset)
	for _, key := range d.tableOrder {
		te := d.tables[key]
		order := te.hash.EmissionOrder()
		outTE := out.tableEntry(te.schema)
		for _, rowKeyStr := range order {
			op := te.rows[rowKeyStr]
			outTE.rows[rowKeyStr] = reverseOperation(op)
		}
		// Rebuild the hash directly from te's own emission order instead of
		// replaying it through Insert: reversal never changes a row's key or
		// its relative position, so order is already outTE's final shape.
		// Insert prepends, so feeding an already-emitted (head-to-tail)
		// sequence back through it would reverse any colliding bucket's
		// chain instead of reproducing it.
		outTE.hash = newRowHashTableFromOrder(order)
	}
	return out, nil
}

func reverseOperation(op *operation) *operation {
	switch op.kind {
	case kindInsert:
		return &operation{kind: kindDelete, old: cloneRow(op.new)}
	case kindDelete:
		return &operation{kind: kindInsert, new: cloneRow(op.old)}
	case kindUpdate:
		return &operation{kind: kindUpdate, old: cloneRow(op.new), new: cloneRow(op.old)}
	default:
		panic("changeset: unreachable operation kind")
	}
}

func cloneRow(row []*value.Value) []*value.Value {
	out := make([]*value.Value, len(row))
	copy(out, row)
	return out
}
