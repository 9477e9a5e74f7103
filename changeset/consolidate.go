package changeset

import "github.com/k0kubun/sqlitesession/value"

// mergeOperations combines an existing operation already recorded for a row
// with an incoming one for the same row, per the consolidation table.
// It returns the merged operation and false, or (nil, true) when the pair
// cancels out entirely (the row reverts to "no change").
//
// Most rules are identical across formats; the two that aren't (UPDATE+
// DELETE and DELETE+INSERT) take pkIndices because a patchset's DELETE and
// UPDATE old-side only ever carry primary-key columns.
func mergeOperations(format Format, pkIndices []int, existing, incoming *operation) (*operation, bool) {
	switch {
	case existing.kind == kindInsert && incoming.kind == kindInsert:
		return existing, false

	case existing.kind == kindInsert && incoming.kind == kindUpdate:
		n := len(existing.new)
		merged := make([]*value.Value, n)
		for i := 0; i < n; i++ {
			if !value.IsUndefined(incoming.new[i]) {
				merged[i] = incoming.new[i]
			} else {
				merged[i] = existing.new[i]
			}
		}
		return &operation{kind: kindInsert, new: merged}, false

	case existing.kind == kindInsert && incoming.kind == kindDelete:
		return nil, true

	case existing.kind == kindUpdate && incoming.kind == kindInsert:
		return existing, false

	case existing.kind == kindUpdate && incoming.kind == kindUpdate:
		n := len(existing.old)
		mergedOld := make([]*value.Value, n)
		mergedNew := make([]*value.Value, n)
		for i := 0; i < n; i++ {
			if !value.IsUndefined(existing.old[i]) {
				mergedOld[i] = existing.old[i]
			} else {
				mergedOld[i] = incoming.old[i]
			}
			if !value.IsUndefined(incoming.new[i]) {
				mergedNew[i] = incoming.new[i]
			} else {
				mergedNew[i] = existing.new[i]
			}
		}
		if rowsEqual(mergedOld, mergedNew) {
			return nil, true
		}
		return &operation{kind: kindUpdate, old: mergedOld, new: mergedNew}, false

	case existing.kind == kindUpdate && incoming.kind == kindDelete:
		n := len(existing.old)
		old := make([]*value.Value, n)
		if format == Changeset {
			for i := 0; i < n; i++ {
				if !value.IsUndefined(existing.old[i]) {
					old[i] = existing.old[i]
				} else {
					old[i] = incoming.old[i]
				}
			}
		} else {
			for _, i := range pkIndices {
				old[i] = existing.old[i]
			}
		}
		return &operation{kind: kindDelete, old: old}, false

	case existing.kind == kindDelete && incoming.kind == kindInsert:
		n := len(incoming.new)
		if format == Changeset && rowsEqual(existing.old, incoming.new) {
			return nil, true
		}
		old := make([]*value.Value, n)
		newRow := make([]*value.Value, n)
		if format == Changeset {
			pkSet := make(map[int]bool, len(pkIndices))
			for _, i := range pkIndices {
				pkSet[i] = true
			}
			for i := 0; i < n; i++ {
				if pkSet[i] || !value.Equal(existing.old[i], incoming.new[i]) {
					old[i] = existing.old[i]
					newRow[i] = incoming.new[i]
				}
			}
		} else {
			for _, i := range pkIndices {
				old[i] = existing.old[i]
			}
			copy(newRow, incoming.new)
		}
		return &operation{kind: kindUpdate, old: old, new: newRow}, false

	case existing.kind == kindDelete && incoming.kind == kindUpdate:
		return existing, false

	case existing.kind == kindDelete && incoming.kind == kindDelete:
		return existing, false
	}
	panic("changeset: unreachable operation kind pair")
}

// rowsEqual compares two full-width rows column by column.
func rowsEqual(a, b []*value.Value) bool {
	for i := range a {
		if !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// isNoOpUpdate reports whether an UPDATE operation's old and new sides are
// equal in every column, meaning it carries no information and should be
// dropped rather than recorded.
func isNoOpUpdate(op *operation) bool {
	return op.kind == kindUpdate && rowsEqual(op.old, op.new)
}
