// Package changeset builds, consolidates, and serializes changeset and
// patchset DiffSets: the in-memory row-operation sets that wire-encode to
// the T and P binary formats.
package changeset

// Format selects between the two wire formats a DiffSet can serialize to.
// They share opcodes and a value codec but differ in what a DELETE or
// UPDATE record carries for non-PK columns, and in several consolidation
// rules (see mergeOperations).
type Format uint8

const (
	// Changeset is the reversible format: DELETE carries the full old row,
	// UPDATE carries old/new pairs with Undefined only where unchanged.
	Changeset Format = iota
	// Patchset is the forward-only format: DELETE carries PK columns only,
	// UPDATE's old side carries PK columns only.
	Patchset
)

// Marker is the single octet identifying the format at the head of each
// table section in the wire stream.
func (f Format) Marker() byte {
	if f == Patchset {
		return 'P'
	}
	return 'T'
}

// String implements fmt.Stringer for diagnostics.
func (f Format) String() string {
	if f == Patchset {
		return "patchset"
	}
	return "changeset"
}
