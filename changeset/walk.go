package changeset

import (
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
)

// OpKind identifies an operation's shape for consumers outside this
// package (package applier translates it into literal SQL).
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// Op is the exported, read-only view of a consolidated row operation.
// Old/New follow the same per-column Undefined conventions as the wire
// format: a nil entry means "no information for this slot".
type Op struct {
	Kind OpKind
	Old  []*value.Value
	New  []*value.Value
}

// TableOps pairs a schema with the operations recorded against it, in
// the same row-emission order Build would serialize them in.
type TableOps struct {
	Table *schema.Table
	Ops   []Op
}

// Walk returns every non-empty table's operations in row-emission order,
// in first-touch table order — the same traversal Build uses, exposed
// for consumers (package applier) that need the operations themselves
// rather than their wire encoding.
func (d *DiffSet) Walk() []TableOps {
	var out []TableOps
	for _, key := range d.tableOrder {
		te := d.tables[key]
		if len(te.rows) == 0 {
			continue
		}
		ops := make([]Op, 0, len(te.rows))
		for _, rowKeyStr := range te.hash.EmissionOrder() {
			op := te.rows[rowKeyStr]
			ops = append(ops, Op{Kind: exportKind(op.kind), Old: op.old, New: op.new})
		}
		out = append(out, TableOps{Table: te.schema, Ops: ops})
	}
	return out
}

func exportKind(k kind) OpKind {
	switch k {
	case kindInsert:
		return OpInsert
	case kindUpdate:
		return OpUpdate
	default:
		return OpDelete
	}
}
