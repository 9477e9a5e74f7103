package changeset

import (
	"errors"
	"fmt"

	"github.com/k0kubun/sqlitesession/value"
)

// Opcode octets, per the spec's operation table.
const (
	opcodeDelete byte = 0x09
	opcodeInsert byte = 0x12
	opcodeUpdate byte = 0x17
)

// indirect is always emitted as 0x00: this library never originates
// indirect changes (conflict-resolution replays are out of scope).
const indirectFlag byte = 0x00

// kind identifies which of the three record shapes an operation holds.
type kind uint8

const (
	kindInsert kind = iota
	kindUpdate
	kindDelete
)

// ColumnIndexOutOfBoundsError is returned when a builder's Set call names a
// column index that doesn't exist in the schema it's eventually bound to.
type ColumnIndexOutOfBoundsError struct {
	Given int
	Max   int
}

func (e ColumnIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("changeset: column index %d out of bounds, max %d", e.Given, e.Max)
}

// ErrBadRow is returned when an operation's extracted primary key doesn't
// match the schema it's bound to.
var ErrBadRow = errors.New("changeset: row does not match schema")

// operation is the canonical, schema-bound representation of a single row
// change. Both old and new are nil-padded full-width slices (length ==
// schema column count); a nil entry is Undefined. Insert only populates
// new; Delete only populates old; Update populates both.
type operation struct {
	kind kind
	old  []*value.Value
	new  []*value.Value
}

// Insert is a fluent builder for an INSERT operation: every column must be
// set to a concrete (non-Undefined) value before binding.
type Insert struct {
	values map[int]*value.Value
}

// NewInsert returns an empty Insert builder.
func NewInsert() *Insert {
	return &Insert{values: make(map[int]*value.Value)}
}

// Set records the new value for column i.
func (b *Insert) Set(i int, v *value.Value) *Insert {
	b.values[i] = v
	return b
}

func (b *Insert) bind(n int) (*operation, error) {
	row, err := bindSparseRow(n, b.values)
	if err != nil {
		return nil, err
	}
	return &operation{kind: kindInsert, new: row}, nil
}

// Delete is a fluent builder for a DELETE operation. For a changeset every
// column should be set (the full old row); for a patchset only PK columns
// need to be set, since DiffSet.Delete discards non-PK values.
type Delete struct {
	values map[int]*value.Value
}

// NewDelete returns an empty Delete builder.
func NewDelete() *Delete {
	return &Delete{values: make(map[int]*value.Value)}
}

// Set records the old value for column i.
func (b *Delete) Set(i int, v *value.Value) *Delete {
	b.values[i] = v
	return b
}

func (b *Delete) bind(n int) (*operation, error) {
	row, err := bindSparseRow(n, b.values)
	if err != nil {
		return nil, err
	}
	return &operation{kind: kindDelete, old: row}, nil
}

// Update is a fluent builder for an UPDATE operation: old/new pairs per
// changed column. Columns left unset are Undefined on both sides, meaning
// "unchanged".
type Update struct {
	old map[int]*value.Value
	new map[int]*value.Value
}

// NewUpdate returns an empty Update builder.
func NewUpdate() *Update {
	return &Update{old: make(map[int]*value.Value), new: make(map[int]*value.Value)}
}

// Set records the old and new value for column i.
func (b *Update) Set(i int, oldValue, newValue *value.Value) *Update {
	b.old[i] = oldValue
	b.new[i] = newValue
	return b
}

func (b *Update) bind(n int) (*operation, error) {
	old, err := bindSparseRow(n, b.old)
	if err != nil {
		return nil, err
	}
	newRow, err := bindSparseRow(n, b.new)
	if err != nil {
		return nil, err
	}
	return &operation{kind: kindUpdate, old: old, new: newRow}, nil
}

// bindSparseRow expands a sparse column->value map into a dense, Undefined
// padded row of width n, failing if any recorded index is out of range.
func bindSparseRow(n int, slots map[int]*value.Value) ([]*value.Value, error) {
	row := make([]*value.Value, n)
	for i, v := range slots {
		if i < 0 || i >= n {
			return nil, ColumnIndexOutOfBoundsError{Given: i, Max: n - 1}
		}
		row[i] = v
	}
	return row, nil
}
