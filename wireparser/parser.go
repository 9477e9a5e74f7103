// Package wireparser decodes the changeset/patchset wire format produced
// by package changeset back into a DiffSet, replaying every decoded row
// through the same builder entry points the public API uses. A second
// record for a (table, PK) pair already seen is rejected with
// ErrDuplicateKey rather than consolidated, and each table's row-emission
// order is then restored from the order its records appeared on the wire.
package wireparser

import (
	"errors"
	"fmt"

	"github.com/k0kubun/sqlitesession/changeset"
	"github.com/k0kubun/sqlitesession/schema"
	"github.com/k0kubun/sqlitesession/value"
)

const (
	markerChangeset byte = 'T'
	markerPatchset  byte = 'P'
)

const (
	opInsert byte = 0x12
	opDelete byte = 0x09
	opUpdate byte = 0x17
)

// Failure kinds, per §4.F. ErrBadMarker is an addition beyond the spec's
// named list: the spec doesn't name a kind for a leading byte that's
// neither a changeset nor a patchset marker where a table header is
// expected.
var (
	ErrTruncated      = errors.New("wireparser: truncated input")
	ErrUnknownOpcode  = errors.New("wireparser: unknown opcode")
	ErrUnknownValue   = errors.New("wireparser: unknown value tag")
	ErrBadColumnCount = errors.New("wireparser: bad column count")
	ErrMixedFormat    = errors.New("wireparser: table sections disagree on format marker")
	ErrDuplicateKey   = errors.New("wireparser: duplicate operation for the same primary key")
	ErrBadMarker      = errors.New("wireparser: expected a changeset or patchset marker byte")
)

// Parse decodes b into a DiffSet. Zero-length input yields an empty
// DiffSet in changeset format; it builds to zero bytes and compares Equal
// to an empty DiffSet of either format.
func Parse(b []byte) (*changeset.DiffSet, error) {
	if len(b) == 0 {
		return changeset.New(changeset.Changeset), nil
	}

	p := &parser{buf: b}
	ds, err := p.run()
	if err != nil {
		return nil, err
	}
	return ds, nil
}

type parser struct {
	buf    []byte
	pos    int
	seen   map[string]map[string]bool // table key -> row key -> touched
	order  map[string][]string        // table key -> row keys, encounter order
	tables map[string]*schema.Table   // table key -> table, for the final restore pass
}

func (p *parser) run() (*changeset.DiffSet, error) {
	marker := p.buf[0]
	format, err := formatFromMarker(marker)
	if err != nil {
		return nil, err
	}

	ds := changeset.New(format)
	p.seen = make(map[string]map[string]bool)
	p.order = make(map[string][]string)
	p.tables = make(map[string]*schema.Table)

	for p.pos < len(p.buf) {
		m := p.buf[p.pos]
		if m != markerChangeset && m != markerPatchset {
			return nil, fmt.Errorf("%w: opcode %#x", ErrUnknownOpcode, m)
		}
		sectionFormat, err := formatFromMarker(m)
		if err != nil {
			return nil, err
		}
		if sectionFormat != format {
			return nil, ErrMixedFormat
		}

		table, err := p.readHeader()
		if err != nil {
			return nil, err
		}
		ds.AddTable(table)
		p.tables[table.Key()] = table

		for p.pos < len(p.buf) && p.buf[p.pos] != markerChangeset && p.buf[p.pos] != markerPatchset {
			if err := p.readRecord(ds, table); err != nil {
				return nil, err
			}
		}
	}

	// Wire records arrive in a table's final emission order already; fix up
	// each touched table's hash to reproduce that order directly instead of
	// the order produced by replaying them through the ordinary chronological
	// (prepend-based) insertion path, which would invert any colliding
	// bucket's chain instead of reconstructing it. See changeset.DiffSet's
	// RestoreOrder doc comment.
	for tkey, order := range p.order {
		ds.RestoreOrder(p.tables[tkey], order)
	}
	return ds, nil
}

func formatFromMarker(m byte) (changeset.Format, error) {
	switch m {
	case markerChangeset:
		return changeset.Changeset, nil
	case markerPatchset:
		return changeset.Patchset, nil
	default:
		return 0, ErrBadMarker
	}
}

func (p *parser) readHeader() (*schema.Table, error) {
	if p.pos >= len(p.buf) {
		return nil, ErrTruncated
	}
	p.pos++ // marker byte, only peeked by the caller so far

	if p.pos >= len(p.buf) {
		return nil, ErrTruncated
	}
	n := int(p.buf[p.pos])
	p.pos++
	if n == 0 {
		return nil, ErrBadColumnCount
	}
	if p.pos+n > len(p.buf) {
		return nil, ErrBadColumnCount
	}
	pkOrdinals := make([]uint8, n)
	copy(pkOrdinals, p.buf[p.pos:p.pos+n])
	p.pos += n

	nameStart := p.pos
	for p.pos < len(p.buf) && p.buf[p.pos] != 0x00 {
		p.pos++
	}
	if p.pos >= len(p.buf) {
		return nil, ErrTruncated
	}
	name := string(p.buf[nameStart:p.pos])
	p.pos++ // NUL

	table, err := schema.New(name, pkOrdinals)
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (p *parser) readRecord(ds *changeset.DiffSet, table *schema.Table) error {
	if p.pos >= len(p.buf) {
		return ErrTruncated
	}
	opcode := p.buf[p.pos]
	p.pos++
	if p.pos >= len(p.buf) {
		return ErrTruncated
	}
	p.pos++ // indirect flag, ignored

	n := table.ColumnCount()

	switch opcode {
	case opInsert:
		row, err := p.decodeRow(n)
		if err != nil {
			return err
		}
		b := changeset.NewInsert()
		for i, v := range row {
			b.Set(i, v)
		}
		pk, err := table.ExtractPK(row)
		if err != nil {
			return err
		}
		if err := p.markTouched(table, pk); err != nil {
			return err
		}
		return ds.Insert(table, b)
	case opDelete:
		row, err := p.decodeRow(n)
		if err != nil {
			return err
		}
		b := changeset.NewDelete()
		for i, v := range row {
			b.Set(i, v)
		}
		return p.routeDelete(ds, table, b, row)
	case opUpdate:
		old := make([]*value.Value, n)
		newRow := make([]*value.Value, n)
		for i := 0; i < n; i++ {
			v, consumed, err := value.Decode(p.buf[p.pos:])
			if err != nil {
				return wrapValueErr(err)
			}
			p.pos += consumed
			old[i] = v

			v2, consumed2, err := value.Decode(p.buf[p.pos:])
			if err != nil {
				return wrapValueErr(err)
			}
			p.pos += consumed2
			newRow[i] = v2
		}
		b := changeset.NewUpdate()
		for i := 0; i < n; i++ {
			b.Set(i, old[i], newRow[i])
		}
		return p.routeUpdate(ds, table, b, old)
	default:
		return fmt.Errorf("%w: %#x", ErrUnknownOpcode, opcode)
	}
}

func (p *parser) decodeRow(n int) ([]*value.Value, error) {
	row := make([]*value.Value, n)
	for i := 0; i < n; i++ {
		v, consumed, err := value.Decode(p.buf[p.pos:])
		if err != nil {
			return nil, wrapValueErr(err)
		}
		p.pos += consumed
		row[i] = v
	}
	return row, nil
}

func wrapValueErr(err error) error {
	if errors.Is(err, value.ErrUnknownTag) {
		return fmt.Errorf("%w: %v", ErrUnknownValue, err)
	}
	return ErrTruncated
}

// markTouched marks the (table,PK) pair as touched and fails with
// ErrDuplicateKey if it was already touched earlier in this parse.
func (p *parser) markTouched(table *schema.Table, pk []*value.Value) error {
	tkey := table.Key()
	rkey := rowKeyString(pk)
	if p.seen[tkey] == nil {
		p.seen[tkey] = make(map[string]bool)
	}
	if p.seen[tkey][rkey] {
		return ErrDuplicateKey
	}
	p.seen[tkey][rkey] = true
	p.order[tkey] = append(p.order[tkey], rkey)
	return nil
}

func rowKeyString(pk []*value.Value) string {
	var buf []byte
	for _, v := range pk {
		buf = value.Encode(buf, v)
	}
	return string(buf)
}

func (p *parser) routeDelete(ds *changeset.DiffSet, table *schema.Table, del *changeset.Delete, row []*value.Value) error {
	pk, err := table.ExtractPK(row)
	if err != nil {
		return err
	}
	if err := p.markTouched(table, pk); err != nil {
		return err
	}
	return ds.Delete(table, del)
}

func (p *parser) routeUpdate(ds *changeset.DiffSet, table *schema.Table, upd *changeset.Update, oldRow []*value.Value) error {
	pk, err := table.ExtractPK(oldRow)
	if err != nil {
		return err
	}
	if err := p.markTouched(table, pk); err != nil {
		return err
	}
	return ds.Update(table, upd)
}
