// Package value implements the six wire types carried by changeset and
// patchset row records: Null, Integer, Real, Text, Blob, and the Undefined
// "no information" placeholder.
package value

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/k0kubun/sqlitesession/varint"
)

// ErrTruncated is returned when the input ends before a value is complete.
var ErrTruncated = errors.New("value: truncated")

// ErrUnknownTag is returned when the leading tag octet isn't one of the six
// known wire types.
var ErrUnknownTag = errors.New("value: unknown tag")

// Kind identifies which of the five concrete value cases a Value holds.
// Undefined has no Kind: it is represented by a nil *Value.
type Kind uint8

const (
	Null Kind = iota
	Integer
	Real
	Text
	Blob
)

// Wire tag octets, per the spec's value codec table.
const (
	tagUndefined byte = 0x00
	tagInteger   byte = 0x01
	tagReal      byte = 0x02
	tagText      byte = 0x03
	tagBlob      byte = 0x04
	tagNull      byte = 0x05
)

// Value is one of the five concrete wire types. A nil *Value denotes
// Undefined, which is not a value but a placeholder meaning "no
// information for this slot" and may only appear in UPDATE old-value
// slots and patchset DELETE/UPDATE non-PK slots.
type Value struct {
	kind Kind
	i    int64
	f    float64
	buf  []byte // Text or Blob payload, opaque bytes
}

// NewNull returns the SQL NULL value.
func NewNull() *Value {
	return &Value{kind: Null}
}

// NewInteger returns a signed 64-bit integer value.
func NewInteger(i int64) *Value {
	return &Value{kind: Integer, i: i}
}

// NewReal returns an IEEE-754 binary64 value, normalizing NaN to Null and
// negative zero to positive zero as the wire format requires.
func NewReal(f float64) *Value {
	if math.IsNaN(f) {
		return NewNull()
	}
	if f == 0 {
		f = 0 // collapses -0.0 to +0.0
	}
	return &Value{kind: Real, f: f}
}

// NewText returns a Text value over opaque UTF-8-on-the-wire bytes. The
// encoder does not validate UTF-8; callers that need valid text are
// responsible for that themselves.
func NewText(b []byte) *Value {
	return &Value{kind: Text, buf: b}
}

// NewBlob returns a Blob value over an arbitrary octet sequence.
func NewBlob(b []byte) *Value {
	return &Value{kind: Blob, buf: b}
}

// IsUndefined reports whether v is the Undefined placeholder.
func IsUndefined(v *Value) bool {
	return v == nil
}

// Kind returns the concrete kind of v. Calling Kind on Undefined (nil) is
// a programmer error and panics, matching the rest of the package's
// assumption that callers check IsUndefined first.
func (v *Value) Kind() Kind {
	return v.kind
}

// Int64 returns the integer payload; it is only meaningful when Kind() ==
// Integer.
func (v *Value) Int64() int64 {
	return v.i
}

// Float64 returns the real payload; it is only meaningful when Kind() ==
// Real.
func (v *Value) Float64() float64 {
	return v.f
}

// Bytes returns the Text or Blob payload; it is only meaningful when Kind()
// is Text or Blob.
func (v *Value) Bytes() []byte {
	return v.buf
}

// Equal reports value-equality per column after normalization. Real
// comparison is bitwise equality of the normalized bit pattern, per the
// spec's consolidation rules (§4.D).
func Equal(a, b *Value) bool {
	if IsUndefined(a) || IsUndefined(b) {
		return IsUndefined(a) && IsUndefined(b)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Integer:
		return a.i == b.i
	case Real:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case Text, Blob:
		return string(a.buf) == string(b.buf)
	default:
		return false
	}
}

// Encode appends the wire encoding of v (or the single Undefined octet, if
// v is nil) to dst and returns the extended slice.
func Encode(dst []byte, v *Value) []byte {
	if IsUndefined(v) {
		return append(dst, tagUndefined)
	}

	switch v.kind {
	case Null:
		return append(dst, tagNull)
	case Integer:
		dst = append(dst, tagInteger)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v.i))
		return append(dst, buf[:]...)
	case Real:
		dst = append(dst, tagReal)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.f))
		return append(dst, buf[:]...)
	case Text:
		dst = append(dst, tagText)
		dst = varint.Encode(dst, uint64(len(v.buf)))
		return append(dst, v.buf...)
	case Blob:
		dst = append(dst, tagBlob)
		dst = varint.Encode(dst, uint64(len(v.buf)))
		return append(dst, v.buf...)
	default:
		panic("value: unreachable kind")
	}
}

// Decode reads a single tagged value (or Undefined, represented as a nil
// *Value) from the front of b, returning the number of octets consumed.
func Decode(b []byte) (v *Value, n int, err error) {
	if len(b) == 0 {
		return nil, 0, ErrTruncated
	}
	tag := b[0]
	rest := b[1:]

	switch tag {
	case tagUndefined:
		return nil, 1, nil
	case tagNull:
		return NewNull(), 1, nil
	case tagInteger:
		if len(rest) < 8 {
			return nil, 0, ErrTruncated
		}
		i := int64(binary.BigEndian.Uint64(rest[:8]))
		return NewInteger(i), 9, nil
	case tagReal:
		if len(rest) < 8 {
			return nil, 0, ErrTruncated
		}
		bits := binary.BigEndian.Uint64(rest[:8])
		return NewReal(math.Float64frombits(bits)), 9, nil
	case tagText, tagBlob:
		length, ln, err := varint.Decode(rest)
		if err != nil {
			return nil, 0, ErrTruncated
		}
		rest = rest[ln:]
		if uint64(len(rest)) < length {
			return nil, 0, ErrTruncated
		}
		payload := make([]byte, length)
		copy(payload, rest[:length])
		consumed := 1 + ln + int(length)
		if tag == tagText {
			return NewText(payload), consumed, nil
		}
		return NewBlob(payload), consumed, nil
	default:
		return nil, 0, ErrUnknownTag
	}
}
