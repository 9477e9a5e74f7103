// Package varint implements the big-endian, 7-bit-continuation integer
// encoding used to prefix variable-length fields (text/blob byte lengths)
// in the session-extension wire formats, and to canonicalize PK values for
// the row-emission hash (see package changeset).
//
// The encoding matches the session extension's own varint routines: the
// first eight octets each carry 7 payload bits with the top bit signaling
// continuation, and a ninth octet (reached only once the first eight are
// exhausted) carries the remaining 8 bits outright. This is what lets every
// uint64 round-trip in at most nine octets, and why no input can encode a
// magnitude wider than 64 bits.
package varint

import "errors"

// ErrTruncated is returned when the input ends before a varint is complete.
var ErrTruncated = errors.New("varint: truncated")

// ErrOverflow names a varint whose magnitude would be wider than 64 bits.
// Decode never returns it: the ninth octet always ends a varint and
// carries its last 8 bits, so at most 64 bits are ever read.
var ErrOverflow = errors.New("varint: overflow")

// MaxLen is the maximum number of octets a single varint occupies.
const MaxLen = 9

// Encode appends the shortest-form varint encoding of v to dst and returns
// the extended slice.
func Encode(dst []byte, v uint64) []byte {
	if v&0xff00000000000000 != 0 {
		// Top octet is non-empty: the 7-bit continuation scheme can't fit
		// all 64 bits in eight octets, so the ninth octet carries the low
		// 8 bits verbatim and the first eight carry the rest 7 bits at a
		// time, most-significant first.
		var buf [9]byte
		buf[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			buf[i] = byte(v&0x7f) | 0x80
			v >>= 7
		}
		return append(dst, buf[:]...)
	}

	var tmp [8]byte
	n := 0
	for {
		tmp[n] = byte(v & 0x7f)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	for i := n - 1; i >= 0; i-- {
		b := tmp[i]
		if i != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// Decode reads a single varint from the front of b, returning the decoded
// magnitude and the number of octets consumed.
func Decode(b []byte) (value uint64, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}

	var v uint64
	for i := 0; i < MaxLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]

		if i == MaxLen-1 {
			// Ninth octet: the remaining 8 bits, no continuation bit.
			return (v << 8) | uint64(c), MaxLen, nil
		}

		v = (v << 7) | uint64(c&0x7f)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	// Unreachable: the loop always returns by i == MaxLen-1.
	return 0, 0, ErrOverflow
}

// Len returns the number of octets Encode(nil, v) would produce.
func Len(v uint64) int {
	if v&0xff00000000000000 != 0 {
		return 9
	}
	n := 1
	v >>= 7
	for v != 0 {
		n++
		v >>= 7
	}
	return n
}
