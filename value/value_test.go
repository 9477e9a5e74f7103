package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []*Value{
		nil, // Undefined
		NewNull(),
		NewInteger(0),
		NewInteger(-1),
		NewInteger(math.MinInt64),
		NewInteger(math.MaxInt64),
		NewReal(0),
		NewReal(3.5),
		NewReal(-3.5),
		NewText(nil),
		NewText([]byte("Alice")),
		NewBlob([]byte{0x00, 0x01, 0xff}),
	}
	for _, v := range values {
		enc := Encode(nil, v)
		got, n, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, len(enc), n)
		assert.True(t, Equal(v, got))
	}
}

func TestUndefinedWireForm(t *testing.T) {
	assert.Equal(t, []byte{0x00}, Encode(nil, nil))
}

func TestTagBytes(t *testing.T) {
	assert.Equal(t, byte(0x01), Encode(nil, NewInteger(1))[0])
	assert.Equal(t, byte(0x02), Encode(nil, NewReal(1))[0])
	assert.Equal(t, byte(0x03), Encode(nil, NewText([]byte("x")))[0])
	assert.Equal(t, byte(0x04), Encode(nil, NewBlob([]byte("x")))[0])
	assert.Equal(t, byte(0x05), Encode(nil, NewNull())[0])
}

func TestIntegerWireIsBigEndianTwosComplement(t *testing.T) {
	enc := Encode(nil, NewInteger(1))
	assert.Equal(t, []byte{0x01, 0, 0, 0, 0, 0, 0, 0, 1}, enc)
}

func TestNaNNormalizesToNull(t *testing.T) {
	v := NewReal(math.NaN())
	assert.Equal(t, Null, v.Kind())

	enc := []byte{0x02}
	var buf [8]byte
	nanBits := math.Float64bits(math.NaN())
	for i := 0; i < 8; i++ {
		buf[i] = byte(nanBits >> (56 - 8*i))
	}
	enc = append(enc, buf[:]...)

	decoded, n, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, Null, decoded.Kind())
}

func TestNegativeZeroNormalizesToPositiveZero(t *testing.T) {
	decoded, _, err := Decode(Encode(nil, &Value{kind: Real, f: math.Copysign(0, -1)}))
	require.NoError(t, err)
	assert.Equal(t, Real, decoded.Kind())
	assert.Equal(t, uint64(0), math.Float64bits(decoded.Float64()))
}

func TestEqualityUndefinedIsNotNull(t *testing.T) {
	assert.False(t, Equal(nil, NewNull()))
	assert.True(t, Equal(nil, nil))
}

func TestEqualityRealIsBitwise(t *testing.T) {
	assert.True(t, Equal(NewReal(1.5), NewReal(1.5)))
	assert.False(t, Equal(NewReal(1.5), NewReal(1.50000001)))
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = Decode([]byte{0x01, 0, 0, 0})
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = Decode([]byte{0x03, 0x05, 'A', 'l'})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeUnknownTag(t *testing.T) {
	_, _, err := Decode([]byte{0xaa})
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestTextZeroLengthAndLarge(t *testing.T) {
	empty := NewText(nil)
	enc := Encode(nil, empty)
	decoded, n, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, 2, n) // tag + single-byte length 0
	assert.Equal(t, []byte{}, decoded.Bytes())

	big := make([]byte, 3*1024*1024)
	for i := range big {
		big[i] = byte(i)
	}
	enc = Encode(nil, NewText(big))
	decoded, _, err = Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, big, decoded.Bytes())
}
