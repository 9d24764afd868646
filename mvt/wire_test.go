package mvt

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_readVarint_roundTrip(t *testing.T) {
	tests := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1 << 32, math.MaxUint64 - 1, math.MaxUint64}
	for _, want := range tests {
		r := newReader(appendUvarint(nil, want))
		got, err := r.readVarint()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, 0, r.remaining())
	}
}

func Test_readVarint_truncated(t *testing.T) {
	r := newReader([]byte{0x80, 0x80})
	_, err := r.readVarint()
	var decodeErr *Error
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, TruncatedInput, decodeErr.Kind)
}

func Test_readVarint_overflow(t *testing.T) {
	buf := make([]byte, 11)
	for i := range buf {
		buf[i] = 0x80
	}
	buf[10] = 0x01
	r := newReader(buf)
	_, err := r.readVarint()
	var decodeErr *Error
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, VarintOverflow, decodeErr.Kind)
	assert.Equal(t, 0, decodeErr.Offset)
}

func Test_readZigzag_roundTrip(t *testing.T) {
	tests := []int64{0, -1, 1, 2, -2, 63, -64, 4096, -4096, math.MaxInt64, math.MinInt64}
	for _, want := range tests {
		r := newReader(appendUvarint(nil, zigzagEncode(want)))
		got, err := r.readZigzag()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func Test_readTag(t *testing.T) {
	r := newReader(appendTag(nil, 3, wireLengthDelimited))
	field, wt, err := r.readTag()
	require.NoError(t, err)
	assert.Equal(t, 3, field)
	assert.Equal(t, wireLengthDelimited, wt)
}

func Test_readTag_unknownWireType(t *testing.T) {
	for _, wt := range []uint64{3, 4, 6, 7} {
		r := newReader(appendUvarint(nil, 1<<3|wt))
		_, _, err := r.readTag()
		var decodeErr *Error
		require.ErrorAs(t, err, &decodeErr, "wire type %d", wt)
		assert.Equal(t, UnknownWireType, decodeErr.Kind)
	}
}

func Test_readBytes_truncated(t *testing.T) {
	// length 5 declared, 2 bytes remain; must fail at the offset of the length
	r := newReader(append(appendUvarint(nil, 5), 0x01, 0x02))
	_, _, err := r.readBytes()
	var decodeErr *Error
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, TruncatedInput, decodeErr.Kind)
	assert.Equal(t, 0, decodeErr.Offset)
}

func Test_readBytes_subView(t *testing.T) {
	b := appendBytesField(nil, 7, []byte("payload"))
	r := newReader(b)
	_, wt, err := r.readTag()
	require.NoError(t, err)
	require.Equal(t, wireLengthDelimited, wt)
	payload, base, err := r.readBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)
	assert.Equal(t, 2, base)
	assert.Equal(t, 0, r.remaining())
}

func Test_skip_allWireTypes(t *testing.T) {
	b := appendVarintField(nil, 1, 300)
	b = appendTag(b, 2, wireFixed64)
	b = binary.LittleEndian.AppendUint64(b, 7)
	b = appendBytesField(b, 3, []byte("abc"))
	b = appendTag(b, 4, wireFixed32)
	b = binary.LittleEndian.AppendUint32(b, 7)
	b = appendVarintField(b, 5, 42)

	r := newReader(b)
	for i := 0; i < 4; i++ {
		_, wt, err := r.readTag()
		require.NoError(t, err)
		require.NoError(t, r.skip(wt))
	}
	field, _, err := r.readTag()
	require.NoError(t, err)
	assert.Equal(t, 5, field)
	v, err := r.readVarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
	assert.Equal(t, 0, r.remaining())
}
