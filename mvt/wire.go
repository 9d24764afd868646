package mvt

import "encoding/binary"

// Protocol Buffers wire types, see https://protobuf.dev/programming-guides/encoding/
type wireType uint8

const (
	wireVarint          wireType = 0
	wireFixed64         wireType = 1
	wireLengthDelimited wireType = 2
	wireFixed32         wireType = 5
)

const maxVarintLen = 10

// reader is a cursor over a tile (sub)buffer. base is the offset of buf[0] in
// the outermost tile buffer, so that sub-readers report absolute offsets.
// The buffer is only ever read, never modified, and sub-slices are views.
type reader struct {
	buf  []byte
	off  int
	base int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

// pos is the absolute offset of the cursor in the outermost buffer.
func (r *reader) pos() int {
	return r.base + r.off
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) readVarint() (uint64, error) {
	var v uint64
	start := r.pos()
	for i := 0; ; i++ {
		if i == maxVarintLen {
			return 0, newError(VarintOverflow, start, "varint exceeds %d bytes", maxVarintLen)
		}
		if r.off >= len(r.buf) {
			return 0, newError(TruncatedInput, r.pos(), "buffer ends inside varint")
		}
		b := r.buf[r.off]
		r.off++
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b < 0x80 {
			return v, nil
		}
	}
}

func (r *reader) readZigzag() (int64, error) {
	v, err := r.readVarint()
	if err != nil {
		return 0, err
	}
	return unzigzag(v), nil
}

// unzigzag maps a zigzag-encoded unsigned integer back to a signed one.
func unzigzag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func (r *reader) readTag() (field int, wt wireType, err error) {
	start := r.pos()
	v, err := r.readVarint()
	if err != nil {
		return 0, 0, err
	}
	field = int(v >> 3)
	wt = wireType(v & 0x7)
	switch wt {
	case wireVarint, wireFixed64, wireLengthDelimited, wireFixed32:
		return field, wt, nil
	}
	return 0, 0, newError(UnknownWireType, start, "wire type %d of field %d is not supported", wt, field)
}

// readBytes reads a length-delimited field and returns the payload as a
// sub-view of the buffer together with its absolute offset. A declared length
// beyond the end of the buffer fails at the offset where the length was read.
func (r *reader) readBytes() ([]byte, int, error) {
	lenPos := r.pos()
	n, err := r.readVarint()
	if err != nil {
		return nil, 0, err
	}
	if n > uint64(r.remaining()) {
		return nil, 0, newError(TruncatedInput, lenPos, "declared length %d exceeds the %d remaining bytes", n, r.remaining())
	}
	start := r.off
	r.off += int(n)
	return r.buf[start:r.off], r.base + start, nil
}

// readSub reads a length-delimited field into a sub-reader.
func (r *reader) readSub() (*reader, error) {
	buf, base, err := r.readBytes()
	if err != nil {
		return nil, err
	}
	return &reader{buf: buf, base: base}, nil
}

func (r *reader) readFixed32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, newError(TruncatedInput, r.pos(), "buffer ends inside fixed32")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) readFixed64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, newError(TruncatedInput, r.pos(), "buffer ends inside fixed64")
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// skip advances past a field's payload without interpreting it.
// Unknown field numbers must be skipped, never treated as an error.
func (r *reader) skip(wt wireType) error {
	var err error
	switch wt {
	case wireVarint:
		_, err = r.readVarint()
	case wireFixed64:
		_, err = r.readFixed64()
	case wireLengthDelimited:
		_, _, err = r.readBytes()
	case wireFixed32:
		_, err = r.readFixed32()
	default:
		err = newError(UnknownWireType, r.pos(), "cannot skip wire type %d", wt)
	}
	return err
}
