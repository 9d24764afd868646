package mvt

import (
	"encoding/binary"
	"math"
)

// Wire building helpers so the tests do not depend on a protobuf encoder.

func appendUvarint(b []byte, v uint64) []byte {
	for v >= 0x80 {
		b = append(b, byte(v)|0x80)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendTag(b []byte, field int, wt wireType) []byte {
	return appendUvarint(b, uint64(field)<<3|uint64(wt))
}

func appendVarintField(b []byte, field int, v uint64) []byte {
	b = appendTag(b, field, wireVarint)
	return appendUvarint(b, v)
}

func appendBytesField(b []byte, field int, payload []byte) []byte {
	b = appendTag(b, field, wireLengthDelimited)
	b = appendUvarint(b, uint64(len(payload)))
	return append(b, payload...)
}

func appendStringField(b []byte, field int, s string) []byte {
	return appendBytesField(b, field, []byte(s))
}

func packedUint32(vals ...uint32) []byte {
	var b []byte
	for _, v := range vals {
		b = appendUvarint(b, uint64(v))
	}
	return b
}

func zigzagEncode(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// cmd builds a geometry command integer.
func cmd(id, count uint32) uint32 {
	return id&0x7 | count<<3
}

// zz builds a zigzag-encoded geometry parameter.
func zz(v int64) uint32 {
	return uint32(zigzagEncode(v))
}

// Value message builders.

func stringValue(s string) []byte {
	return appendStringField(nil, valueString, s)
}

func floatValue(f float32) []byte {
	b := appendTag(nil, valueFloat, wireFixed32)
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
}

func doubleValue(f float64) []byte {
	b := appendTag(nil, valueDouble, wireFixed64)
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(f))
}

func intValue(v int64) []byte {
	return appendVarintField(nil, valueInt, uint64(v))
}

func uintValue(v uint64) []byte {
	return appendVarintField(nil, valueUint, v)
}

func sintValue(v int64) []byte {
	return appendVarintField(nil, valueSint, zigzagEncode(v))
}

func boolValue(v bool) []byte {
	var u uint64
	if v {
		u = 1
	}
	return appendVarintField(nil, valueBool, u)
}

// Feature and Layer message builders.

type testFeature struct {
	id     *uint64
	tags   []uint32
	gtype  uint64
	stream []uint32
}

func (f testFeature) encode() []byte {
	var b []byte
	if f.id != nil {
		b = appendVarintField(b, featureID, *f.id)
	}
	if f.tags != nil {
		b = appendBytesField(b, featureTags, packedUint32(f.tags...))
	}
	b = appendVarintField(b, featureType, f.gtype)
	if f.stream != nil {
		b = appendBytesField(b, featureGeometry, packedUint32(f.stream...))
	}
	return b
}

type testLayer struct {
	name       string
	noName     bool
	version    uint64
	extent     uint64
	keys       []string
	values     [][]byte
	features   []testFeature
	tablesLast bool // emit keys/values after the features
}

func (l testLayer) encode() []byte {
	var b []byte
	if !l.noName {
		b = appendStringField(b, layerName, l.name)
	}
	if l.version != 0 {
		b = appendVarintField(b, layerVersion, l.version)
	}
	if l.extent != 0 {
		b = appendVarintField(b, layerExtent, l.extent)
	}
	tables := func() {
		for _, k := range l.keys {
			b = appendStringField(b, layerKeys, k)
		}
		for _, v := range l.values {
			b = appendBytesField(b, layerValues, v)
		}
	}
	if !l.tablesLast {
		tables()
	}
	for _, f := range l.features {
		b = appendBytesField(b, layerFeatures, f.encode())
	}
	if l.tablesLast {
		tables()
	}
	return b
}

func tileBytes(layers ...testLayer) []byte {
	var b []byte
	for _, l := range layers {
		b = appendBytesField(b, tileLayerField, l.encode())
	}
	return b
}

func uint64ptr(v uint64) *uint64 {
	return &v
}

// squareStream is the command stream for an exterior unit-10 square starting
// at the cursor, leaving the cursor at (0, 10) relative to its start.
func squareStream() []uint32 {
	return []uint32{
		cmd(cmdMoveTo, 1), zz(0), zz(0),
		cmd(cmdLineTo, 3), zz(10), zz(0), zz(0), zz(10), zz(-10), zz(0),
		cmd(cmdClosePath, 1),
	}
}

// holeStream is a reverse-wound inner square, cursor starting at (0, 10).
func holeStream() []uint32 {
	return []uint32{
		cmd(cmdMoveTo, 1), zz(2), zz(-8),
		cmd(cmdLineTo, 3), zz(0), zz(6), zz(6), zz(0), zz(0), zz(-6),
		cmd(cmdClosePath, 1),
	}
}
