package mvt

import "fmt"

// ErrorKind classifies decode failures.
type ErrorKind int

const (
	TruncatedInput ErrorKind = iota
	VarintOverflow
	UnknownWireType
	MalformedString
	MalformedLayer
	MalformedFeature
	MalformedGeometry
)

func (k ErrorKind) String() string {
	switch k {
	case TruncatedInput:
		return "truncated input"
	case VarintOverflow:
		return "varint overflow"
	case UnknownWireType:
		return "unknown wire type"
	case MalformedString:
		return "malformed string"
	case MalformedLayer:
		return "malformed layer"
	case MalformedFeature:
		return "malformed feature"
	case MalformedGeometry:
		return "malformed geometry"
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is a structured decode error. Offset is the absolute byte offset in
// the tile buffer at which decoding failed, also for errors raised while
// reading a nested submessage.
type Error struct {
	Kind   ErrorKind
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mvt: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

func newError(kind ErrorKind, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
