package mvt

import "math"

// Field numbers of the Value message.
const (
	valueString = 1
	valueFloat  = 2
	valueDouble = 3
	valueInt    = 4
	valueUint   = 5
	valueSint   = 6
	valueBool   = 7
)

// decodeValue interprets a Value submessage into one of string, float32,
// float64, int64, uint64 or bool. A well-formed Value carries exactly one
// field; if several are present the last one wins, and a Value without any
// recognized field yields nil. Unrecognized fields are skipped.
func decodeValue(r *reader) (any, error) {
	var v any
	for r.remaining() > 0 {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch {
		case field == valueString && wt == wireLengthDelimited:
			b, _, err := r.readBytes()
			if err != nil {
				return nil, err
			}
			v = string(b)
		case field == valueFloat && wt == wireFixed32:
			bits, err := r.readFixed32()
			if err != nil {
				return nil, err
			}
			v = math.Float32frombits(bits)
		case field == valueDouble && wt == wireFixed64:
			bits, err := r.readFixed64()
			if err != nil {
				return nil, err
			}
			v = math.Float64frombits(bits)
		case field == valueInt && wt == wireVarint:
			u, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			v = int64(u)
		case field == valueUint && wt == wireVarint:
			u, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			v = u
		case field == valueSint && wt == wireVarint:
			i, err := r.readZigzag()
			if err != nil {
				return nil, err
			}
			v = i
		case field == valueBool && wt == wireVarint:
			u, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			v = u != 0
		default:
			if err := r.skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}
