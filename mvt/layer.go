package mvt

import (
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field numbers of the Layer message.
const (
	layerName     = 1
	layerFeatures = 2
	layerKeys     = 3
	layerValues   = 4
	layerExtent   = 5
	layerVersion  = 15
)

// Field numbers of the Feature message.
const (
	featureID       = 1
	featureTags     = 2
	featureType     = 3
	featureGeometry = 4
)

const (
	defaultVersion = 1
	defaultExtent  = 4096
)

// Layer is one named layer of a tile. Keys and Values are the shared tables
// the features' tag indices dereference into; they are kept as decoded for
// callers that want to inspect them.
type Layer struct {
	Name     string
	Version  uint64
	Extent   uint64
	Keys     []string
	Values   []any
	Features []*Feature
}

// Feature is a single decoded feature. ID is nil when the feature carries no
// id, which is distinct from an explicit zero. Properties preserves the tag
// order of the feature; a key index appearing twice means last write wins.
type Feature struct {
	ID         *uint64
	Type       GeomType
	Geometry   Geometry
	Properties *orderedmap.OrderedMap[string, any]
}

// rawFeature keeps the integer tag indices and the undecoded command stream
// until the whole layer has been scanned. Field order in a layer is
// arbitrary, so keys and values may appear after the features referencing
// them; dereferencing is deferred until the full layer has been read.
type rawFeature struct {
	id         *uint64
	geomType   GeomType
	tags       []uint64
	stream     []uint32
	offset     int // absolute offset of the feature submessage
	geomOffset int // absolute offset of the first geometry field
}

func decodeLayer(r *reader) (*Layer, []string, error) {
	layerStart := r.pos()
	layer := &Layer{Version: defaultVersion, Extent: defaultExtent}
	nameSeen := false
	var raws []*rawFeature

	for r.remaining() > 0 {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, nil, err
		}
		switch {
		case field == layerName && wt == wireLengthDelimited:
			b, off, err := r.readBytes()
			if err != nil {
				return nil, nil, err
			}
			if !utf8.Valid(b) {
				return nil, nil, newError(MalformedString, off, "layer name is not valid UTF-8")
			}
			layer.Name = string(b)
			nameSeen = true
		case field == layerFeatures && wt == wireLengthDelimited:
			sub, err := r.readSub()
			if err != nil {
				return nil, nil, err
			}
			raw, err := decodeRawFeature(sub)
			if err != nil {
				return nil, nil, err
			}
			raws = append(raws, raw)
		case field == layerKeys && wt == wireLengthDelimited:
			b, off, err := r.readBytes()
			if err != nil {
				return nil, nil, err
			}
			if !utf8.Valid(b) {
				return nil, nil, newError(MalformedString, off, "layer key %d is not valid UTF-8", len(layer.Keys))
			}
			layer.Keys = append(layer.Keys, string(b))
		case field == layerValues && wt == wireLengthDelimited:
			sub, err := r.readSub()
			if err != nil {
				return nil, nil, err
			}
			v, err := decodeValue(sub)
			if err != nil {
				return nil, nil, err
			}
			layer.Values = append(layer.Values, v)
		case field == layerVersion && wt == wireVarint:
			v, err := r.readVarint()
			if err != nil {
				return nil, nil, err
			}
			layer.Version = v
		case field == layerExtent && wt == wireVarint:
			v, err := r.readVarint()
			if err != nil {
				return nil, nil, err
			}
			layer.Extent = v
		default:
			if err := r.skip(wt); err != nil {
				return nil, nil, err
			}
		}
	}

	if !nameSeen || layer.Name == "" {
		return nil, nil, newError(MalformedLayer, layerStart, "layer has no name")
	}

	// The tables are complete now, resolve the features.
	var warnings []string
	layer.Features = make([]*Feature, 0, len(raws))
	for _, raw := range raws {
		feature, w, err := raw.resolve(layer)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		layer.Features = append(layer.Features, feature)
	}
	return layer, warnings, nil
}

// decodeRawFeature reads a Feature submessage without dereferencing anything.
// The tags and geometry fields are accepted both packed (length-delimited)
// and unpacked (one varint per field occurrence), as any protobuf reader must.
func decodeRawFeature(r *reader) (*rawFeature, error) {
	raw := &rawFeature{offset: r.pos()}
	for r.remaining() > 0 {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		switch {
		case field == featureID && wt == wireVarint:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			id := v
			raw.id = &id
		case field == featureTags && wt == wireLengthDelimited:
			sub, err := r.readSub()
			if err != nil {
				return nil, err
			}
			for sub.remaining() > 0 {
				v, err := sub.readVarint()
				if err != nil {
					return nil, err
				}
				raw.tags = append(raw.tags, v)
			}
		case field == featureTags && wt == wireVarint:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			raw.tags = append(raw.tags, v)
		case field == featureType && wt == wireVarint:
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			raw.geomType = geomTypeFromWire(v)
		case field == featureGeometry && wt == wireLengthDelimited:
			if raw.stream == nil {
				raw.geomOffset = r.pos()
			}
			sub, err := r.readSub()
			if err != nil {
				return nil, err
			}
			for sub.remaining() > 0 {
				v, err := sub.readVarint()
				if err != nil {
					return nil, err
				}
				raw.stream = append(raw.stream, uint32(v))
			}
		case field == featureGeometry && wt == wireVarint:
			if raw.stream == nil {
				raw.geomOffset = r.pos()
			}
			v, err := r.readVarint()
			if err != nil {
				return nil, err
			}
			raw.stream = append(raw.stream, uint32(v))
		default:
			if err := r.skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return raw, nil
}

// resolve dereferences the tag indices through the layer's tables and
// assembles the geometry. Out-of-bounds indices are a decode error, not a
// silent default.
func (raw *rawFeature) resolve(layer *Layer) (*Feature, []string, error) {
	if len(raw.tags)%2 != 0 {
		return nil, nil, newError(MalformedFeature, raw.offset, "feature has %d tag indices, tags must come in pairs", len(raw.tags))
	}
	properties := orderedmap.New[string, any]()
	for i := 0; i < len(raw.tags); i += 2 {
		keyIdx, valueIdx := raw.tags[i], raw.tags[i+1]
		if keyIdx >= uint64(len(layer.Keys)) {
			return nil, nil, newError(MalformedFeature, raw.offset, "tag key index %d out of bounds, layer has %d keys", keyIdx, len(layer.Keys))
		}
		if valueIdx >= uint64(len(layer.Values)) {
			return nil, nil, newError(MalformedFeature, raw.offset, "tag value index %d out of bounds, layer has %d values", valueIdx, len(layer.Values))
		}
		properties.Set(layer.Keys[keyIdx], layer.Values[valueIdx])
	}

	feature := &Feature{ID: raw.id, Type: raw.geomType, Properties: properties}
	if raw.geomType == GeomUnknown {
		// The command stream cannot be interpreted without a known type.
		return feature, nil, nil
	}
	geometry, warnings, err := assembleGeometry(raw.geomType, raw.stream, raw.geomOffset)
	if err != nil {
		return nil, nil, err
	}
	feature.Geometry = geometry
	return feature, warnings, nil
}
