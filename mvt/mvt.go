// Package mvt decodes Mapbox Vector Tile buffers into typed tiles without a
// generated protobuf schema: a plain wire-format reader walks the buffer and
// skips every field it does not know, so tiles from newer producers keep
// decoding. Coordinates stay in the layer's extent-relative integer space;
// reprojection is a concern of the caller.
package mvt

import "fmt"

// Field number of the repeated Layer field in the Tile message.
const tileLayerField = 3

// Tile is the decoded form of one vector tile buffer. Layers keep the order
// in which they appear in the buffer; that order carries rendering priority.
// Warnings collects non-fatal oddities encountered while decoding.
type Tile struct {
	Layers   []*Layer
	Warnings []string
}

// Unmarshal decodes a tile buffer. The buffer is not retained or modified.
// An empty buffer yields a tile with zero layers. On failure the returned
// error is an *Error carrying the kind and the absolute byte offset of the
// failure; no partial tile is returned, a corrupt tile likely means a corrupt
// or truncated transfer and should be refetched.
func Unmarshal(data []byte) (*Tile, error) {
	tile := &Tile{}
	r := newReader(data)
	for r.remaining() > 0 {
		field, wt, err := r.readTag()
		if err != nil {
			return nil, err
		}
		if field != tileLayerField || wt != wireLengthDelimited {
			if err := r.skip(wt); err != nil {
				return nil, err
			}
			continue
		}
		sub, err := r.readSub()
		if err != nil {
			return nil, err
		}
		layer, warnings, err := decodeLayer(sub)
		if err != nil {
			return nil, err
		}
		tile.Layers = append(tile.Layers, layer)
		for _, w := range warnings {
			tile.Warnings = append(tile.Warnings, fmt.Sprintf("layer %q: %s", layer.Name, w))
		}
	}
	return tile, nil
}

// Layer returns the first layer with the given name, or nil.
func (t *Tile) Layer(name string) *Layer {
	for _, layer := range t.Layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

// NumFeatures is the total feature count over all layers.
func (t *Tile) NumFeatures() int {
	n := 0
	for _, layer := range t.Layers {
		n += len(layer.Features)
	}
	return n
}
