// Package report renders decoded tiles as terminal-friendly text.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
	"github.com/umpc/go-sortedmap"
	"golang.org/x/exp/constraints"

	"github.com/vesseltrace/tilecat/mvt"
)

// Summary writes a per-layer overview of the tile: layer metadata, a sample
// of up to maxFeatures features with their properties, and any decode
// warnings. maxFeatures <= 0 prints every feature.
func Summary(w io.Writer, tile *mvt.Tile, maxFeatures int) {
	fmt.Fprintf(w, "tile: %d layer(s), %d feature(s)\n", len(tile.Layers), tile.NumFeatures())
	for _, layer := range tile.Layers {
		fmt.Fprintf(w, "\nlayer %q (version %d, extent %d): %d feature(s)\n",
			layer.Name, layer.Version, layer.Extent, len(layer.Features))
		shown := len(layer.Features)
		if maxFeatures > 0 {
			shown = bounded(shown, maxFeatures)
		}
		for _, feature := range layer.Features[:shown] {
			fmt.Fprintf(w, "  %s %s", featureID(feature), feature.Type)
			if coord, ok := sampleCoord(feature.Geometry); ok {
				fmt.Fprintf(w, " @ (%d, %d)", coord[0], coord[1])
			}
			if props, err := json.Marshal(feature.Properties); err == nil {
				fmt.Fprintf(w, " %s", props)
			}
			fmt.Fprintln(w)
		}
		if omitted := len(layer.Features) - shown; omitted > 0 {
			fmt.Fprintf(w, "  ... %d more feature(s) omitted ...\n", omitted)
		}
	}
	if len(tile.Warnings) > 0 {
		fmt.Fprintf(w, "\n%d warning(s):\n", len(tile.Warnings))
		for _, warning := range tile.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
}

// Fields writes one line per feature listing the requested property values,
// skipping names the feature does not carry.
func Fields(w io.Writer, tile *mvt.Tile, names ...string) {
	for _, layer := range tile.Layers {
		for _, feature := range layer.Features {
			line := layer.Name
			for _, name := range names {
				if value, ok := feature.Properties.Get(name); ok {
					line += fmt.Sprintf(" | %s=%v", name, value)
				}
			}
			fmt.Fprintln(w, line)
		}
	}
}

// Geometries writes the WKT of up to maxFeatures features per layer, each
// line truncated to width characters. width 0 disables truncation.
func Geometries(w io.Writer, tile *mvt.Tile, maxFeatures int, width uint) {
	for _, layer := range tile.Layers {
		shown := len(layer.Features)
		if maxFeatures > 0 {
			shown = bounded(shown, maxFeatures)
		}
		for _, feature := range layer.Features[:shown] {
			s := "<none>"
			if g := asGeom(feature.Geometry); g != nil {
				s = wktTruncated(g, width)
			}
			fmt.Fprintf(w, "%s %s %s\n", layer.Name, featureID(feature), s)
		}
	}
}

// KeyCount is a property key with the number of features carrying it.
type KeyCount struct {
	Key   string
	Count int
}

// TopKeys returns the n most used property keys across all layers, most
// frequent first and ties broken alphabetically.
func TopKeys(tile *mvt.Tile, n int) []KeyCount {
	counts := map[string]int{}
	for _, layer := range tile.Layers {
		for _, feature := range layer.Features {
			for pair := feature.Properties.Oldest(); pair != nil; pair = pair.Next() {
				counts[pair.Key]++
			}
		}
	}

	ranked := sortedmap.New(len(counts), func(x, y interface{}) bool {
		a, b := x.(KeyCount), y.(KeyCount)
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})
	for key, count := range counts {
		ranked.Insert(key, KeyCount{Key: key, Count: count})
	}

	values := ranked.Map()
	top := make([]KeyCount, 0, bounded(len(counts), n))
	for _, key := range ranked.Keys() {
		if len(top) == n {
			break
		}
		top = append(top, values[key].(KeyCount))
	}
	return top
}

func featureID(feature *mvt.Feature) string {
	if feature.ID == nil {
		return "#-"
	}
	return fmt.Sprintf("#%d", *feature.ID)
}

// sampleCoord picks the first coordinate of a geometry for display.
func sampleCoord(g mvt.Geometry) ([2]int64, bool) {
	switch g := g.(type) {
	case mvt.MultiPoint:
		if len(g) > 0 {
			return g[0], true
		}
	case mvt.MultiLineString:
		if len(g) > 0 && len(g[0]) > 0 {
			return g[0][0], true
		}
	case mvt.MultiPolygon:
		for _, polygon := range g {
			if len(polygon.Exterior) > 0 {
				return polygon.Exterior[0], true
			}
			for _, hole := range polygon.Holes {
				if len(hole) > 0 {
					return hole[0], true
				}
			}
		}
	}
	return [2]int64{}, false
}

func asGeom(g mvt.Geometry) geom.Geometry {
	switch g := g.(type) {
	case mvt.MultiPoint:
		return g.AsGeom()
	case mvt.MultiLineString:
		return g.AsGeom()
	case mvt.MultiPolygon:
		return g.AsGeom()
	}
	return nil
}

func wktTruncated(g geom.Geometry, width uint) string {
	if width == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), width, "...")
}

func bounded[T constraints.Ordered](v, limit T) T {
	if v > limit {
		return limit
	}
	return v
}
