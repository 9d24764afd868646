package mvt

import "github.com/go-spatial/geom"

// Conversions to the floating point go-spatial/geom types, for consumers like
// the wkt encoder. Coordinates stay in the layer's extent-relative space.

func (p MultiPoint) AsGeom() geom.MultiPoint {
	return geom.MultiPoint(floatPoints(p))
}

func (l MultiLineString) AsGeom() geom.MultiLineString {
	lines := make([][][2]float64, len(l))
	for i, line := range l {
		lines[i] = floatPoints(line)
	}
	return geom.MultiLineString(lines)
}

func (p MultiPolygon) AsGeom() geom.MultiPolygon {
	polygons := make([][][][2]float64, len(p))
	for i, polygon := range p {
		rings := make([][][2]float64, 0, len(polygon.Holes)+1)
		if polygon.Exterior != nil {
			rings = append(rings, floatPoints(polygon.Exterior))
		}
		for _, hole := range polygon.Holes {
			rings = append(rings, floatPoints(hole))
		}
		polygons[i] = rings
	}
	return geom.MultiPolygon(polygons)
}

func floatPoints(points [][2]int64) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{float64(p[0]), float64(p[1])}
	}
	return out
}
