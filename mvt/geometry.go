package mvt

// GeomType mirrors the geometry type enum of the tile format.
type GeomType uint32

const (
	GeomUnknown    GeomType = 0
	GeomPoint      GeomType = 1
	GeomLineString GeomType = 2
	GeomPolygon    GeomType = 3
)

func (t GeomType) String() string {
	switch t {
	case GeomPoint:
		return "Point"
	case GeomLineString:
		return "LineString"
	case GeomPolygon:
		return "Polygon"
	}
	return "Unknown"
}

// geomTypeFromWire maps unrecognized values to GeomUnknown instead of
// failing, so tiles from newer producers still decode.
func geomTypeFromWire(v uint64) GeomType {
	switch GeomType(v) {
	case GeomPoint, GeomLineString, GeomPolygon:
		return GeomType(v)
	}
	return GeomUnknown
}

// Geometry is one of MultiPoint, MultiLineString or MultiPolygon.
// Coordinates are in the layer's extent-relative integer space.
type Geometry interface {
	Type() GeomType
}

// Ring is a sequence of points forming a linear ring. The closing point
// equals the first one and is not stored.
type Ring [][2]int64

type MultiPoint [][2]int64

type MultiLineString [][][2]int64

// Polygon has one exterior ring and zero or more holes. Exterior is nil for
// the degenerate case of a hole appearing before any exterior ring.
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

type MultiPolygon []Polygon

func (MultiPoint) Type() GeomType      { return GeomPoint }
func (MultiLineString) Type() GeomType { return GeomLineString }
func (MultiPolygon) Type() GeomType    { return GeomPolygon }

// Geometry command ids, encoded in the low 3 bits of a command integer.
const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// geomAssembler walks a feature's geometry command stream. The (x, y) cursor
// is reset once per feature, not per ring or part.
type geomAssembler struct {
	stream []uint32
	i      int
	x, y   int64
	offset int // absolute offset of the geometry field, for errors
}

// assembleGeometry reconstructs the Geometry variant matching gt from the raw
// command stream. Besides a fatal error it can return non-fatal warnings (a
// hole appearing before any exterior ring).
func assembleGeometry(gt GeomType, stream []uint32, offset int) (Geometry, []string, error) {
	a := &geomAssembler{stream: stream, offset: offset}
	switch gt {
	case GeomPoint:
		points, err := a.points()
		return points, nil, err
	case GeomLineString:
		lines, err := a.lineStrings()
		return lines, nil, err
	case GeomPolygon:
		return a.polygons()
	}
	return nil, nil, nil
}

func (a *geomAssembler) done() bool {
	return a.i >= len(a.stream)
}

// command decomposes the next stream integer. Callers check done() first.
func (a *geomAssembler) command() (id, count uint32) {
	c := a.stream[a.i]
	a.i++
	return c & 0x7, c >> 3
}

// pair consumes one zigzag-encoded delta pair and moves the cursor.
func (a *geomAssembler) pair() ([2]int64, error) {
	if len(a.stream)-a.i < 2 {
		return [2]int64{}, a.errf("coordinate pair needs 2 integers, %d remain", len(a.stream)-a.i)
	}
	a.x += unzigzag(uint64(a.stream[a.i]))
	a.y += unzigzag(uint64(a.stream[a.i+1]))
	a.i += 2
	return [2]int64{a.x, a.y}, nil
}

func (a *geomAssembler) errf(format string, args ...any) error {
	return newError(MalformedGeometry, a.offset, format, args...)
}

func (a *geomAssembler) points() (MultiPoint, error) {
	var points MultiPoint
	for !a.done() {
		id, count := a.command()
		if id != cmdMoveTo {
			return nil, a.errf("point geometry allows only MoveTo, got command %d", id)
		}
		if count == 0 {
			return nil, a.errf("MoveTo with count 0")
		}
		for j := uint32(0); j < count; j++ {
			p, err := a.pair()
			if err != nil {
				return nil, err
			}
			points = append(points, p)
		}
	}
	return points, nil
}

func (a *geomAssembler) lineStrings() (MultiLineString, error) {
	var lines MultiLineString
	for !a.done() {
		id, count := a.command()
		if id != cmdMoveTo || count != 1 {
			return nil, a.errf("linestring must start with MoveTo(1), got command %d with count %d", id, count)
		}
		first, err := a.pair()
		if err != nil {
			return nil, err
		}
		if a.done() {
			return nil, a.errf("linestring ends after MoveTo")
		}
		id, count = a.command()
		if id != cmdLineTo || count == 0 {
			return nil, a.errf("linestring MoveTo must be followed by LineTo, got command %d with count %d", id, count)
		}
		line := make([][2]int64, 0, count+1)
		line = append(line, first)
		for j := uint32(0); j < count; j++ {
			p, err := a.pair()
			if err != nil {
				return nil, err
			}
			line = append(line, p)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// polygons groups rings into polygons by winding: a ring with positive signed
// area starts a new polygon, a non-positive one is a hole attached to the
// most recently started polygon. A hole before any exterior ring becomes a
// degenerate polygon without exterior, with a warning, to not discard data.
func (a *geomAssembler) polygons() (MultiPolygon, []string, error) {
	var polygons MultiPolygon
	var warnings []string
	for !a.done() {
		ring, err := a.ring()
		if err != nil {
			return nil, nil, err
		}
		if signedArea(ring) > 0 {
			polygons = append(polygons, Polygon{Exterior: ring})
			continue
		}
		if len(polygons) == 0 {
			warnings = append(warnings, "interior ring before any exterior ring, kept as degenerate polygon")
			polygons = append(polygons, Polygon{Holes: []Ring{ring}})
			continue
		}
		last := &polygons[len(polygons)-1]
		last.Holes = append(last.Holes, ring)
	}
	return polygons, warnings, nil
}

func (a *geomAssembler) ring() (Ring, error) {
	id, count := a.command()
	if id != cmdMoveTo || count != 1 {
		return nil, a.errf("ring must start with MoveTo(1), got command %d with count %d", id, count)
	}
	first, err := a.pair()
	if err != nil {
		return nil, err
	}
	if a.done() {
		return nil, a.errf("ring ends after MoveTo")
	}
	id, count = a.command()
	if id != cmdLineTo || count == 0 {
		return nil, a.errf("ring MoveTo must be followed by LineTo, got command %d with count %d", id, count)
	}
	ring := make(Ring, 0, count+1)
	ring = append(ring, first)
	for j := uint32(0); j < count; j++ {
		p, err := a.pair()
		if err != nil {
			return nil, err
		}
		ring = append(ring, p)
	}
	if a.done() {
		return nil, a.errf("ring is not closed with ClosePath")
	}
	id, count = a.command()
	if id != cmdClosePath {
		return nil, a.errf("ring must end with ClosePath, got command %d", id)
	}
	if count != 1 {
		return nil, a.errf("ClosePath count must be 1, got %d", count)
	}
	if len(ring) < 3 {
		return nil, a.errf("ring has %d points, need at least 3 before the implicit close", len(ring))
	}
	return ring, nil
}

// signedArea computes twice the signed shoelace area of a ring.
// https://en.wikipedia.org/wiki/Shoelace_formula
// Positive means an exterior ring, negative or zero an interior one.
func signedArea(ring Ring) int64 {
	if len(ring) == 0 {
		return 0
	}
	var sum int64
	p0 := ring[len(ring)-1]
	for _, p1 := range ring {
		sum += p0[0]*p1[1] - p0[1]*p1[0]
		p0 = p1
	}
	return sum
}
