package hexgrid

import (
	"fmt"
	"strconv"
)

// DirectedEdge is an edge from an origin cell to one neighbor. It uses the
// Cell layout with mode 2 and the direction (1..6) in the reserved bits.
type DirectedEdge uint64

// DirectedEdge returns the edge from c to dest; the two must be neighbors.
func (c Cell) DirectedEdge(dest Cell) (DirectedEdge, error) {
	if err := c.check("directed edge"); err != nil {
		return 0, err
	}
	if err := dest.check("directed edge"); err != nil {
		return 0, err
	}
	if c == dest || c.Resolution() != dest.Resolution() {
		return 0, relationError("directed edge", "%s and %s are not neighbors", c, dest)
	}
	dir := neighborDirection(c, dest)
	if dir == InvalidDigit {
		return 0, relationError("directed edge", "%s and %s are not neighbors", c, dest)
	}
	return newDirectedEdge(c, dir), nil
}

// DirectedEdges returns the edges leaving c, one per neighbor.
func (c Cell) DirectedEdges() ([]DirectedEdge, error) {
	if err := c.check("directed edges"); err != nil {
		return nil, err
	}
	out := make([]DirectedEdge, 0, 6)
	for d := KAxesDigit; d < InvalidDigit; d++ {
		if d == KAxesDigit && c.IsPentagon() {
			continue
		}
		out = append(out, newDirectedEdge(c, d))
	}
	return out, nil
}

func newDirectedEdge(origin Cell, dir Direction) DirectedEdge {
	v := uint64(origin)&^(modeMask|reservedMask) | modeEdge<<modeOffset | uint64(dir)<<reservedOffset
	return DirectedEdge(v)
}

// ParseDirectedEdge decodes hex text under the directed edge mode.
func ParseDirectedEdge(s string) (DirectedEdge, error) {
	v, err := parseHex64("directed edge", s)
	if err != nil {
		return 0, err
	}
	e := DirectedEdge(v)
	if !e.IsValid() {
		return 0, formatError("directed edge", "%q is not a valid directed edge", s)
	}
	return e, nil
}

// IsValid reports whether e has the edge mode, a direction in 1..6 that
// exists for its origin, and a valid origin cell.
func (e DirectedEdge) IsValid() bool {
	v := uint64(e)
	if (v&modeMask)>>modeOffset != modeEdge {
		return false
	}
	dir := e.Direction()
	if dir <= CenterDigit || dir >= InvalidDigit {
		return false
	}
	origin := e.origin()
	if !origin.IsValid() {
		return false
	}
	return !(dir == KAxesDigit && origin.IsPentagon())
}

// Direction returns the direction from the origin cell.
func (e DirectedEdge) Direction() Direction {
	return Direction((uint64(e) & reservedMask) >> reservedOffset)
}

func (e DirectedEdge) origin() Cell {
	return Cell(uint64(e)&^(modeMask|reservedMask) | modeCell<<modeOffset)
}

// Origin returns the cell the edge leaves.
func (e DirectedEdge) Origin() (Cell, error) {
	if err := e.check("edge origin"); err != nil {
		return 0, err
	}
	return e.origin(), nil
}

// Destination returns the cell the edge enters.
func (e DirectedEdge) Destination() (Cell, error) {
	if err := e.check("edge destination"); err != nil {
		return 0, err
	}
	dest, _, err := neighborRotations(e.origin(), e.Direction(), 0)
	return dest, err
}

func (e DirectedEdge) String() string { return strconv.FormatUint(uint64(e), 16) }

// MarshalText implements encoding.TextMarshaler.
func (e DirectedEdge) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *DirectedEdge) UnmarshalText(b []byte) error {
	v, err := ParseDirectedEdge(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

func (e DirectedEdge) check(op string) error {
	if !e.IsValid() {
		return formatError(op, "%#x is not a valid directed edge", uint64(e))
	}
	return nil
}

// Boundary returns the two vertices shared by the origin and destination,
// in the origin's counter-clockwise order.
func (e DirectedEdge) Boundary() (CellBoundary, error) {
	a, b, err := e.endpoints()
	if err != nil {
		return nil, err
	}
	return CellBoundary{a.toLatLng(), b.toLatLng()}.unwrap(), nil
}

// endpoints picks the two origin vertices closest to any destination
// vertex. Shared vertices are computed from each cell's own face, so they
// agree only up to rounding.
func (e DirectedEdge) endpoints() (geoPoint, geoPoint, error) {
	dest, err := e.Destination()
	if err != nil {
		return geoPoint{}, geoPoint{}, err
	}
	ov := e.origin().boundaryGeo()
	dv := dest.boundaryGeo()

	gap := make([]float64, len(ov))
	for i, o := range ov {
		gap[i] = 4
		for _, d := range dv {
			gap[i] = min(gap[i], greatCircleRads(o, d))
		}
	}
	// the shared pair is adjacent on the origin ring
	best, bestGap := 0, gap[0]+gap[1%len(gap)]
	for i := 1; i < len(ov); i++ {
		if g := gap[i] + gap[(i+1)%len(ov)]; g < bestGap {
			best, bestGap = i, g
		}
	}
	return ov[best], ov[(best+1)%len(ov)], nil
}

// Length returns the length of the shared edge between the two cells.
func (e DirectedEdge) Length(unit LengthUnit) (float64, error) {
	if _, err := ParseLengthUnit(string(unit)); err != nil {
		return 0, err
	}
	a, b, err := e.endpoints()
	if err != nil {
		return 0, err
	}
	return unit.fromRadians(greatCircleRads(a, b))
}

// CenterDistance returns the great-circle distance between the centers
// of the origin and destination cells.
func (e DirectedEdge) CenterDistance(unit LengthUnit) (float64, error) {
	if _, err := ParseLengthUnit(string(unit)); err != nil {
		return 0, err
	}
	dest, err := e.Destination()
	if err != nil {
		return 0, err
	}
	return unit.fromRadians(greatCircleRads(e.origin().center(), dest.center()))
}

// EdgeLength decodes text as a directed edge and measures it in unit.
func EdgeLength(text string, unit string) (float64, error) {
	u, err := ParseLengthUnit(unit)
	if err != nil {
		return 0, err
	}
	e, err := ParseDirectedEdge(text)
	if err != nil {
		return 0, err
	}
	v, err := e.Length(u)
	if err != nil {
		return 0, fmt.Errorf("edge length: %w", err)
	}
	return v, nil
}
