package hexgrid

// CellBoundary is an open ring of vertices, counter-clockwise seen from
// outside the sphere. The first vertex is not repeated at the end.
type CellBoundary []LatLng

// Boundary returns the six (five for pentagons) vertices of c. Rings that
// cross the antimeridian are unwrapped so consecutive longitudes never
// differ by more than 180 degrees; such rings may hold longitudes outside
// [-180, 180].
func (c Cell) Boundary() (CellBoundary, error) {
	if err := c.check("cell to boundary"); err != nil {
		return nil, err
	}
	verts := c.boundaryGeo()
	out := make(CellBoundary, len(verts))
	for i, v := range verts {
		out[i] = v.toLatLng()
	}
	return out.unwrap(), nil
}

// LngLats returns the boundary as longitude-first pairs.
func (b CellBoundary) LngLats() [][2]float64 {
	out := make([][2]float64, len(b))
	for i, v := range b {
		out[i] = [2]float64{v.Lng, v.Lat}
	}
	return out
}

// boundaryGeo returns the raw vertices in radians, longitudes in [-pi, pi].
func (c Cell) boundaryGeo() []geoPoint {
	fijk := cellToFaceIJK(c)
	res := c.Resolution()
	pent := c.IsPentagon()
	n := 6
	if pent {
		n = 5
	}

	verts, adjRes := fijk.vertices(res, n)
	out := make([]geoPoint, n)
	for i := range verts {
		v := verts[i]
		if pent {
			v.adjustPentVertOverage(adjRes)
		} else {
			v.adjustOverageClassII(adjRes, false, true)
		}
		out[i] = hex2dToGeo(v.coord.toHex2d(), v.face, adjRes, true)
	}
	return out
}

// unwrap shifts vertices by whole turns so the ring does not jump across
// the antimeridian.
func (b CellBoundary) unwrap() CellBoundary {
	for i := 1; i < len(b); i++ {
		prev := b[i-1].Lng
		for b[i].Lng-prev > 180 {
			b[i].Lng -= 360
		}
		for b[i].Lng-prev < -180 {
			b[i].Lng += 360
		}
	}
	return b
}
