package tiler

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

// ring is a polygon outline in planar degrees (X lng, Y lat). Longitudes
// are unwrapped so no edge spans more than 180 degrees, which keeps rings
// across the antimeridian simple.
type ring struct {
	pts   orb.Ring
	bound orb.Bound
}

func newRing(vertices []hexgrid.LatLng) (*ring, error) {
	pts := make(orb.Ring, 0, len(vertices)+1)
	for i, v := range vertices {
		if _, err := hexgrid.NewLatLng(v.Lat, v.Lng); err != nil {
			return nil, fmt.Errorf("polygon vertex %d: %w", i, err)
		}
		pts = append(pts, orb.Point{v.Lng, v.Lat})
	}
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("polygon: %w: %d distinct vertices, need 3", hexgrid.ErrDegeneratePolygon, len(pts))
	}

	for i := 1; i < len(pts); i++ {
		pts[i][0] = nearestTurn(pts[i][0], pts[i-1][0])
	}
	pts = append(pts, pts[0])

	if planar.Area(pts) == 0 {
		return nil, fmt.Errorf("polygon: %w: zero area", hexgrid.ErrDegeneratePolygon)
	}
	return &ring{pts: pts, bound: pts.Bound()}, nil
}

// nearestTurn shifts lng by whole turns to within 180 degrees of ref.
func nearestTurn(lng, ref float64) float64 {
	return lng - 360*math.Round((lng-ref)/360)
}

// offset returns the whole-turn shift that moves lng closest to the ring.
func (r *ring) offset(lng float64) float64 {
	best, bestGap := 0.0, math.Inf(1)
	for _, off := range [3]float64{0, 360, -360} {
		x := lng + off
		gap := 0.0
		switch {
		case x < r.bound.Min[0]:
			gap = r.bound.Min[0] - x
		case x > r.bound.Max[0]:
			gap = x - r.bound.Max[0]
		}
		if gap < bestGap {
			best, bestGap = off, gap
		}
	}
	return best
}

func (r *ring) contains(p orb.Point) bool {
	return planar.RingContains(r.pts, p)
}

func (r *ring) centroid() hexgrid.LatLng {
	c, _ := planar.CentroidArea(orb.Polygon{r.pts})
	return hexgrid.LatLng{Lat: c[1], Lng: nearestTurn(c[0], 0)}
}

// vertices returns the distinct ring vertices with longitudes folded back
// into [-180,180].
func (r *ring) vertices() []hexgrid.LatLng {
	out := make([]hexgrid.LatLng, 0, len(r.pts)-1)
	for _, p := range r.pts[:len(r.pts)-1] {
		out = append(out, hexgrid.LatLng{Lat: p[1], Lng: nearestTurn(p[0], 0)})
	}
	return out
}

// crosses reports whether the closed outline poly touches any ring edge.
func (r *ring) crosses(poly []orb.Point, bound orb.Bound) bool {
	if !r.bound.Intersects(bound) {
		return false
	}
	for i := 0; i+1 < len(r.pts); i++ {
		a, b := r.pts[i], r.pts[i+1]
		seg := orb.Bound{Min: a, Max: a}.Extend(b)
		if !seg.Intersects(bound) {
			continue
		}
		for j := range poly {
			if segmentsIntersect(vec(a), vec(b), vec(poly[j]), vec(poly[(j+1)%len(poly)])) {
				return true
			}
		}
	}
	return false
}

func vec(p orb.Point) r2.Point { return r2.Point{X: p[0], Y: p[1]} }

func orientation(a, b, c r2.Point) float64 { return b.Sub(a).Cross(c.Sub(a)) }

func onSegment(a, b, p r2.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect reports whether segments p1p2 and q1q2 share a point,
// touching included.
func segmentsIntersect(p1, p2, q1, q2 r2.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}
