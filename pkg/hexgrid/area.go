package hexgrid

import "github.com/golang/geo/s2"

// Area returns the spherical area of c, summed as a fan of triangles from
// the center over each boundary edge.
func (c Cell) Area(unit AreaUnit) (float64, error) {
	if err := c.check("cell area"); err != nil {
		return 0, err
	}
	return unit.fromSteradians(c.areaRads2())
}

func (c Cell) areaRads2() float64 {
	center := c.center().point()
	verts := c.boundaryGeo()
	pts := make([]s2.Point, len(verts))
	for i, v := range verts {
		pts[i] = v.point()
	}
	var sum float64
	for i := range pts {
		sum += s2.PointArea(center, pts[i], pts[(i+1)%len(pts)])
	}
	return sum
}
