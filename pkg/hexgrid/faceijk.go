package hexgrid

import (
	"math"

	"github.com/golang/geo/r2"
)

// faceIJK is a hex coordinate on one icosahedron face.
type faceIJK struct {
	face  int
	coord coordIJK
}

// faceOrientIJK describes how to move a coordinate onto an adjacent face.
type faceOrientIJK struct {
	face      int
	translate coordIJK
	ccwRot60  int
}

// Quadrants of faceNeighbors.
const (
	quadIJ = 1
	quadKI = 2
	quadJK = 3
)

type overage int

const (
	noOverage overage = iota
	// on a face edge, substrate grids only
	faceEdge
	// moved onto an adjacent face
	newFace
)

var (
	maxDimByCIIRes    = [MaxResolution + 2]int{2, -1, 14, -1, 98, -1, 686, -1, 4802, -1, 33614, -1, 235298, -1, 1647086, -1, 11529602}
	unitScaleByCIIRes = [MaxResolution + 2]int{1, -1, 7, -1, 49, -1, 343, -1, 2401, -1, 16807, -1, 117649, -1, 823543, -1, 5764801}
)

// geoToHex2d projects g onto the plane of its closest face at res.
func geoToHex2d(g geoPoint, res int) (int, r2.Point) {
	face, sqd := closestFace(g)

	r := math.Acos(1 - sqd/2)
	if r < epsilon {
		return face, r2.Point{}
	}

	theta := posAngleRads(faceAxesAzRadsCII[face] - posAngleRads(azimuthRads(faceCenterGeo[face], g)))
	if IsClassIII(res) {
		theta = posAngleRads(theta - ap7RotRads)
	}

	// gnomonic scaling, then grow by sqrt7 per resolution
	r = math.Tan(r) / res0UGnomonic
	for i := 0; i < res; i++ {
		r *= sqrt7
	}
	return face, r2.Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// hex2dToGeo is the inverse of geoToHex2d. Substrate grids are the
// aperture 3 grids used for vertices.
func hex2dToGeo(v r2.Point, face, res int, substrate bool) geoPoint {
	r := v.Norm()
	if r < epsilon {
		return faceCenterGeo[face]
	}
	theta := math.Atan2(v.Y, v.X)

	for i := 0; i < res; i++ {
		r *= rsqrt7
	}
	if substrate {
		r /= 3
		if IsClassIII(res) {
			r *= rsqrt7
		}
	}
	r = math.Atan(r * res0UGnomonic)

	if !substrate && IsClassIII(res) {
		theta = posAngleRads(theta + ap7RotRads)
	}
	theta = posAngleRads(faceAxesAzRadsCII[face] - theta)
	return azDistance(faceCenterGeo[face], theta, r)
}

func geoToFaceIJK(g geoPoint, res int) faceIJK {
	face, v := geoToHex2d(g, res)
	return faceIJK{face: face, coord: hex2dToCoordIJK(v)}
}

func (f faceIJK) toGeo(res int) geoPoint {
	return hex2dToGeo(f.coord.toHex2d(), f.face, res, false)
}

// adjustOverageClassII moves a class II coordinate that has run off its
// face onto the neighboring face. pentLeading4 marks a pentagon whose
// leading digit is i, which needs an extra rotation in the ki quadrant.
func (f *faceIJK) adjustOverageClassII(res int, pentLeading4, substrate bool) overage {
	ov := noOverage
	maxDim := maxDimByCIIRes[res]
	if substrate {
		maxDim *= 3
	}

	sum := f.coord.sum()
	switch {
	case substrate && sum == maxDim:
		ov = faceEdge
	case sum > maxDim:
		ov = newFace

		var orient faceOrientIJK
		if f.coord.k > 0 {
			if f.coord.j > 0 {
				orient = faceNeighbors[f.face][quadJK]
			} else {
				orient = faceNeighbors[f.face][quadKI]
				if pentLeading4 {
					origin := coordIJK{maxDim, 0, 0}
					tmp := f.coord.sub(origin).rotate60cw()
					f.coord = tmp.add(origin).normalize()
				}
			}
		} else {
			orient = faceNeighbors[f.face][quadIJ]
		}

		f.face = orient.face
		for i := 0; i < orient.ccwRot60; i++ {
			f.coord = f.coord.rotate60ccw()
		}
		unitScale := unitScaleByCIIRes[res]
		if substrate {
			unitScale *= 3
		}
		f.coord = f.coord.add(orient.translate.scale(unitScale)).normalize()

		if substrate && f.coord.sum() == maxDim {
			ov = faceEdge
		}
	}
	return ov
}

// adjustPentVertOverage repeats the face move for pentagon vertices,
// which can cross more than one face edge.
func (f *faceIJK) adjustPentVertOverage(res int) overage {
	for {
		if ov := f.adjustOverageClassII(res, false, true); ov != newFace {
			return ov
		}
	}
}

var (
	vertsClassII  = [6]coordIJK{{2, 1, 0}, {1, 2, 0}, {0, 2, 1}, {0, 1, 2}, {1, 0, 2}, {2, 0, 1}}
	vertsClassIII = [6]coordIJK{{5, 4, 0}, {1, 5, 0}, {0, 5, 4}, {0, 1, 5}, {4, 0, 5}, {5, 0, 1}}
)

// vertices returns the n substrate vertices of the cell at f, and the
// resolution of the substrate grid they live on.
func (f faceIJK) vertices(res, n int) ([]faceIJK, int) {
	verts := vertsClassII
	if IsClassIII(res) {
		verts = vertsClassIII
	}

	// aperture 3 twice, into the substrate grid
	center := f.coord.downAp3().downAp3r()
	if IsClassIII(res) {
		center = center.downAp7r()
		res++
	}

	out := make([]faceIJK, n)
	for v := 0; v < n; v++ {
		out[v] = faceIJK{face: f.face, coord: center.add(verts[v]).normalize()}
	}
	return out, res
}
