// Package hexgrid is a hierarchical hexagonal global grid.
//
// The sphere is split into 122 resolution 0 base cells laid out on an
// icosahedron. Each cell has seven children (six for the twelve pentagon
// lineages) at the next resolution, down to resolution 15. Cells are
// addressed by a 64-bit Cell value, exchanged as lowercase hex text.
//
// Coordinates cross the package boundary as LatLng in degrees, latitude
// first, everywhere: point arguments, boundaries and polygon rings.
package hexgrid

import "math"

const (
	// MaxResolution is the finest resolution.
	MaxResolution = 15
	// NumBaseCells is the number of resolution 0 cells.
	NumBaseCells = numBaseCells
	// NumPentagons is the number of pentagons at every resolution.
	NumPentagons = 12

	numFaces        = 20
	numBaseCells    = 122
	invalidBaseCell = -1

	// Largest coordinate component on a face at resolution 0.
	maxFaceCoord = 2

	epsilon = 1e-16

	// EarthRadiusKm is the authalic radius used for lengths and areas.
	EarthRadiusKm = 6371.007180918475
)

var (
	sqrt7  = math.Sqrt(7)
	rsqrt7 = 1 / math.Sqrt(7)
	sin60  = math.Sqrt(3) / 2
	rsin60 = 1 / sin60
)

// ap7RotRads is the rotation between class II and class III grids.
const ap7RotRads = 0.333473172251832115336090755351601070065900389

// res0UGnomonic scales a resolution 0 unit into gnomonic distance.
const res0UGnomonic = 0.38196601125010500003

// Direction is a child digit, which doubles as a neighbor direction.
type Direction uint8

const (
	CenterDigit Direction = iota
	KAxesDigit
	JAxesDigit
	JKAxesDigit
	IAxesDigit
	IKAxesDigit
	IJAxesDigit
	InvalidDigit
)

var directionNames = [...]string{"center", "k", "j", "jk", "i", "ik", "ij", "invalid"}

func (d Direction) String() string {
	if d > InvalidDigit {
		return directionNames[InvalidDigit]
	}
	return directionNames[d]
}

var (
	ccwDigit = [8]Direction{CenterDigit, IKAxesDigit, JKAxesDigit, KAxesDigit, IJAxesDigit, IAxesDigit, JAxesDigit, InvalidDigit}
	cwDigit  = [8]Direction{CenterDigit, JKAxesDigit, IJAxesDigit, JAxesDigit, IKAxesDigit, KAxesDigit, IAxesDigit, InvalidDigit}
)

func (d Direction) rotate60ccw() Direction { return ccwDigit[d&7] }
func (d Direction) rotate60cw() Direction  { return cwDigit[d&7] }

// IsClassIII reports whether res is an odd resolution, rotated against
// the base grid.
func IsClassIII(res int) bool { return res%2 == 1 }

func validResolution(res int) bool { return res >= 0 && res <= MaxResolution }

type baseCellInfo struct {
	homeFijk     faceIJK
	isPentagon   bool
	cwOffsetPent [2]int
}

type baseCellRotation struct {
	baseCell int
	ccwRot60 int
}

func isBaseCellPentagon(bc int) bool {
	return bc >= 0 && bc < numBaseCells && baseCellData[bc].isPentagon
}

func isBaseCellPolarPentagon(bc int) bool { return bc == 4 || bc == 117 }

func baseCellIsCwOffset(bc, face int) bool {
	off := baseCellData[bc].cwOffsetPent
	return off[0] == face || off[1] == face
}

// baseCellDirection returns the direction from origin to a neighboring
// base cell, or InvalidDigit when they are not adjacent.
func baseCellDirection(origin, neighbor int) Direction {
	for d := CenterDigit; d < InvalidDigit; d++ {
		if baseCellNeighbors[origin][d] == neighbor {
			return d
		}
	}
	return InvalidDigit
}

// Pentagons returns the twelve pentagon cells at res.
func Pentagons(res int) ([]Cell, error) {
	if !validResolution(res) {
		return nil, resolutionError("pentagons", res)
	}
	out := make([]Cell, 0, NumPentagons)
	for bc := 0; bc < numBaseCells; bc++ {
		if baseCellData[bc].isPentagon {
			c := newCell(res, bc)
			for r := 1; r <= res; r++ {
				c = c.setDigit(r, CenterDigit)
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// BaseCells returns all resolution 0 cells in base cell order.
func BaseCells() []Cell {
	out := make([]Cell, numBaseCells)
	for bc := range out {
		out[bc] = newCell(0, bc)
	}
	return out
}
