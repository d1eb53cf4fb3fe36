package hexgrid

import (
	"math"

	"github.com/golang/geo/r2"
)

// coordIJK is a hex coordinate on three axes 120 degrees apart. Values are
// kept normalized: non-negative with at least one zero component.
type coordIJK struct {
	i, j, k int
}

var unitVecs = [7]coordIJK{
	{0, 0, 0}, // center
	{0, 0, 1}, // k
	{0, 1, 0}, // j
	{0, 1, 1}, // jk
	{1, 0, 0}, // i
	{1, 0, 1}, // ik
	{1, 1, 0}, // ij
}

func (c coordIJK) add(o coordIJK) coordIJK { return coordIJK{c.i + o.i, c.j + o.j, c.k + o.k} }
func (c coordIJK) sub(o coordIJK) coordIJK { return coordIJK{c.i - o.i, c.j - o.j, c.k - o.k} }
func (c coordIJK) scale(f int) coordIJK    { return coordIJK{c.i * f, c.j * f, c.k * f} }
func (c coordIJK) sum() int                { return c.i + c.j + c.k }

func (c coordIJK) maxComponent() int {
	return max(c.i, c.j, c.k)
}

func (c coordIJK) normalize() coordIJK {
	if c.i < 0 {
		c.j -= c.i
		c.k -= c.i
		c.i = 0
	}
	if c.j < 0 {
		c.i -= c.j
		c.k -= c.j
		c.j = 0
	}
	if c.k < 0 {
		c.i -= c.k
		c.j -= c.k
		c.k = 0
	}
	if m := min(c.i, c.j, c.k); m > 0 {
		c.i -= m
		c.j -= m
		c.k -= m
	}
	return c
}

// transform maps each unit axis onto the given images and renormalizes.
func (c coordIJK) transform(iv, jv, kv coordIJK) coordIJK {
	return iv.scale(c.i).add(jv.scale(c.j)).add(kv.scale(c.k)).normalize()
}

// unitDigit returns the direction of a unit vector, or InvalidDigit.
func (c coordIJK) unitDigit() Direction {
	n := c.normalize()
	for d := CenterDigit; d < InvalidDigit; d++ {
		if n == unitVecs[d] {
			return d
		}
	}
	return InvalidDigit
}

func (c coordIJK) neighbor(d Direction) coordIJK {
	if d > CenterDigit && d < InvalidDigit {
		return c.add(unitVecs[d]).normalize()
	}
	return c
}

func roundHalfAway(x float64) int { return int(math.Round(x)) }

// upAp7 moves to the containing aperture 7 parent, counter-clockwise.
func (c coordIJK) upAp7() coordIJK {
	i := c.i - c.k
	j := c.j - c.k
	return coordIJK{
		roundHalfAway(float64(3*i-j) / 7),
		roundHalfAway(float64(i+2*j) / 7),
		0,
	}.normalize()
}

// upAp7r moves to the containing aperture 7 parent, clockwise.
func (c coordIJK) upAp7r() coordIJK {
	i := c.i - c.k
	j := c.j - c.k
	return coordIJK{
		roundHalfAway(float64(2*i+j) / 7),
		roundHalfAway(float64(3*j-i) / 7),
		0,
	}.normalize()
}

func (c coordIJK) downAp7() coordIJK {
	return c.transform(coordIJK{3, 0, 1}, coordIJK{1, 3, 0}, coordIJK{0, 1, 3})
}

func (c coordIJK) downAp7r() coordIJK {
	return c.transform(coordIJK{3, 1, 0}, coordIJK{0, 3, 1}, coordIJK{1, 0, 3})
}

func (c coordIJK) downAp3() coordIJK {
	return c.transform(coordIJK{2, 0, 1}, coordIJK{1, 2, 0}, coordIJK{0, 1, 2})
}

func (c coordIJK) downAp3r() coordIJK {
	return c.transform(coordIJK{2, 1, 0}, coordIJK{0, 2, 1}, coordIJK{1, 0, 2})
}

func (c coordIJK) rotate60ccw() coordIJK {
	return c.transform(coordIJK{1, 1, 0}, coordIJK{0, 1, 1}, coordIJK{1, 0, 1})
}

func (c coordIJK) rotate60cw() coordIJK {
	return c.transform(coordIJK{1, 0, 1}, coordIJK{1, 1, 0}, coordIJK{0, 1, 1})
}

// distance is the number of grid steps between two coordinates.
func (c coordIJK) distance(o coordIJK) int {
	d := c.sub(o).normalize()
	return max(abs(d.i), abs(d.j), abs(d.k))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// toHex2d places the coordinate in the face plane, i axis along x.
func (c coordIJK) toHex2d() r2.Point {
	i := float64(c.i - c.k)
	j := float64(c.j - c.k)
	return r2.Point{X: i - 0.5*j, Y: j * sin60}
}

// hex2dToCoordIJK snaps a face plane point to the hex containing it.
// The fractional axial position is lifted into cube space (q+r+s=0), each
// component is rounded, and the one with the largest rounding error is
// rebuilt from the other two so the sum stays zero.
func hex2dToCoordIJK(v r2.Point) coordIJK {
	fj := v.Y * rsin60
	fi := v.X + 0.5*fj

	q, r, s := fi-fj, fj, -fi
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	}
	// otherwise s absorbs the error and q, r stand as rounded
	return coordIJK{int(rq + rr), int(rr), 0}.normalize()
}

// CoordIJ is a two axis position in a local hex frame.
type CoordIJ struct {
	I int `json:"i"`
	J int `json:"j"`
}

func (c coordIJK) toIJ() CoordIJ { return CoordIJ{I: c.i - c.k, J: c.j - c.k} }

func (ij CoordIJ) toIJK() coordIJK { return coordIJK{ij.I, ij.J, 0}.normalize() }
