// Package tiler covers a polygon with grid cells by flood fill.
//
// A coverage starts from a seed cell near the polygon centroid and walks
// grid adjacency breadth first. Containment is decided per cell by the
// Tiler's Mode; the result is a set and carries no order.
package tiler

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

// DefaultSeedRadius bounds the ring search for a seed cell.
const DefaultSeedRadius = 32

// State is the phase a coverage run is in.
type State uint8

const (
	Seeding State = iota
	Flooding
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Seeding:
		return "seeding"
	case Flooding:
		return "flooding"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Tiler covers polygons at one resolution under one Mode. It holds no
// per-call state and is safe for concurrent use.
type Tiler struct {
	res        int
	mode       Mode
	seedRadius int
}

// Option configures a Tiler.
type Option func(*Tiler)

// WithMode sets the containment mode. The default is CenterInside.
func WithMode(m Mode) Option { return func(t *Tiler) { t.mode = m } }

// WithSeedRadius sets how many rings around the centroid cell are
// searched for a seed.
func WithSeedRadius(k int) Option { return func(t *Tiler) { t.seedRadius = k } }

// New returns a Tiler for res.
func New(res int, opts ...Option) (*Tiler, error) {
	if res < 0 || res > hexgrid.MaxResolution {
		return nil, fmt.Errorf("tiler: %w: %d not in [0,%d]", hexgrid.ErrInvalidResolution, res, hexgrid.MaxResolution)
	}
	t := &Tiler{res: res, mode: CenterInside, seedRadius: DefaultSeedRadius}
	for _, o := range opts {
		o(t)
	}
	switch t.mode {
	case CenterInside, FullyInside, BoundaryOverlaps:
	default:
		return nil, fmt.Errorf("tiler: %w: unknown mode %d", hexgrid.ErrInvalidFormat, t.mode)
	}
	if t.seedRadius < 0 {
		return nil, fmt.Errorf("tiler: %w: negative seed radius %d", hexgrid.ErrInvalidFormat, t.seedRadius)
	}
	return t, nil
}

// Resolution returns the resolution cells are produced at.
func (t *Tiler) Resolution() int { return t.res }

// Mode returns the containment mode.
func (t *Tiler) Mode() Mode { return t.mode }

// Result is a finished coverage run.
type Result struct {
	Cells   []hexgrid.Cell
	Seed    hexgrid.Cell
	State   State
	Visited int
}

// Cover returns the cells of the polygon ring. The ring is latitude-first,
// implicitly closed and without holes.
func (t *Tiler) Cover(ctx context.Context, vertices []hexgrid.LatLng) ([]hexgrid.Cell, error) {
	res, err := t.Run(ctx, vertices)
	if err != nil {
		return nil, err
	}
	return res.Cells, nil
}

// Run covers the polygon and reports how the run went. On failure the
// Result still records the state reached.
func (t *Tiler) Run(ctx context.Context, vertices []hexgrid.LatLng) (*Result, error) {
	out := &Result{State: Seeding}
	r, err := newRing(vertices)
	if err != nil {
		out.State = Failed
		return out, err
	}
	cv := &coverage{tiler: t, ring: r, fits: make(map[hexgrid.Cell]fit)}

	seed, err := cv.seed()
	if err != nil {
		out.State = Failed
		return out, err
	}
	out.Seed = seed
	out.State = Flooding

	cells, err := cv.flood(ctx, seed)
	out.Visited = len(cv.fits)
	if err != nil {
		out.State = Failed
		return out, err
	}
	out.Cells = cells
	out.State = Done
	return out, nil
}

// fit records how one cell sits against the ring.
type fit struct {
	centerIn   bool
	allVertsIn bool
	crosses    bool
	holdsRing  bool
}

func (f fit) overlaps() bool { return f.centerIn || f.crosses || f.holdsRing }

// accepts applies the containment mode.
func (t *Tiler) accepts(f fit) bool {
	switch t.mode {
	case CenterInside:
		return f.centerIn
	case FullyInside:
		return f.centerIn && f.allVertsIn && !f.crosses
	case BoundaryOverlaps:
		return f.overlaps()
	}
	return false
}

type coverage struct {
	tiler *Tiler
	ring  *ring
	fits  map[hexgrid.Cell]fit
}

func (cv *coverage) fit(c hexgrid.Cell) (fit, error) {
	if f, ok := cv.fits[c]; ok {
		return f, nil
	}
	center, err := c.LatLng()
	if err != nil {
		return fit{}, err
	}
	boundary, err := c.Boundary()
	if err != nil {
		return fit{}, err
	}

	off := cv.ring.offset(center.Lng)
	cp := orb.Point{center.Lng + off, center.Lat}

	poly := make([]orb.Point, len(boundary))
	bound := orb.Bound{Min: cp, Max: cp}
	for i, v := range boundary {
		p := orb.Point{nearestTurn(v.Lng, center.Lng) + off, v.Lat}
		poly[i] = p
		bound = bound.Extend(p)
	}

	f := fit{centerIn: cv.ring.contains(cp), allVertsIn: true}
	for _, p := range poly {
		if !cv.ring.contains(p) {
			f.allVertsIn = false
			break
		}
	}
	f.crosses = cv.ring.crosses(poly, bound)
	if !f.centerIn && !f.crosses {
		f.holdsRing = holdsAny(poly, bound, cv.ring)
	}
	cv.fits[c] = f
	return f, nil
}

// holdsAny reports whether a ring vertex lies inside the cell outline,
// which happens when the whole polygon fits in one cell.
func holdsAny(poly []orb.Point, bound orb.Bound, r *ring) bool {
	cell := make(orb.Ring, 0, len(poly)+1)
	cell = append(cell, poly...)
	cell = append(cell, poly[0])
	for _, p := range r.pts {
		if bound.Contains(p) && planar.RingContains(cell, p) {
			return true
		}
	}
	return false
}

func (cv *coverage) accepts(c hexgrid.Cell) (bool, error) {
	f, err := cv.fit(c)
	if err != nil {
		return false, err
	}
	return cv.tiler.accepts(f), nil
}

// seed finds a cell satisfying the mode, searching outward ring by ring
// from the centroid cell, then trying the cells under each vertex.
func (cv *coverage) seed() (hexgrid.Cell, error) {
	start, err := hexgrid.LatLngToCell(cv.ring.centroid(), cv.tiler.res)
	if err != nil {
		return 0, err
	}

	seen := map[hexgrid.Cell]struct{}{start: {}}
	frontier := []hexgrid.Cell{start}
	for k := 0; k <= cv.tiler.seedRadius && len(frontier) > 0; k++ {
		var next []hexgrid.Cell
		for _, c := range frontier {
			ok, err := cv.accepts(c)
			if err != nil {
				return 0, err
			}
			if ok {
				return c, nil
			}
			nbrs, err := c.Neighbors()
			if err != nil {
				return 0, err
			}
			for _, n := range nbrs {
				if _, dup := seen[n]; !dup {
					seen[n] = struct{}{}
					next = append(next, n)
				}
			}
		}
		frontier = next
	}

	for _, v := range cv.ring.vertices() {
		c, err := hexgrid.LatLngToCell(v, cv.tiler.res)
		if err != nil {
			return 0, err
		}
		ok, err := cv.accepts(c)
		if err != nil {
			return 0, err
		}
		if ok {
			return c, nil
		}
	}
	return 0, fmt.Errorf("tiler: %w: no %s cell within %d rings of the centroid", hexgrid.ErrCoverageSearchExhausted, cv.tiler.mode, cv.tiler.seedRadius)
}

// flood walks every cell overlapping the polygon that is connected to the
// seed and keeps those the mode accepts. The walk follows overlapping
// cells, so accepted cells past a narrow neck are still reached.
func (cv *coverage) flood(ctx context.Context, seed hexgrid.Cell) ([]hexgrid.Cell, error) {
	seen := map[hexgrid.Cell]struct{}{seed: {}}
	queue := []hexgrid.Cell{seed}
	var out []hexgrid.Cell

	for n := 0; len(queue) > 0; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("tiler: flood: %w", err)
			}
		}
		c := queue[0]
		queue = queue[1:]

		f, err := cv.fit(c)
		if err != nil {
			return nil, err
		}
		if !f.overlaps() {
			continue
		}
		if cv.tiler.accepts(f) {
			out = append(out, c)
		}

		nbrs, err := c.Neighbors()
		if err != nil {
			return nil, err
		}
		for _, nb := range nbrs {
			if _, dup := seen[nb]; dup {
				continue
			}
			seen[nb] = struct{}{}
			queue = append(queue, nb)
		}
	}
	return out, nil
}

// EstimateCells approximates the coverage size of a ring at res from its
// planar area, for callers that want to refuse oversized requests.
func EstimateCells(vertices []hexgrid.LatLng, res int) (float64, error) {
	r, err := newRing(vertices)
	if err != nil {
		return 0, err
	}
	if res < 0 || res > hexgrid.MaxResolution {
		return 0, fmt.Errorf("tiler: %w: %d not in [0,%d]", hexgrid.ErrInvalidResolution, res, hexgrid.MaxResolution)
	}
	// degrees squared to steradians, scaled by latitude at the centroid
	c := r.centroid()
	deg2 := math.Abs(planar.Area(r.pts))
	sr := deg2 * (math.Pi / 180) * (math.Pi / 180) * math.Cos(c.Lat*math.Pi/180)
	cellSr := 4 * math.Pi / float64(2+120*pow7(res))
	return sr / cellSr, nil
}

func pow7(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 7
	}
	return v
}
