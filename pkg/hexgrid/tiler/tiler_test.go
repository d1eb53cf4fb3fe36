package tiler

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

var soma = []hexgrid.LatLng{
	{Lat: 37.70, Lng: -122.50},
	{Lat: 37.70, Lng: -122.40},
	{Lat: 37.80, Lng: -122.40},
	{Lat: 37.80, Lng: -122.50},
}

func cover(t *testing.T, res int, m Mode, ring []hexgrid.LatLng) []hexgrid.Cell {
	t.Helper()
	tl, err := New(res, WithMode(m))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cells, err := tl.Cover(context.Background(), ring)
	if err != nil {
		t.Fatalf("cover %s: %v", m, err)
	}
	return cells
}

func toSet(cells []hexgrid.Cell) map[hexgrid.Cell]bool {
	out := make(map[hexgrid.Cell]bool, len(cells))
	for _, c := range cells {
		out[c] = true
	}
	return out
}

func orbRing(vs []hexgrid.LatLng) orb.Ring {
	r := make(orb.Ring, 0, len(vs)+1)
	for _, v := range vs {
		r = append(r, orb.Point{v.Lng, v.Lat})
	}
	return append(r, r[0])
}

func TestCover_CenterInsideSmallRegion(t *testing.T) {
	cells := cover(t, 7, CenterInside, soma)
	if len(cells) == 0 {
		t.Fatalf("empty coverage")
	}
	ref := orbRing(soma)
	got := toSet(cells)
	if len(got) != len(cells) {
		t.Fatalf("coverage has duplicates")
	}
	for _, c := range cells {
		ll, _ := c.LatLng()
		if !planar.RingContains(ref, orb.Point{ll.Lng, ll.Lat}) {
			t.Fatalf("%s center %v outside polygon", c, ll)
		}
	}

	// brute force over a disk that spans the polygon
	start, _ := hexgrid.LatLngToCell(hexgrid.LatLng{Lat: 37.75, Lng: -122.45}, 7)
	disk, _ := hexgrid.GridDisk(start, 10)
	for _, c := range disk {
		ll, _ := c.LatLng()
		if planar.RingContains(ref, orb.Point{ll.Lng, ll.Lat}) && !got[c] {
			t.Fatalf("%s has its center inside but was not covered", c)
		}
	}
}

func TestCover_ModesNest(t *testing.T) {
	for _, res := range []int{7, 8} {
		full := cover(t, res, FullyInside, soma)
		center := toSet(cover(t, res, CenterInside, soma))
		overlap := toSet(cover(t, res, BoundaryOverlaps, soma))
		if len(full) == 0 {
			t.Fatalf("res %d: no fully inside cells", res)
		}
		for _, c := range full {
			if !center[c] {
				t.Fatalf("res %d: fully inside %s missing from center set", res, c)
			}
		}
		for c := range center {
			if !overlap[c] {
				t.Fatalf("res %d: center %s missing from overlap set", res, c)
			}
		}
		if len(overlap) <= len(center) {
			t.Fatalf("res %d: overlap %d should exceed center %d", res, len(overlap), len(center))
		}
	}
}

func TestCover_FullyInsideOutlines(t *testing.T) {
	ref := orbRing(soma)
	for _, c := range cover(t, 8, FullyInside, soma) {
		b, _ := c.Boundary()
		for _, v := range b {
			if !planar.RingContains(ref, orb.Point{v.Lng, v.Lat}) {
				t.Fatalf("%s vertex %v outside polygon", c, v)
			}
		}
	}
}

func TestCover_TinyPolygonInsideOneCell(t *testing.T) {
	c, _ := hexgrid.LatLngToCell(hexgrid.LatLng{Lat: 51.5, Lng: -0.12}, 5)
	ll, _ := c.LatLng()
	d := 1e-4
	tiny := []hexgrid.LatLng{
		{Lat: ll.Lat - d, Lng: ll.Lng - d},
		{Lat: ll.Lat - d, Lng: ll.Lng + d},
		{Lat: ll.Lat + d, Lng: ll.Lng + d},
		{Lat: ll.Lat + d, Lng: ll.Lng - d},
	}
	for _, m := range []Mode{CenterInside, BoundaryOverlaps} {
		got := cover(t, 5, m, tiny)
		if len(got) != 1 || got[0] != c {
			t.Fatalf("%s: got %v, want [%s]", m, got, c)
		}
	}

	off := []hexgrid.LatLng{
		{Lat: ll.Lat + 0.02, Lng: ll.Lng + 0.02},
		{Lat: ll.Lat + 0.02, Lng: ll.Lng + 0.0201},
		{Lat: ll.Lat + 0.0201, Lng: ll.Lng + 0.0201},
	}
	got := cover(t, 5, BoundaryOverlaps, off)
	if len(got) != 1 {
		t.Fatalf("off-center sliver: got %d cells", len(got))
	}
}

func TestCover_Antimeridian(t *testing.T) {
	ring := []hexgrid.LatLng{
		{Lat: -10, Lng: 179.5},
		{Lat: -10, Lng: -179.5},
		{Lat: 10, Lng: -179.5},
		{Lat: 10, Lng: 179.5},
	}
	cells := cover(t, 4, CenterInside, ring)
	if len(cells) == 0 {
		t.Fatalf("empty coverage")
	}
	east, west := 0, 0
	for _, c := range cells {
		ll, _ := c.LatLng()
		if ll.Lat < -10 || ll.Lat > 10 || (ll.Lng > -179.5 && ll.Lng < 179.5) {
			t.Fatalf("%s center %v outside polygon", c, ll)
		}
		if ll.Lng > 0 {
			east++
		} else {
			west++
		}
	}
	if east == 0 || west == 0 {
		t.Fatalf("coverage must span both sides: east %d west %d", east, west)
	}
}

func TestCover_DegeneratePolygon(t *testing.T) {
	cases := map[string][]hexgrid.LatLng{
		"two vertices":    {{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}},
		"closed triangle": {{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}},
		"collinear":       {{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}},
		"empty":           nil,
	}
	tl, _ := New(5)
	for name, ring := range cases {
		res, err := tl.Run(context.Background(), ring)
		if !errors.Is(err, hexgrid.ErrDegeneratePolygon) {
			t.Fatalf("%s: want ErrDegeneratePolygon, got %v", name, err)
		}
		if res.State != Failed {
			t.Fatalf("%s: state = %s", name, res.State)
		}
	}
	bad := []hexgrid.LatLng{{Lat: 95, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 0}}
	if _, err := tl.Cover(context.Background(), bad); !errors.Is(err, hexgrid.ErrInvalidCoordinate) {
		t.Fatalf("want ErrInvalidCoordinate, got %v", err)
	}
}

func TestCover_SeedSearchExhausted(t *testing.T) {
	tiny := []hexgrid.LatLng{
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 10.001},
		{Lat: 10.001, Lng: 10.001},
	}
	tl, _ := New(3, WithMode(FullyInside), WithSeedRadius(2))
	res, err := tl.Run(context.Background(), tiny)
	if !errors.Is(err, hexgrid.ErrCoverageSearchExhausted) {
		t.Fatalf("want ErrCoverageSearchExhausted, got %v", err)
	}
	if res.State != Failed || len(res.Cells) != 0 {
		t.Fatalf("state %s cells %d", res.State, len(res.Cells))
	}
}

func TestRun_ReportsSeedAndState(t *testing.T) {
	tl, _ := New(7)
	res, err := tl.Run(context.Background(), soma)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.State != Done || res.Seed == 0 || res.Visited < len(res.Cells) {
		t.Fatalf("result %+v", res)
	}
	if !toSet(res.Cells)[res.Seed] {
		t.Fatalf("seed %s missing from cells", res.Seed)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tl, _ := New(7)
	res, err := tl.Run(ctx, soma)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if res.State != Failed {
		t.Fatalf("state = %s", res.State)
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(16); !errors.Is(err, hexgrid.ErrInvalidResolution) {
		t.Fatalf("want ErrInvalidResolution, got %v", err)
	}
	if _, err := New(5, WithMode(Mode(9))); !errors.Is(err, hexgrid.ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
	if _, err := New(5, WithSeedRadius(-1)); err == nil {
		t.Fatalf("negative seed radius accepted")
	}
}

func TestEstimateCells_NearActual(t *testing.T) {
	est, err := EstimateCells(soma, 8)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	n := float64(len(cover(t, 8, CenterInside, soma)))
	if est < n/2 || est > n*2 {
		t.Fatalf("estimate %.0f far from actual %.0f", est, n)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":                  CenterInside,
		"center":            CenterInside,
		"FULL":              FullyInside,
		"boundary_overlaps": BoundaryOverlaps,
		" overlap ":         BoundaryOverlaps,
	} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseMode("bogus"); !errors.Is(err, hexgrid.ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
	var m Mode
	if err := m.UnmarshalText([]byte("full")); err != nil || m != FullyInside {
		t.Fatalf("unmarshal: %s %v", m, err)
	}
	b, _ := BoundaryOverlaps.MarshalText()
	if string(b) != "overlap" {
		t.Fatalf("marshal = %s", b)
	}
}
