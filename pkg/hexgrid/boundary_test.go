package hexgrid

import (
	"math"
	"math/rand"
	"testing"
)

func TestBoundary_KnownCell(t *testing.T) {
	b, err := MustParseCell("85283473fffffff").Boundary()
	if err != nil {
		t.Fatalf("boundary: %v", err)
	}
	want := []LatLng{
		{37.2713558667319, -121.91508032705622},
		{37.353926450852256, -121.86222328902491},
		{37.42834118609434, -121.92354999630156},
		{37.42012867767778, -122.03773496427027},
		{37.33755608435298, -122.09042892904397},
		{37.26319797461824, -122.02910130918998},
	}
	if len(b) != len(want) {
		t.Fatalf("vertices = %d, want %d", len(b), len(want))
	}
	for i := range want {
		if math.Abs(b[i].Lat-want[i].Lat) > 1e-9 || math.Abs(b[i].Lng-want[i].Lng) > 1e-9 {
			t.Fatalf("vertex %d = %v, want %v", i, b[i], want[i])
		}
	}
	if shoelace(b) <= 0 {
		t.Fatalf("boundary must be counter-clockwise")
	}
}

func TestBoundary_VertexCounts(t *testing.T) {
	for _, c := range BaseCells() {
		b, err := c.Boundary()
		if err != nil {
			t.Fatalf("%s: %v", c, err)
		}
		want := 6
		if c.IsPentagon() {
			want = 5
		}
		if len(b) != want {
			t.Fatalf("%s: %d vertices, want %d", c, len(b), want)
		}
	}
	for res := 0; res <= MaxResolution; res++ {
		ps, _ := Pentagons(res)
		for _, p := range ps {
			if b, _ := p.Boundary(); len(b) != 5 {
				t.Fatalf("pentagon %s: %d vertices", p, len(b))
			}
		}
	}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		ll := LatLng{Lat: rng.Float64()*170 - 85, Lng: rng.Float64()*360 - 180}
		c, _ := LatLngToCell(ll, i%(MaxResolution+1))
		b, _ := c.Boundary()
		want := 6
		if c.IsPentagon() {
			want = 5
		}
		if len(b) != want {
			t.Fatalf("%s: %d vertices, want %d", c, len(b), want)
		}
	}
}

func TestBoundary_AntimeridianUnwrapped(t *testing.T) {
	for _, lng := range []float64{179.99, -179.99} {
		c, err := LatLngToCell(LatLng{Lat: 10, Lng: lng}, 3)
		if err != nil {
			t.Fatalf("cell: %v", err)
		}
		b, _ := c.Boundary()
		for i := range b {
			next := b[(i+1)%len(b)]
			if d := math.Abs(next.Lng - b[i].Lng); d > 180 {
				t.Fatalf("%s: jump of %.3f degrees between vertices %d and %d", c, d, i, (i+1)%len(b))
			}
		}
		if shoelace(b) <= 0 {
			t.Fatalf("%s: unwrapped ring must stay counter-clockwise", c)
		}
	}
}

// shoelace is twice the signed planar area in lng/lat degrees.
func shoelace(b CellBoundary) float64 {
	var s float64
	for i := range b {
		j := (i + 1) % len(b)
		s += b[i].Lng*b[j].Lat - b[j].Lng*b[i].Lat
	}
	return s
}
