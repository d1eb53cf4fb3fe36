package hexgrid

import (
	"errors"
	"math"
	"testing"
)

func TestEdgeLength_Known(t *testing.T) {
	km, err := EdgeLength("115283473fffffff", "km")
	if err != nil {
		t.Fatalf("edge length: %v", err)
	}
	if math.Abs(km-10.29473608635697) > 1e-6 {
		t.Fatalf("length = %v km", km)
	}
	m, _ := EdgeLength("115283473fffffff", "m")
	if math.Abs(m-km*1000) > 1e-6 {
		t.Fatalf("m = %v, km = %v", m, km)
	}
	rads, _ := EdgeLength("115283473fffffff", "rads")
	if math.Abs(rads*EarthRadiusKm-km) > 1e-9 {
		t.Fatalf("rads = %v", rads)
	}
}

func TestDirectedEdge_Endpoints(t *testing.T) {
	e, err := ParseDirectedEdge("115283473fffffff")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	o, _ := e.Origin()
	d, _ := e.Destination()
	if o.String() != "85283473fffffff" || d.String() != "85283477fffffff" {
		t.Fatalf("origin %s destination %s", o, d)
	}
	if e.Direction() != KAxesDigit {
		t.Fatalf("direction = %s", e.Direction())
	}
	again, err := o.DirectedEdge(d)
	if err != nil || again != e {
		t.Fatalf("rebuilt edge = %s (%v)", again, err)
	}
	centers, _ := e.CenterDistance(Kilometers)
	length, _ := e.Length(Kilometers)
	if centers <= length {
		t.Fatalf("center distance %v must exceed edge length %v", centers, length)
	}
	b, _ := e.Boundary()
	if len(b) != 2 {
		t.Fatalf("edge boundary has %d vertices", len(b))
	}
}

func TestDirectedEdges_AllNeighbors(t *testing.T) {
	hex := MustParseCell("8928308280fffff")
	edges, _ := hex.DirectedEdges()
	if len(edges) != 6 {
		t.Fatalf("hexagon edges = %d", len(edges))
	}
	ps, _ := Pentagons(3)
	pedges, _ := ps[0].DirectedEdges()
	if len(pedges) != 5 {
		t.Fatalf("pentagon edges = %d", len(pedges))
	}
	for _, e := range append(edges, pedges...) {
		if !e.IsValid() {
			t.Fatalf("invalid edge %s", e)
		}
		dest, err := e.Destination()
		if err != nil {
			t.Fatalf("destination of %s: %v", e, err)
		}
		o, _ := e.Origin()
		if ok, _ := AreNeighbors(o, dest); !ok {
			t.Fatalf("%s: %s and %s are not neighbors", e, o, dest)
		}
		if l, err := e.Length(Meters); err != nil || l <= 0 {
			t.Fatalf("%s: length %v %v", e, l, err)
		}
	}
}

func TestEdgeLength_Errors(t *testing.T) {
	if _, err := EdgeLength("115283473fffffff", "miles"); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("want ErrInvalidUnit, got %v", err)
	}
	for _, s := range []string{"85283473fffffff", "xyz", "", "105283473fffffff"} {
		if _, err := EdgeLength(s, "km"); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%q: want ErrInvalidFormat, got %v", s, err)
		}
	}
	c := MustParseCell("8928308280fffff")
	if _, err := c.DirectedEdge(c); !errors.Is(err, ErrNoSuchRelation) {
		t.Fatalf("self edge: want ErrNoSuchRelation, got %v", err)
	}
	far, _ := LatLngToCell(LatLng{Lat: 0, Lng: 0}, 9)
	if _, err := c.DirectedEdge(far); !errors.Is(err, ErrNoSuchRelation) {
		t.Fatalf("far edge: want ErrNoSuchRelation, got %v", err)
	}
}
