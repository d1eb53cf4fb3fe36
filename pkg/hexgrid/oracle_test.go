//go:build cgo

package hexgrid_test

import (
	"math"
	"math/rand"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

// The reference C library shares the bit layout, so indexes must agree
// exactly.
func TestLatLngToCell_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		lat := math.Asin(2*rng.Float64()-1) * 180 / math.Pi
		lng := rng.Float64()*360 - 180
		res := i % (hexgrid.MaxResolution + 1)

		got, err := hexgrid.LatLngToCell(hexgrid.LatLng{Lat: lat, Lng: lng}, res)
		if err != nil {
			t.Fatalf("hexgrid (%v,%v): %v", lat, lng, err)
		}
		want, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res)
		if err != nil {
			t.Fatalf("h3 (%v,%v): %v", lat, lng, err)
		}
		if got.String() != want.String() {
			t.Fatalf("(%v,%v) res %d: got %s want %s", lat, lng, res, got, want)
		}
	}
}

func TestHierarchy_MatchesReference(t *testing.T) {
	cells := []string{"8928308280fffff", "85283473fffffff", "8409993ffffffff", "831c00fffffffff"}
	for _, s := range cells {
		ours := hexgrid.MustParseCell(s)
		var theirs h3.Cell
		if err := theirs.UnmarshalText([]byte(s)); err != nil {
			t.Fatalf("h3 parse %s: %v", s, err)
		}
		for r := 0; r < ours.Resolution(); r++ {
			a, _ := ours.Parent(r)
			b, err := theirs.Parent(r)
			if err != nil {
				t.Fatalf("h3 parent: %v", err)
			}
			if a.String() != b.String() {
				t.Fatalf("parent(%s,%d): got %s want %s", s, r, a, b)
			}
		}
		want, err := theirs.Children(ours.Resolution() + 2)
		if err != nil {
			t.Fatalf("h3 children: %v", err)
		}
		got, _ := ours.Children(ours.Resolution() + 2)
		set := map[string]bool{}
		for _, c := range want {
			set[c.String()] = true
		}
		if len(got) != len(want) {
			t.Fatalf("children(%s): got %d want %d", s, len(got), len(want))
		}
		for _, c := range got {
			if !set[c.String()] {
				t.Fatalf("children(%s): unexpected %s", s, c)
			}
		}
	}
}
