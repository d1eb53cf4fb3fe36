package geojsonmapper

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

const somaPolygon = `{"type":"Polygon","coordinates":[[[-122.5,37.7],[-122.4,37.7],[-122.4,37.8],[-122.5,37.8],[-122.5,37.7]]]}`

func TestRingFromGeoJSON_PolygonAndFeature(t *testing.T) {
	ring, err := RingFromGeoJSON([]byte(somaPolygon))
	if err != nil {
		t.Fatalf("RingFromGeoJSON: %v", err)
	}
	if len(ring) != 4 || ring[0] != (hexgrid.LatLng{Lat: 37.7, Lng: -122.5}) {
		t.Fatalf("ring = %v", ring)
	}

	feature := `{"type":"Feature","properties":{},"geometry":` + somaPolygon + `}`
	ring2, err := RingFromGeoJSON([]byte(feature))
	if err != nil || !slices.Equal(ring, ring2) {
		t.Fatalf("feature ring = %v, %v", ring2, err)
	}
}

func TestRingFromGeoJSON_Rejects(t *testing.T) {
	cases := map[string]error{
		`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]],[[0.2,0.2],[0.3,0.2],[0.3,0.3],[0.2,0.2]]]}`: ErrUnsupportedGeometry,
		`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`:                                     ErrUnsupportedGeometry,
		`{"type":"Point","coordinates":[0,0]}`:                                                                    ErrUnsupportedGeometry,
		`{"type":"FeatureCollection","features":[]}`:                                                              ErrUnsupportedGeometry,
		`{"type":"Polygon","coordinates":[]}`:                                                                     hexgrid.ErrDegeneratePolygon,
		`{not json`: hexgrid.ErrInvalidFormat,
	}
	for body, want := range cases {
		if _, err := RingFromGeoJSON([]byte(body)); !errors.Is(err, want) {
			t.Fatalf("RingFromGeoJSON(%s) err = %v, want %v", body, err, want)
		}
	}
}

func TestCellsForPolygon_MatchesBBox(t *testing.T) {
	m := New(0)
	ctx := context.Background()
	fromPoly, err := m.CellsForPolygon(ctx, model.Polygon{GeoJSON: []byte(somaPolygon)}, 7, tiler.CenterInside)
	if err != nil {
		t.Fatalf("CellsForPolygon: %v", err)
	}
	fromBox, err := m.CellsForBBox(ctx, model.BBox{MinLat: 37.7, MinLng: -122.5, MaxLat: 37.8, MaxLng: -122.4}, 7, tiler.CenterInside)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	if len(fromPoly) == 0 || !slices.Equal(fromPoly, fromBox) {
		t.Fatalf("polygon %d cells, bbox %d cells", len(fromPoly), len(fromBox))
	}
	if !slices.IsSorted(fromPoly) {
		t.Fatalf("cells must be sorted")
	}
}

func TestCellFeatures_ClosedOutlines(t *testing.T) {
	cells := []hexgrid.Cell{
		hexgrid.MustParseCell("85283473fffffff"),
		hexgrid.MustParseCell("831c00fffffffff"),
	}
	fc, err := CellFeatures(cells)
	if err != nil {
		t.Fatalf("CellFeatures: %v", err)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Features) != 2 {
		t.Fatalf("features = %d", len(back.Features))
	}
	wantVerts := []int{7, 6}
	for i, f := range back.Features {
		var doc struct {
			Coordinates [][][2]float64 `json:"coordinates"`
		}
		gb, _ := json.Marshal(geojson.NewGeometry(f.Geometry))
		if err := json.Unmarshal(gb, &doc); err != nil {
			t.Fatalf("geometry: %v", err)
		}
		r := doc.Coordinates[0]
		if len(r) != wantVerts[i] || r[0] != r[len(r)-1] {
			t.Fatalf("feature %d ring has %d points (closed=%v)", i, len(r), r[0] == r[len(r)-1])
		}
		if f.Properties["cell"] != cells[i].String() {
			t.Fatalf("feature %d cell = %v", i, f.Properties["cell"])
		}
	}
}
