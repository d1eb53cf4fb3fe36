// Package geojsonmapper converts between GeoJSON and grid cells.
package geojsonmapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/internal/mapper"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

// ErrUnsupportedGeometry covers holes, multi polygons and non polygon types.
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

type Mapper struct {
	seedRadius int
}

var _ mapper.Interface = (*Mapper)(nil)

func New(seedRadius int) *Mapper { return &Mapper{seedRadius: seedRadius} }

func (m *Mapper) CellsForBBox(ctx context.Context, bb model.BBox, res int, mode tiler.Mode) (model.Cells, error) {
	if err := bb.Validate(); err != nil {
		return nil, err
	}
	return m.CellsForRing(ctx, bb.Ring(), res, mode)
}

func (m *Mapper) CellsForPolygon(ctx context.Context, poly model.Polygon, res int, mode tiler.Mode) (model.Cells, error) {
	ring, err := RingFromGeoJSON(poly.GeoJSON)
	if err != nil {
		return nil, err
	}
	return m.CellsForRing(ctx, ring, res, mode)
}

func (m *Mapper) CellsForRing(ctx context.Context, ring []hexgrid.LatLng, res int, mode tiler.Mode) (model.Cells, error) {
	t, err := tiler.New(res, tiler.WithMode(mode), tiler.WithSeedRadius(m.seedRadius))
	if err != nil {
		return nil, err
	}
	cells, err := t.Cover(ctx, ring)
	if err != nil {
		return nil, err
	}
	slices.Sort(cells)
	return cells, nil
}

// RingFromGeoJSON reads a Polygon geometry, or a Feature holding one, and
// returns its outer ring latitude first with the closing vertex dropped.
func RingFromGeoJSON(raw []byte) ([]hexgrid.LatLng, error) {
	var hdr struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, fmt.Errorf("parse geojson: %w: %v", hexgrid.ErrInvalidFormat, err)
	}

	var g orb.Geometry
	switch hdr.Type {
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("parse feature: %w: %v", hexgrid.ErrInvalidFormat, err)
		}
		g = f.Geometry
	case "FeatureCollection":
		return nil, fmt.Errorf("%w: FeatureCollection", ErrUnsupportedGeometry)
	default:
		geom, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("parse geometry: %w: %v", hexgrid.ErrInvalidFormat, err)
		}
		g = geom.Geometry()
	}

	poly, ok := g.(orb.Polygon)
	if !ok {
		if g == nil {
			return nil, fmt.Errorf("%w: missing geometry", ErrUnsupportedGeometry)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("polygon: %w: no rings", hexgrid.ErrDegeneratePolygon)
	}
	if len(poly) > 1 {
		return nil, fmt.Errorf("%w: polygon with %d holes", ErrUnsupportedGeometry, len(poly)-1)
	}

	outer := poly[0]
	ring := make([]hexgrid.LatLng, 0, len(outer))
	for _, p := range outer {
		ring = append(ring, hexgrid.LatLng{Lat: p[1], Lng: p[0]})
	}
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}
	return ring, nil
}

// CellFeature returns the outline of c as a closed GeoJSON polygon.
func CellFeature(c hexgrid.Cell) (*geojson.Feature, error) {
	b, err := c.Boundary()
	if err != nil {
		return nil, err
	}
	ring := make(orb.Ring, 0, len(b)+1)
	for _, v := range b.LngLats() {
		ring = append(ring, orb.Point(v))
	}
	ring = append(ring, ring[0])

	f := geojson.NewFeature(orb.Polygon{ring})
	f.ID = c.String()
	f.Properties["cell"] = c.String()
	f.Properties["res"] = c.Resolution()
	f.Properties["pentagon"] = c.IsPentagon()
	return f, nil
}

func CellFeatures(cells []hexgrid.Cell) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		f, err := CellFeature(c)
		if err != nil {
			return nil, err
		}
		fc.Append(f)
	}
	return fc, nil
}
