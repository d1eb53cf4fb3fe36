// Package model defines request shapes shared by the HTTP layer, the jobs
// runner and the CLI.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

// BBox is a latitude/longitude box. MinLng may exceed MaxLng when the box
// crosses the antimeridian.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}

func (b BBox) Validate() error {
	for _, ll := range []hexgrid.LatLng{{Lat: b.MinLat, Lng: b.MinLng}, {Lat: b.MaxLat, Lng: b.MaxLng}} {
		if _, err := hexgrid.NewLatLng(ll.Lat, ll.Lng); err != nil {
			return fmt.Errorf("bbox: %w", err)
		}
	}
	if b.MaxLat <= b.MinLat || b.MinLng == b.MaxLng {
		return fmt.Errorf("bbox %s: %w: empty box", b, hexgrid.ErrDegeneratePolygon)
	}
	return nil
}

// Ring returns the box as a counter-clockwise four vertex ring. A box with
// MaxLng below MinLng crosses the antimeridian; the tiler unwraps it.
func (b BBox) Ring() []hexgrid.LatLng {
	return []hexgrid.LatLng{
		{Lat: b.MinLat, Lng: b.MinLng},
		{Lat: b.MinLat, Lng: b.MaxLng},
		{Lat: b.MaxLat, Lng: b.MaxLng},
		{Lat: b.MaxLat, Lng: b.MinLng},
	}
}

// ParseBBox reads "minLat,minLng,maxLat,maxLng".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bbox %q: %w: want minLat,minLng,maxLat,maxLng", s, hexgrid.ErrInvalidCoordinate)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox %q: %w: %v", s, hexgrid.ErrInvalidCoordinate, err)
		}
		v[i] = f
	}
	b := BBox{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}
	return b, b.Validate()
}

// ParseRing reads "lat,lng;lat,lng;..." into a ring.
func ParseRing(s string) ([]hexgrid.LatLng, error) {
	var ring []hexgrid.LatLng
	for i, pair := range strings.Split(strings.TrimSpace(s), ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		ll, err := ParseLatLng(pair)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		ring = append(ring, ll)
	}
	return ring, nil
}

// ParseLatLng reads "lat,lng".
func ParseLatLng(s string) (hexgrid.LatLng, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return hexgrid.LatLng{}, fmt.Errorf("%q: %w: want lat,lng", s, hexgrid.ErrInvalidCoordinate)
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err1 != nil || err2 != nil {
		return hexgrid.LatLng{}, fmt.Errorf("%q: %w: not a number", s, hexgrid.ErrInvalidCoordinate)
	}
	return hexgrid.NewLatLng(la, lo)
}

// Polygon holds a raw GeoJSON geometry.
type Polygon struct {
	GeoJSON []byte
}

type Cells []hexgrid.Cell

func (cs Cells) Strings() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
