// Package mapper turns request geometries into grid cells.
package mapper

import (
	"context"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

type Interface interface {
	CellsForBBox(ctx context.Context, bb model.BBox, res int, mode tiler.Mode) (model.Cells, error)
	CellsForPolygon(ctx context.Context, poly model.Polygon, res int, mode tiler.Mode) (model.Cells, error)
	CellsForRing(ctx context.Context, ring []hexgrid.LatLng, res int, mode tiler.Mode) (model.Cells, error)
}
