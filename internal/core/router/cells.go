package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexgrid/internal/coverage"
	geojsonmapper "github.com/mohammed-shakir/hexgrid/internal/mapper/geojson"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

type cellInfo struct {
	Cell     hexgrid.Cell         `json:"cell"`
	Res      int                  `json:"res"`
	BaseCell int                  `json:"base_cell"`
	Pentagon bool                 `json:"pentagon"`
	ClassIII bool                 `json:"class_iii"`
	Center   hexgrid.LatLng       `json:"center"`
	Boundary hexgrid.CellBoundary `json:"boundary"`
}

func (a *API) decodeCell(w http.ResponseWriter, r *http.Request) {
	info, err := timed("decode", func() (cellInfo, error) {
		c, err := pathCell(r)
		if err != nil {
			return cellInfo{}, err
		}
		center, err := c.LatLng()
		if err != nil {
			return cellInfo{}, err
		}
		b, err := c.Boundary()
		if err != nil {
			return cellInfo{}, err
		}
		return cellInfo{
			Cell: c, Res: c.Resolution(), BaseCell: c.BaseCell(),
			Pentagon: c.IsPentagon(), ClassIII: c.IsClassIII(),
			Center: center, Boundary: b,
		}, nil
	})
	if err != nil {
		a.fail(w, r, "decode", err)
		return
	}
	a.touch("decode", info.Cell)
	writeJSON(w, http.StatusOK, info)
}

func (a *API) latLngToCell(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Cell hexgrid.Cell `json:"cell"`
		Res  int          `json:"res"`
		Lat  float64      `json:"lat"`
		Lng  float64      `json:"lng"`
	}
	v, err := timed("latlng_to_cell", func() (out, error) {
		lat, err := queryFloat(r, "lat")
		if err != nil {
			return out{}, err
		}
		lng, err := queryFloat(r, "lng")
		if err != nil {
			return out{}, err
		}
		res, err := queryInt(r, "res", a.opts.DefaultRes, hexgrid.ErrInvalidResolution)
		if err != nil {
			return out{}, err
		}
		c, err := hexgrid.LatLngToCell(hexgrid.LatLng{Lat: lat, Lng: lng}, res)
		if err != nil {
			return out{}, err
		}
		return out{Cell: c, Res: res, Lat: lat, Lng: lng}, nil
	})
	if err != nil {
		a.fail(w, r, "latlng_to_cell", err)
		return
	}
	a.touch("latlng_to_cell", v.Cell)
	writeJSON(w, http.StatusOK, v)
}

type relation struct {
	Cell   hexgrid.Cell `json:"cell"`
	Res    int          `json:"res"`
	Result hexgrid.Cell `json:"result"`
}

func (a *API) parent(w http.ResponseWriter, r *http.Request) {
	a.related(w, r, "parent", hexgrid.Cell.Parent)
}

func (a *API) centerChild(w http.ResponseWriter, r *http.Request) {
	a.related(w, r, "center_child", hexgrid.Cell.CenterChild)
}

func (a *API) related(w http.ResponseWriter, r *http.Request, op string, fn func(hexgrid.Cell, int) (hexgrid.Cell, error)) {
	v, err := timed(op, func() (relation, error) {
		c, err := pathCell(r)
		if err != nil {
			return relation{}, err
		}
		res, err := requireRes(r)
		if err != nil {
			return relation{}, err
		}
		out, err := fn(c, res)
		if err != nil {
			return relation{}, err
		}
		return relation{Cell: c, Res: res, Result: out}, nil
	})
	if err != nil {
		a.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) children(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Cell     hexgrid.Cell   `json:"cell"`
		Res      int            `json:"res"`
		Count    int            `json:"count"`
		Children []hexgrid.Cell `json:"children"`
	}
	v, err := timed("children", func() (out, error) {
		c, err := pathCell(r)
		if err != nil {
			return out{}, err
		}
		res, err := requireRes(r)
		if err != nil {
			return out{}, err
		}
		n, err := c.ChildCount(res)
		if err != nil {
			return out{}, err
		}
		if a.opts.MaxCells > 0 && float64(n) > a.opts.MaxCells {
			return out{}, fmt.Errorf("%w: %d children, limit %.0f", coverage.ErrTooLarge, n, a.opts.MaxCells)
		}
		kids, err := c.Children(res)
		if err != nil {
			return out{}, err
		}
		return out{Cell: c, Res: res, Count: len(kids), Children: kids}, nil
	})
	if err != nil {
		a.fail(w, r, "children", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) boundary(w http.ResponseWriter, r *http.Request) {
	f, err := timed("boundary", func() (*geojson.Feature, error) {
		c, err := pathCell(r)
		if err != nil {
			return nil, err
		}
		return geojsonmapper.CellFeature(c)
	})
	if err != nil {
		a.fail(w, r, "boundary", err)
		return
	}
	writeGeoJSON(w, f)
}

func (a *API) neighbors(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Cell      hexgrid.Cell   `json:"cell"`
		Neighbors []hexgrid.Cell `json:"neighbors"`
	}
	v, err := timed("neighbors", func() (out, error) {
		c, err := pathCell(r)
		if err != nil {
			return out{}, err
		}
		ns, err := c.Neighbors()
		return out{Cell: c, Neighbors: ns}, err
	})
	if err != nil {
		a.fail(w, r, "neighbors", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) disk(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Cell  hexgrid.Cell     `json:"cell"`
		K     int              `json:"k"`
		Count int              `json:"count"`
		Rings [][]hexgrid.Cell `json:"rings"`
	}
	v, err := timed("grid_disk", func() (out, error) {
		c, err := pathCell(r)
		if err != nil {
			return out{}, err
		}
		k, err := queryInt(r, "k", 1, hexgrid.ErrInvalidFormat)
		if err != nil {
			return out{}, err
		}
		if k > a.opts.MaxDiskK {
			return out{}, fmt.Errorf("%w: k %d above %d", coverage.ErrTooLarge, k, a.opts.MaxDiskK)
		}
		rings, err := hexgrid.GridDiskDistances(c, k)
		if err != nil {
			return out{}, err
		}
		n := 0
		for _, ring := range rings {
			n += len(ring)
		}
		return out{Cell: c, K: k, Count: n, Rings: rings}, nil
	})
	if err != nil {
		a.fail(w, r, "grid_disk", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) area(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Cell hexgrid.Cell     `json:"cell"`
		Unit hexgrid.AreaUnit `json:"unit"`
		Area float64          `json:"area"`
	}
	v, err := timed("area", func() (out, error) {
		c, err := pathCell(r)
		if err != nil {
			return out{}, err
		}
		unit := r.URL.Query().Get("unit")
		if unit == "" {
			unit = string(hexgrid.SquareKilometers)
		}
		u, err := hexgrid.ParseAreaUnit(unit)
		if err != nil {
			return out{}, err
		}
		area, err := c.Area(u)
		return out{Cell: c, Unit: u, Area: area}, err
	})
	if err != nil {
		a.fail(w, r, "area", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) localIJ(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Cell   hexgrid.Cell `json:"cell"`
		Origin hexgrid.Cell `json:"origin"`
		hexgrid.CoordIJ
	}
	v, err := timed("local_ij", func() (out, error) {
		c, err := pathCell(r)
		if err != nil {
			return out{}, err
		}
		origin, err := hexgrid.ParseCell(r.URL.Query().Get("origin"))
		if err != nil {
			return out{}, err
		}
		ij, err := hexgrid.CellToLocalIJ(origin, c)
		return out{Cell: c, Origin: origin, CoordIJ: ij}, err
	})
	if err != nil {
		a.fail(w, r, "local_ij", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) edges(w http.ResponseWriter, r *http.Request) {
	type edge struct {
		Edge        hexgrid.DirectedEdge `json:"edge"`
		Destination hexgrid.Cell         `json:"destination"`
		LengthKm    float64              `json:"length_km"`
	}
	c, err := pathCell(r)
	if err != nil {
		a.fail(w, r, "edges", err)
		return
	}
	v, err := timed("edges", func() ([]edge, error) {
		es, err := c.DirectedEdges()
		if err != nil {
			return nil, err
		}
		out := make([]edge, 0, len(es))
		for _, e := range es {
			dest, err := e.Destination()
			if err != nil {
				return nil, err
			}
			l, err := e.Length(hexgrid.Kilometers)
			if err != nil {
				return nil, err
			}
			out = append(out, edge{Edge: e, Destination: dest, LengthKm: l})
		}
		return out, nil
	})
	if err != nil {
		a.fail(w, r, "edges", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": c, "edges": v})
}

func (a *API) edgeLength(w http.ResponseWriter, r *http.Request) {
	type out struct {
		Edge           hexgrid.DirectedEdge `json:"edge"`
		Origin         hexgrid.Cell         `json:"origin"`
		Destination    hexgrid.Cell         `json:"destination"`
		Unit           hexgrid.LengthUnit   `json:"unit"`
		Length         float64              `json:"length"`
		CenterDistance float64              `json:"center_distance"`
	}
	v, err := timed("edge_length", func() (out, error) {
		e, err := hexgrid.ParseDirectedEdge(chi.URLParam(r, "edge"))
		if err != nil {
			return out{}, err
		}
		unit := r.URL.Query().Get("unit")
		if unit == "" {
			unit = string(hexgrid.Kilometers)
		}
		u, err := hexgrid.ParseLengthUnit(unit)
		if err != nil {
			return out{}, err
		}
		o, err := e.Origin()
		if err != nil {
			return out{}, err
		}
		d, err := e.Destination()
		if err != nil {
			return out{}, err
		}
		l, err := e.Length(u)
		if err != nil {
			return out{}, err
		}
		cd, err := e.CenterDistance(u)
		return out{Edge: e, Origin: o, Destination: d, Unit: u, Length: l, CenterDistance: cd}, err
	})
	if err != nil {
		a.fail(w, r, "edge_length", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *API) hotness(w http.ResponseWriter, r *http.Request) {
	c, err := pathCell(r)
	if err != nil {
		a.fail(w, r, "hotness", err)
		return
	}
	score := 0.0
	if a.hot != nil {
		score = a.hot.Score(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": c, "score": score})
}

func (a *API) hottest(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 10, hexgrid.ErrInvalidFormat)
	if err != nil {
		a.fail(w, r, "hot", err)
		return
	}
	if n < 0 || n > 1000 {
		a.fail(w, r, "hot", fmt.Errorf("n: %w: %d not in [0,1000]", hexgrid.ErrInvalidFormat, n))
		return
	}
	var top any = []struct{}{}
	if a.hot != nil {
		if t := a.hot.Top(n); t != nil {
			top = t
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cells": top})
}
