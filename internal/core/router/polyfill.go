package router

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/internal/coverage"
	"github.com/mohammed-shakir/hexgrid/internal/hitevents"
	"github.com/mohammed-shakir/hexgrid/internal/logger"
	geojsonmapper "github.com/mohammed-shakir/hexgrid/internal/mapper/geojson"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

type polyfillBody struct {
	Res   int            `json:"res"`
	Mode  string         `json:"mode"`
	Key   string         `json:"key"`
	Cache string         `json:"cache"`
	Count int            `json:"count"`
	Cells []hexgrid.Cell `json:"cells"`
}

// polyfill covers a polygon given as ?polygon=lat,lng;..., ?bbox= or a
// GeoJSON Polygon or Feature body.
func (a *API) polyfill(w http.ResponseWriter, r *http.Request) {
	req, err := a.polyfillRequest(w, r)
	if err != nil {
		a.fail(w, r, "polyfill", err)
		return
	}
	if a.cov == nil {
		a.fail(w, r, "polyfill", errors.New("coverage service not configured"))
		return
	}

	resp, err := a.cov.Cover(r.Context(), req)
	if err != nil {
		a.fail(w, r, "polyfill", err)
		return
	}
	ctx := logger.WithCacheOutcome(r.Context(), resp.Cache)
	a.log.DebugContext(ctx, "polyfill served", "res", req.Res, "mode", req.Mode.String(), "cache", resp.Cache, "cells", len(resp.Cells))

	if a.hot != nil {
		for _, c := range resp.Cells {
			a.hot.Inc(c)
		}
	}
	a.events.Publish(hitevents.Event{
		Op: "polyfill", Res: req.Res, Mode: req.Mode.String(), Cache: resp.Cache, Cells: len(resp.Cells),
	})

	w.Header().Set("X-Cache", resp.Cache)
	if strings.EqualFold(r.URL.Query().Get("format"), "geojson") {
		fc, err := geojsonmapper.CellFeatures(resp.Cells)
		if err != nil {
			a.fail(w, r, "polyfill", err)
			return
		}
		writeGeoJSON(w, fc)
		return
	}
	cells := resp.Cells
	if cells == nil {
		cells = []hexgrid.Cell{}
	}
	writeJSON(w, http.StatusOK, polyfillBody{
		Res: req.Res, Mode: req.Mode.String(), Key: resp.Key, Cache: resp.Cache,
		Count: len(cells), Cells: cells,
	})
}

func (a *API) polyfillRequest(w http.ResponseWriter, r *http.Request) (coverage.Request, error) {
	q := r.URL.Query()
	res, err := queryInt(r, "res", a.opts.DefaultRes, hexgrid.ErrInvalidResolution)
	if err != nil {
		return coverage.Request{}, err
	}
	mode, err := tiler.ParseMode(q.Get("mode"))
	if err != nil {
		return coverage.Request{}, err
	}

	var ring []hexgrid.LatLng
	switch {
	case r.Method == http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.opts.MaxBodyKB<<10))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return coverage.Request{}, fmt.Errorf("%w: body above %d KiB", coverage.ErrTooLarge, a.opts.MaxBodyKB)
			}
			return coverage.Request{}, fmt.Errorf("read body: %w: %v", hexgrid.ErrInvalidFormat, err)
		}
		ring, err = geojsonmapper.RingFromGeoJSON(body)
		if err != nil {
			return coverage.Request{}, err
		}
	case q.Get("polygon") != "":
		ring, err = model.ParseRing(q.Get("polygon"))
		if err != nil {
			return coverage.Request{}, err
		}
	case q.Get("bbox") != "":
		bb, err := model.ParseBBox(q.Get("bbox"))
		if err != nil {
			return coverage.Request{}, err
		}
		ring = bb.Ring()
	default:
		return coverage.Request{}, fmt.Errorf("%w: one of polygon or bbox is required", hexgrid.ErrInvalidFormat)
	}
	return coverage.Request{Ring: ring, Res: res, Mode: mode}, nil
}

func writeGeoJSON(w http.ResponseWriter, v interface{ MarshalJSON() ([]byte, error) }) {
	b, err := v.MarshalJSON()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: string(hexgrid.KindInternal), Message: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
