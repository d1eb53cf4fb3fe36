// Package router serves the grid over HTTP under /v1.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
	"github.com/mohammed-shakir/hexgrid/internal/coverage"
	"github.com/mohammed-shakir/hexgrid/internal/hitevents"
	"github.com/mohammed-shakir/hexgrid/internal/hotness"
	geojsonmapper "github.com/mohammed-shakir/hexgrid/internal/mapper/geojson"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

// Coverer is the part of coverage.Service the router needs.
type Coverer interface {
	Cover(ctx context.Context, req coverage.Request) (coverage.Response, error)
}

// Tracker counts cell lookups; Top is optional.
type Tracker interface {
	hotness.Interface
	Top(n int) []hotness.Ranked
}

type Options struct {
	Logger     *slog.Logger
	Coverage   Coverer
	Hotness    Tracker
	Events     hitevents.Sink
	DefaultRes int
	// MaxCells caps children listings; coverage has its own cap.
	MaxCells  float64
	MaxDiskK  int
	MaxBodyKB int64
}

type API struct {
	log    *slog.Logger
	cov    Coverer
	hot    Tracker
	events hitevents.Sink
	opts   Options
}

func New(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = hitevents.Discard{}
	}
	if opts.MaxDiskK <= 0 {
		opts.MaxDiskK = 50
	}
	if opts.MaxBodyKB <= 0 {
		opts.MaxBodyKB = 1024
	}
	return &API{log: opts.Logger, cov: opts.Coverage, hot: opts.Hotness, events: opts.Events, opts: opts}
}

// Routes returns the /v1 subtree.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/latlng", a.latLngToCell)
	r.Get("/hot", a.hottest)
	r.Route("/cells/{cell}", func(r chi.Router) {
		r.Get("/", a.decodeCell)
		r.Get("/parent", a.parent)
		r.Get("/children", a.children)
		r.Get("/center-child", a.centerChild)
		r.Get("/boundary", a.boundary)
		r.Get("/neighbors", a.neighbors)
		r.Get("/disk", a.disk)
		r.Get("/area", a.area)
		r.Get("/local-ij", a.localIJ)
		r.Get("/edges", a.edges)
		r.Get("/hotness", a.hotness)
	})
	r.Get("/edges/{edge}/length", a.edgeLength)
	r.Get("/polyfill", a.polyfill)
	r.Post("/polyfill", a.polyfill)
	return r
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps an error to its HTTP status and the kind reported in the body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, coverage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "RequestTooLarge"
	case errors.Is(err, geojsonmapper.ErrUnsupportedGeometry):
		return http.StatusBadRequest, "UnsupportedGeometry"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Timeout"
	}
	k := hexgrid.KindOf(err)
	switch k {
	case hexgrid.KindInvalidFormat, hexgrid.KindInvalidCoordinate, hexgrid.KindInvalidResolution,
		hexgrid.KindInvalidUnit, hexgrid.KindDegeneratePolygon:
		return http.StatusBadRequest, string(k)
	case hexgrid.KindNoSuchRelation:
		return http.StatusNotFound, string(k)
	case hexgrid.KindCoverageSearchExhausted:
		return http.StatusUnprocessableEntity, string(k)
	}
	return http.StatusInternalServerError, string(hexgrid.KindInternal)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code, kind := statusFor(err)
	if code >= http.StatusInternalServerError {
		a.log.ErrorContext(r.Context(), "request failed", "op", op, "err", err)
	} else {
		a.log.DebugContext(r.Context(), "request rejected", "op", op, "kind", kind, "err", err)
	}
	writeJSON(w, code, errorBody{Error: kind, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// timed runs fn and records it as a grid operation.
func timed[T any](op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	observability.ObserveGridOp(op, string(hexgrid.KindOf(err)), time.Since(start).Seconds())
	return v, err
}

func (a *API) touch(op string, c hexgrid.Cell) {
	if a.hot != nil {
		a.hot.Inc(c)
	}
	a.events.Publish(hitevents.Event{Op: op, Cell: c.String(), Res: c.Resolution(), Cells: 1})
}

func pathCell(r *http.Request) (hexgrid.Cell, error) {
	return hexgrid.ParseCell(chi.URLParam(r, "cell"))
}

// queryInt reads an integer parameter, returning def when it is absent.
func queryInt(r *http.Request, key string, def int, kind error) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %q is not an integer", key, kind, raw)
	}
	return n, nil
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, fmt.Errorf("%s: %w: required", key, hexgrid.ErrInvalidCoordinate)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %q is not a number", key, hexgrid.ErrInvalidCoordinate, raw)
	}
	return f, nil
}

// requireRes reads a mandatory resolution parameter.
func requireRes(r *http.Request) (int, error) {
	if r.URL.Query().Get("res") == "" {
		return 0, fmt.Errorf("res: %w: required", hexgrid.ErrInvalidResolution)
	}
	return queryInt(r, "res", 0, hexgrid.ErrInvalidResolution)
}
