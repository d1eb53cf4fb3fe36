// Package coverage serves polygon coverages through a local LRU, an optional
// shared Redis tier and a coalesced tiler run.
package coverage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/mohammed-shakir/hexgrid/internal/cache"
	"github.com/mohammed-shakir/hexgrid/internal/cache/keys"
	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
	"github.com/mohammed-shakir/hexgrid/internal/decision"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

// ErrTooLarge is returned when the estimated coverage exceeds MaxCells.
var ErrTooLarge = errors.New("coverage too large")

const (
	OutcomeLocal = "local"
	OutcomeRedis = "redis"
	OutcomeMiss  = "miss"
)

type Config struct {
	MaxCells   float64
	SeedRadius int
	TTL        time.Duration
	OpTimeout  time.Duration
	LocalSize  int
	// Share picks which fresh coverages go to the shared tier; nil shares all.
	Share decision.Interface
}

type Request struct {
	Ring []hexgrid.LatLng
	Res  int
	Mode tiler.Mode
}

type Response struct {
	Key   string
	Cells []hexgrid.Cell
	Cache string
}

type Service struct {
	cfg    Config
	local  *lru.Cache[string, []hexgrid.Cell]
	shared cache.Store
	group  singleflight.Group
	log    *slog.Logger
}

// New builds a Service; shared may be nil to run with the local tier only.
func New(cfg Config, shared cache.Store, log *slog.Logger) (*Service, error) {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = 1024
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	local, err := lru.New[string, []hexgrid.Cell](cfg.LocalSize)
	if err != nil {
		return nil, fmt.Errorf("coverage lru: %w", err)
	}
	return &Service{cfg: cfg, local: local, shared: shared, log: log}, nil
}

// Key returns the cache key a request is stored under.
func Key(req Request) string {
	return keys.CoverageKey(req.Res, req.Mode.String(), req.Ring)
}

func (s *Service) Cover(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	if s.cfg.MaxCells > 0 {
		est, err := tiler.EstimateCells(req.Ring, req.Res)
		if err != nil {
			return Response{}, err
		}
		if est > s.cfg.MaxCells {
			return Response{}, fmt.Errorf("%w: about %.0f cells at resolution %d, limit %.0f", ErrTooLarge, est, req.Res, s.cfg.MaxCells)
		}
	}

	key := Key(req)
	if cells, ok := s.local.Get(key); ok {
		observability.AddCacheHits(OutcomeLocal, 1)
		return s.done(req, Response{Key: key, Cells: cells, Cache: OutcomeLocal}, start), nil
	}
	if cells, ok := s.readShared(ctx, key); ok {
		s.local.Add(key, cells)
		observability.AddCacheHits(OutcomeRedis, 1)
		return s.done(req, Response{Key: key, Cells: cells, Cache: OutcomeRedis}, start), nil
	}
	observability.AddCacheMisses(1)

	v, err, _ := s.group.Do(key, func() (any, error) {
		t, err := tiler.New(req.Res, tiler.WithMode(req.Mode), tiler.WithSeedRadius(s.cfg.SeedRadius))
		if err != nil {
			return nil, err
		}
		cells, err := t.Cover(context.WithoutCancel(ctx), req.Ring)
		if err != nil {
			return nil, err
		}
		slices.Sort(cells)
		s.local.Add(key, cells)
		if s.shares(cells) {
			s.writeShared(ctx, key, cells)
		}
		return cells, nil
	})
	if err != nil {
		return Response{}, err
	}
	cells, _ := v.([]hexgrid.Cell)
	return s.done(req, Response{Key: key, Cells: cells, Cache: OutcomeMiss}, start), nil
}

// Warm computes and stores a coverage, returning the key and cell count.
func (s *Service) Warm(ctx context.Context, req Request) (string, int, error) {
	resp, err := s.Cover(ctx, req)
	if err != nil {
		return "", 0, err
	}
	if resp.Cache == OutcomeLocal || (resp.Cache == OutcomeMiss && !s.shares(resp.Cells)) {
		s.writeShared(ctx, resp.Key, resp.Cells)
	}
	return resp.Key, len(resp.Cells), nil
}

// Evict drops key from both tiers.
func (s *Service) Evict(ctx context.Context, key string) error {
	s.local.Remove(key)
	if s.shared == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	if err := s.shared.Del(cctx, key); err != nil {
		return fmt.Errorf("evict %s: %w", key, err)
	}
	return nil
}

func (s *Service) shares(cells []hexgrid.Cell) bool {
	return s.cfg.Share == nil || s.cfg.Share.ShouldShare(cells)
}

// Len reports the number of coverages in the local tier.
func (s *Service) Len() int { return s.local.Len() }

func (s *Service) done(req Request, resp Response, start time.Time) Response {
	observability.ObserveCoverage(req.Mode.String(), resp.Cache, len(resp.Cells), time.Since(start).Seconds())
	return resp
}

func (s *Service) readShared(ctx context.Context, key string) ([]hexgrid.Cell, bool) {
	if s.shared == nil {
		return nil, false
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	b, ok, err := s.shared.Get(cctx, key)
	if err != nil {
		s.log.Warn("coverage cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	cells, err := decodeCells(b)
	if err != nil {
		s.log.Warn("coverage cache entry unreadable", "key", key, "err", err)
		return nil, false
	}
	return cells, true
}

func (s *Service) writeShared(ctx context.Context, key string, cells []hexgrid.Cell) {
	if s.shared == nil {
		return
	}
	b, err := encodeCells(cells)
	if err != nil {
		s.log.Warn("coverage encode failed", "key", key, "err", err)
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OpTimeout)
	defer cancel()
	if err := s.shared.Set(cctx, key, b, s.cfg.TTL); err != nil {
		s.log.Warn("coverage cache write failed", "key", key, "err", err)
	}
}

// cached form: JSON array of hex strings, sorted
func encodeCells(cells []hexgrid.Cell) ([]byte, error) {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return json.Marshal(out)
}

func decodeCells(b []byte) ([]hexgrid.Cell, error) {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	cells := make([]hexgrid.Cell, 0, len(raw))
	for _, s := range raw {
		c, err := hexgrid.ParseCell(s)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", strconv.Quote(s), err)
		}
		cells = append(cells, c)
	}
	return cells, nil
}
