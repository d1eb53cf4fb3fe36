// Package metricswrap publishes hotness tracker size and hot cell crossings.
package metricswrap

import (
	"log/slog"

	xx "github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
	"github.com/mohammed-shakir/hexgrid/internal/hotness"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

type Sizer interface{ Size() int }

type Options struct {
	// Threshold is the score at which a cell counts as hot; 0 disables logging.
	Threshold float64
	// LogSample is the fraction of crossings that are logged.
	LogSample float64
	Log       *slog.Logger
}

type WithMetrics struct {
	inner hotness.Interface
	opts  Options
}

var _ hotness.Interface = (*WithMetrics)(nil)

func New(inner hotness.Interface, opts Options) *WithMetrics {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &WithMetrics{inner: inner, opts: opts}
}

// Inner returns the wrapped tracker.
func (w *WithMetrics) Inner() hotness.Interface { return w.inner }

func (w *WithMetrics) Inc(cell hexgrid.Cell) {
	before := w.inner.Score(cell)
	w.inner.Inc(cell)
	if th := w.opts.Threshold; th > 0 {
		after := w.inner.Score(cell)
		if before < th && after >= th && shouldLog(w.opts.LogSample, cell) {
			w.opts.Log.Info("hot cell above threshold",
				"event", "hotness_threshold",
				"cell", cell.String(),
				"res", cell.Resolution(),
				"score", after,
			)
		}
	}
	w.publish()
}

func (w *WithMetrics) Score(cell hexgrid.Cell) float64 {
	return w.inner.Score(cell)
}

func (w *WithMetrics) Reset(cells ...hexgrid.Cell) {
	w.inner.Reset(cells...)
	w.publish()
}

// Top returns the hottest cells when the wrapped tracker can rank them.
func (w *WithMetrics) Top(n int) []hotness.Ranked {
	if r, ok := w.inner.(interface{ Top(int) []hotness.Ranked }); ok {
		return r.Top(n)
	}
	return nil
}

func (w *WithMetrics) publish() {
	if s, ok := w.inner.(Sizer); ok {
		observability.SetHotCellsGauge("tracked", s.Size())
	}
}

func shouldLog(sample float64, cell hexgrid.Cell) bool {
	if sample <= 0 {
		return false
	}
	if sample >= 1 {
		return true
	}
	const denom = 10000
	threshold := uint64(sample*denom + 0.5)
	if threshold == 0 {
		return false
	}
	return xx.Sum64String(cell.String())%denom < threshold
}
