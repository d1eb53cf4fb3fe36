// Package observability holds the service's Prometheus metric vectors.
// Nothing is recorded until Init registers the vectors; every helper is a
// no-op before that or when metrics are disabled.
package observability

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type vectors struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	gridOps        *prometheus.CounterVec
	gridOpDuration *prometheus.HistogramVec
	coverageCells  *prometheus.HistogramVec
	coverageTime   *prometheus.HistogramVec
	cacheOps       *prometheus.HistogramVec
	cacheOpErrors  *prometheus.CounterVec
	cacheResults   *prometheus.CounterVec
	hotCells       *prometheus.GaugeVec
	eventDrops     *prometheus.CounterVec
	buildInfo      *prometheus.GaugeVec
}

var (
	mu     sync.Mutex
	active atomic.Pointer[vectors]
)

func newVectors() *vectors {
	return &vectors{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"method", "route", "status"}),
		gridOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hexgrid_operations_total",
			Help: "Grid operations by outcome kind.",
		}, []string{"op", "kind"}),
		gridOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hexgrid_operation_duration_seconds",
			Help:    "Duration of grid operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"op"}),
		coverageCells: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hexgrid_coverage_cells",
			Help:    "Number of cells returned by polygon coverage.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"mode"}),
		coverageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hexgrid_coverage_duration_seconds",
			Help:    "Duration of polygon coverage by cache outcome.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"mode", "cache"}),
		cacheOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Duration of Redis cache operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"op"}),
		cacheOpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redis_operation_errors_total",
			Help: "Failed Redis cache operations.",
		}, []string{"op"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_cache_results_total",
			Help: "Coverage cache lookups by outcome.",
		}, []string{"outcome"}),
		hotCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hexgrid_hot_cells",
			Help: "Cells tracked by the hotness tracker.",
		}, []string{"kind"}),
		eventDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookup_events_dropped_total",
			Help: "Lookup events dropped before reaching Kafka.",
		}, []string{"reason"}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hexgrid_service_info",
			Help: "Service version (value is always 1).",
		}, []string{"version"}),
	}
}

func (v *vectors) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		v.httpRequests, v.httpDuration, v.gridOps, v.gridOpDuration,
		v.coverageCells, v.coverageTime, v.cacheOps, v.cacheOpErrors,
		v.cacheResults, v.hotCells, v.eventDrops, v.buildInfo,
	}
}

// Init registers a fresh set of vectors on reg. Calling it again replaces the
// active set, which lets tests use their own registries.
func Init(reg prometheus.Registerer, enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || reg == nil {
		active.Store(nil)
		return
	}
	v := newVectors()
	for _, c := range v.collectors() {
		if err := reg.Register(c); err != nil {
			active.Store(nil)
			return
		}
	}
	active.Store(v)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	v := active.Load()
	if v == nil {
		return
	}
	st := strconv.Itoa(status)
	v.httpRequests.WithLabelValues(method, route, st).Inc()
	v.httpDuration.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveGridOp records one library call; kind is "none" on success.
func ObserveGridOp(op, kind string, durationSeconds float64) {
	v := active.Load()
	if v == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	v.gridOps.WithLabelValues(op, kind).Inc()
	v.gridOpDuration.WithLabelValues(op).Observe(durationSeconds)
}

func ObserveCoverage(mode, cache string, cells int, durationSeconds float64) {
	v := active.Load()
	if v == nil {
		return
	}
	v.coverageCells.WithLabelValues(mode).Observe(float64(cells))
	v.coverageTime.WithLabelValues(mode, cache).Observe(durationSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	v := active.Load()
	if v == nil {
		return
	}
	v.cacheOps.WithLabelValues(op).Observe(durationSeconds)
	if err != nil {
		v.cacheOpErrors.WithLabelValues(op).Inc()
	}
}

func AddCacheHits(tier string, n int) {
	v := active.Load()
	if v == nil || n <= 0 {
		return
	}
	v.cacheResults.WithLabelValues(tier).Add(float64(n))
}

func AddCacheMisses(n int) {
	v := active.Load()
	if v == nil || n <= 0 {
		return
	}
	v.cacheResults.WithLabelValues("miss").Add(float64(n))
}

func SetHotCellsGauge(kind string, n int) {
	if v := active.Load(); v != nil {
		v.hotCells.WithLabelValues(kind).Set(float64(n))
	}
}

func IncEventDrop(reason string) {
	if v := active.Load(); v != nil {
		v.eventDrops.WithLabelValues(reason).Inc()
	}
}

func ExposeBuildInfo(version string) {
	v := active.Load()
	if v == nil {
		return
	}
	if version == "" {
		version = "dev"
	}
	v.buildInfo.WithLabelValues(version).Set(1)
}
