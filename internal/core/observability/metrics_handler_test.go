package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestMetrics_RecordedAfterInit(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	t.Cleanup(func() { Init(nil, false) })

	ExposeBuildInfo("test")
	ObserveHTTP("GET", "/v1/latlng", 200, 0.001)
	ObserveGridOp("latlng_to_cell", "", 0.00002)
	ObserveGridOp("parent", "invalid_resolution", 0.00001)
	ObserveCoverage("center", "miss", 120, 0.01)
	ObserveCacheOp("get", nil, 0.001)
	ObserveCacheOp("set", errors.New("down"), 0.001)
	AddCacheHits("local", 2)
	AddCacheMisses(1)
	SetHotCellsGauge("tracked", 5)
	IncEventDrop("queue_full")

	body := scrape(t, reg)
	for _, want := range []string{
		`hexgrid_service_info{version="test"} 1`,
		`http_requests_total{method="GET",route="/v1/latlng",status="200"} 1`,
		`hexgrid_operations_total{kind="none",op="latlng_to_cell"} 1`,
		`hexgrid_operations_total{kind="invalid_resolution",op="parent"} 1`,
		`hexgrid_coverage_cells_count{mode="center"} 1`,
		`redis_operation_errors_total{op="set"} 1`,
		`coverage_cache_results_total{outcome="local"} 2`,
		`coverage_cache_results_total{outcome="miss"} 1`,
		`hexgrid_hot_cells{kind="tracked"} 5`,
		`lookup_events_dropped_total{reason="queue_full"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestMetrics_DisabledIsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, false)
	ObserveHTTP("GET", "/x", 200, 0.1)
	AddCacheMisses(3)
	if n, err := testutil.GatherAndCount(reg); err != nil || n != 0 {
		t.Fatalf("disabled registry gathered %d metrics (err=%v)", n, err)
	}
}
