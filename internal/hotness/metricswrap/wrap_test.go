package metricswrap

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
	"github.com/mohammed-shakir/hexgrid/internal/hotness/expdecay"
	"github.com/mohammed-shakir/hexgrid/internal/metrics"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

var (
	cellA = hexgrid.MustParseCell("8928308280fffff")
	cellB = hexgrid.MustParseCell("85283473fffffff")
)

func Test_HotnessGauge_Updates(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	observability.Init(p.Registerer(), true)
	t.Cleanup(func() { observability.Init(nil, false) })

	w := New(expdecay.New(30*time.Second), Options{})
	w.Inc(cellA)
	w.Inc(cellB)
	w.Reset(cellA)

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if body := rr.Body.String(); !strings.Contains(body, `hexgrid_hot_cells{kind="tracked"} 1`) {
		t.Fatalf("expected hot cells gauge == 1, got:\n%s", body)
	}
}

func Test_ThresholdCrossingLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	w := New(expdecay.New(time.Hour), Options{Threshold: 3, LogSample: 1, Log: log})

	for range 5 {
		w.Inc(cellA)
	}
	if n := strings.Count(buf.String(), "hotness_threshold"); n != 1 {
		t.Fatalf("logged %d crossings, want 1:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), cellA.String()) {
		t.Fatalf("log line lacks the cell: %s", buf.String())
	}
	if w.Score(cellA) < 4.99 {
		t.Fatalf("score = %g", w.Score(cellA))
	}
}

func TestShouldLog(t *testing.T) {
	if shouldLog(0, cellA) || !shouldLog(1, cellA) {
		t.Fatalf("sampling bounds wrong")
	}
}
