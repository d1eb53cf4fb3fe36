package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/internal/coverage"
	"github.com/mohammed-shakir/hexgrid/internal/jobs"
)

type fakeCoverer struct {
	mu      sync.Mutex
	warmed  []coverage.Request
	evicted []string
	err     error
}

func (f *fakeCoverer) Warm(_ context.Context, req coverage.Request) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warmed = append(f.warmed, req)
	return coverage.Key(req), 3, f.err
}

func (f *fakeCoverer) Evict(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evicted = append(f.evicted, key)
	return f.err
}

func newTestRunner(t *testing.T, fc *fakeCoverer) (*Runner, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.Enabled = true
	return New(cfg, fc, Options{Register: reg}), reg
}

func message(t *testing.T, ev jobs.Event) *sarama.ConsumerMessage {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "t", Partition: 0, Offset: 1, Timestamp: ev.TS, Value: b}
}

var ring = [][2]float64{{37.7, -122.5}, {37.7, -122.4}, {37.8, -122.4}, {37.8, -122.5}}

func TestWarm_AppliedOnceThenSkipped(t *testing.T) {
	fc := &fakeCoverer{}
	r, reg := newTestRunner(t, fc)
	ctx := context.Background()

	ts := time.Now().Add(-time.Second).UTC()
	msg := message(t, jobs.Event{Version: 1, ID: "warm-soma", Op: jobs.OpWarm, Res: 8, Mode: "overlap", Ring: ring, TS: ts})
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("replayed handleMessage: %v", err)
	}
	if len(fc.warmed) != 1 {
		t.Fatalf("warmed %d times, want 1", len(fc.warmed))
	}
	if got := testutil.ToFloat64(r.ms.apply.WithLabelValues("skip_version")); got != 1 {
		t.Fatalf("skip_version = %g", got)
	}
	if got := testutil.ToFloat64(r.ms.lagGauge); got < 1 {
		t.Fatalf("lag gauge = %g", got)
	}
	if n, _ := testutil.GatherAndCount(reg, "coverage_jobs_processing_seconds"); n != 1 {
		t.Fatalf("processing histogram series = %d", n)
	}

	// a newer version of the same job is applied again
	newer := message(t, jobs.Event{Version: 1, ID: "warm-soma", Op: jobs.OpWarm, Res: 8, Mode: "overlap", Ring: ring, TS: ts.Add(time.Millisecond)})
	if err := r.handleMessage(ctx, newer); err != nil {
		t.Fatalf("newer handleMessage: %v", err)
	}
	if len(fc.warmed) != 2 {
		t.Fatalf("newer version not applied")
	}
}

func TestEvict_UsesCoverageKey(t *testing.T) {
	fc := &fakeCoverer{}
	r, _ := newTestRunner(t, fc)
	bb := &model.BBox{MinLat: 55, MinLng: 11, MaxLat: 56, MaxLng: 12}
	ev := jobs.Event{Version: 1, ID: "evict-1", Op: jobs.OpEvict, Res: 6, BBox: bb, TS: time.Now().UTC()}
	if err := r.handleMessage(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	req, _ := ev.Request()
	if len(fc.evicted) != 1 || fc.evicted[0] != coverage.Key(req) {
		t.Fatalf("evicted = %v", fc.evicted)
	}
}

func TestBadMessages_CountedAsErrors(t *testing.T) {
	fc := &fakeCoverer{}
	r, _ := newTestRunner(t, fc)
	ctx := context.Background()

	if err := r.handleMessage(ctx, &sarama.ConsumerMessage{Value: []byte("{")}); err == nil {
		t.Fatalf("expected decode error")
	}
	bad := message(t, jobs.Event{Version: 2, ID: "x", Op: jobs.OpWarm, Res: 8, Ring: ring, TS: time.Now()})
	if err := r.handleMessage(ctx, bad); err == nil {
		t.Fatalf("expected validation error")
	}
	fc.err = errors.New("tiler failed")
	failing := message(t, jobs.Event{Version: 1, ID: "y", Op: jobs.OpWarm, Res: 8, Ring: ring, TS: time.Now()})
	if err := r.handleMessage(ctx, failing); err == nil {
		t.Fatalf("expected warm error")
	}
	if got := testutil.ToFloat64(r.ms.msgs.WithLabelValues("error")); got != 3 {
		t.Fatalf("error count = %g, want 3", got)
	}
}

func TestReadiness_TracksAssignment(t *testing.T) {
	r, _ := newTestRunner(t, &fakeCoverer{})
	if ok, _ := r.Readiness(); ok {
		t.Fatalf("ready before assignment")
	}
	r.assignMu.Lock()
	r.assigned.Store(true)
	r.assign = map[int32]struct{}{0: {}, 2: {}}
	r.assignMu.Unlock()
	ok, parts := r.Readiness()
	if !ok || len(parts) != 2 {
		t.Fatalf("readiness = %v %v", ok, parts)
	}
	r.onRevoke()
	if ok, _ := r.Readiness(); ok {
		t.Fatalf("ready after revoke")
	}
}

func TestStart_DisabledAndMisconfigured(t *testing.T) {
	r := New(DefaultConfig(), &fakeCoverer{}, Options{})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("disabled Start: %v", err)
	}
	r.Stop()

	cfg := DefaultConfig()
	cfg.Enabled = true
	if err := New(cfg, &fakeCoverer{}, Options{}).Start(context.Background()); err == nil {
		t.Fatalf("expected error without brokers")
	}
	cfg.Brokers = []string{"localhost:9092"}
	if err := New(cfg, nil, Options{}).Start(context.Background()); err == nil {
		t.Fatalf("expected error without coverage service")
	}
}

func TestVersionDedupe(t *testing.T) {
	d := newVersionDedupe(2)
	if d.applied("a", 1) {
		t.Fatalf("unseen id reported applied")
	}
	d.record("a", 2)
	d.record("a", 1)
	if !d.applied("a", 1) || !d.applied("a", 2) || d.applied("a", 3) {
		t.Fatalf("dedupe order wrong")
	}
}

func TestWarm_FailedJobIsRetriedOnRedelivery(t *testing.T) {
	fc := &fakeCoverer{err: errors.New("redis: i/o timeout")}
	r, _ := newTestRunner(t, fc)
	ctx := context.Background()

	msg := message(t, jobs.Event{Version: 1, ID: "warm-retry", Op: jobs.OpWarm, Res: 8, Mode: "overlap", Ring: ring, TS: time.Now().UTC()})
	if err := r.handleMessage(ctx, msg); err == nil {
		t.Fatalf("expected warm error")
	}

	fc.mu.Lock()
	fc.err = nil
	fc.mu.Unlock()
	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("redelivered handleMessage: %v", err)
	}
	if len(fc.warmed) != 2 {
		t.Fatalf("warmed %d times, want 2", len(fc.warmed))
	}
	if got := testutil.ToFloat64(r.ms.apply.WithLabelValues("skip_version")); got != 0 {
		t.Fatalf("skip_version = %g", got)
	}

	if err := r.handleMessage(ctx, msg); err != nil {
		t.Fatalf("third handleMessage: %v", err)
	}
	if len(fc.warmed) != 2 {
		t.Fatalf("applied after success: warmed %d times", len(fc.warmed))
	}
}
