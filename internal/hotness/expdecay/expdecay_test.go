package expdecay

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTrackerForTest(hl time.Duration) (*Tracker, *fakeClock) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	tr := New(hl)
	tr.now = fc.Now
	return tr, fc
}

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

var (
	cellA = hexgrid.MustParseCell("8928308280fffff")
	cellB = hexgrid.MustParseCell("85283473fffffff")
	cellC = hexgrid.MustParseCell("831c00fffffffff")
)

func TestIncAndScore_AccumulatesImmediately(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)
	for i := 1; i <= 3; i++ {
		tr.Inc(cellA)
		almostEq(t, tr.Score(cellA), float64(i), 1e-9)
	}
	if tr.Score(cellB) != 0 {
		t.Fatalf("untouched cell has a score")
	}
}

func TestHalfLife_DecaysByHalf(t *testing.T) {
	hl := 2 * time.Second
	tr, fc := newTrackerForTest(hl)

	tr.Inc(cellA)
	fc.Add(hl)
	almostEq(t, tr.Score(cellA), 0.5, 1e-6)
	fc.Add(hl)
	almostEq(t, tr.Score(cellA), 0.25, 1e-6)

	tr.Inc(cellA)
	almostEq(t, tr.Score(cellA), 1.25, 1e-6)
}

func TestConcurrency_ManyIncSameCell(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)
	const N = 256

	var wg sync.WaitGroup
	wg.Add(N)
	for range N {
		go func() {
			tr.Inc(cellA)
			wg.Done()
		}()
	}
	wg.Wait()
	almostEq(t, tr.Score(cellA), N, 1e-9)
}

func TestReset_OnlySelectedCells(t *testing.T) {
	tr, _ := newTrackerForTest(30 * time.Second)
	tr.Inc(cellA)
	tr.Inc(cellB)
	tr.Reset(cellA)

	if got := tr.Score(cellA); got != 0 {
		t.Fatalf("reset failed: got %g want 0", got)
	}
	if got := tr.Score(cellB); got <= 0 {
		t.Fatalf("unexpected reset of %s: got %g", cellB, got)
	}
	if tr.Size() != 1 {
		t.Fatalf("size = %d", tr.Size())
	}
}

func TestTopAndPrune(t *testing.T) {
	tr, fc := newTrackerForTest(10 * time.Second)
	for range 3 {
		tr.Inc(cellA)
	}
	fc.Add(10 * time.Second)
	tr.Inc(cellB)
	tr.Inc(cellB)
	tr.Inc(cellC)

	top := tr.Top(2)
	if len(top) != 2 || top[0].Cell != cellB || top[1].Cell != cellA {
		t.Fatalf("top = %+v", top)
	}
	almostEq(t, top[1].Score, 1.5, 1e-6)
	if tr.Top(0) != nil {
		t.Fatalf("Top(0) should be nil")
	}

	fc.Add(20 * time.Second)
	// A=0.375, B=0.5, C=0.25
	if n := tr.Prune(0.4); n != 2 {
		t.Fatalf("pruned %d, want 2", n)
	}
	if tr.Size() != 1 || tr.Score(cellB) == 0 {
		t.Fatalf("wrong cell survived prune")
	}
}

func TestDecayHelper_Edges(t *testing.T) {
	if got := decay(0, 10, 60); got != 0 {
		t.Fatalf("expected 0, got %g", got)
	}
	if got := decay(5, 0, 60); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
	if got := decay(5, 10, 0); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
}
