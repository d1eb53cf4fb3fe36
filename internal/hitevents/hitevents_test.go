package hitevents

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
)

func mockConfig() *sarama.Config {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = false
	return cfg
}

func TestPublish_DeliversJSON(t *testing.T) {
	prod := mocks.NewAsyncProducer(t, mockConfig())
	prod.ExpectInputWithCheckerFunctionAndSucceed(func(b []byte) error {
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			return err
		}
		if ev.Op != "cell" || ev.Cell != "8928308280fffff" || ev.Res != 9 || ev.TS.IsZero() {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	p := NewWithProducer(prod, "hexgrid-lookups", 4, nil)
	p.Publish(Event{Op: "cell", Cell: "8928308280fffff", Res: 9, Cells: 1})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublish_AfterCloseIsDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.Init(reg, true)
	t.Cleanup(func() { observability.Init(nil, false) })

	prod := mocks.NewAsyncProducer(t, mockConfig())
	p := NewWithProducer(prod, "hexgrid-lookups", 1, nil)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	p.Publish(Event{Op: "polyfill", Res: 8, TS: time.Now()})

	n, err := testutil.GatherAndCount(reg, "lookup_events_dropped_total")
	if err != nil || n != 1 {
		t.Fatalf("drop series = %d (err %v)", n, err)
	}
}

func TestDiscard(t *testing.T) {
	var s Sink = Discard{}
	s.Publish(Event{Op: "cell"})
}
