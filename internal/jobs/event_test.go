package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

func mustTS() time.Time { return time.Date(2026, 10, 19, 12, 30, 45, 0, time.UTC) }

var ring = [][2]float64{{37.7, -122.5}, {37.7, -122.4}, {37.8, -122.4}, {37.8, -122.5}}

func TestEvent_Validate_RingHappyPath(t *testing.T) {
	ev := Event{Version: 1, ID: "job-1", Op: OpWarm, Res: 8, Mode: "overlap", Ring: ring, TS: mustTS()}
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	req, err := ev.Request()
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.Mode != tiler.BoundaryOverlaps || req.Res != 8 || len(req.Ring) != 4 || req.Ring[0].Lat != 37.7 {
		t.Fatalf("request = %+v", req)
	}
}

func TestEvent_Validate_BBoxHappyPath(t *testing.T) {
	ev := Event{
		Version: 1, ID: "job-2", Op: OpEvict, Res: 7, TS: mustTS(),
		BBox: &model.BBox{MinLat: 55, MinLng: 11, MaxLat: 56, MaxLng: 12},
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	req, err := ev.Request()
	if err != nil || req.Mode != tiler.CenterInside || len(req.Ring) != 4 {
		t.Fatalf("request = %+v, %v", req, err)
	}
}

func TestEvent_Validate_Rejects(t *testing.T) {
	good := Event{Version: 1, ID: "j", Op: OpWarm, Res: 8, Ring: ring, TS: mustTS()}
	cases := map[string]func(e *Event){
		"version":    func(e *Event) { e.Version = 2 },
		"id":         func(e *Event) { e.ID = " " },
		"op":         func(e *Event) { e.Op = "delete" },
		"res":        func(e *Event) { e.Res = 16 },
		"mode":       func(e *Event) { e.Mode = "nearest" },
		"ts":         func(e *Event) { e.TS = time.Time{} },
		"both":       func(e *Event) { e.BBox = &model.BBox{MinLat: 1, MinLng: 1, MaxLat: 2, MaxLng: 2} },
		"neither":    func(e *Event) { e.Ring = nil },
		"short ring": func(e *Event) { e.Ring = ring[:2] },
		"bad vertex": func(e *Event) { e.Ring = [][2]float64{{95, 0}, {0, 1}, {1, 1}} },
	}
	for name, mutate := range cases {
		ev := good
		mutate(&ev)
		if err := ev.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestEvent_JSONShape(t *testing.T) {
	raw := `{"version":1,"id":"j","op":"warm","res":6,"mode":"full","ring":[[1,1],[1,2],[2,2]],"ts":"2026-10-19T12:30:45Z"}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ev.Ring[1] != [2]float64{1, 2} {
		t.Fatalf("ring = %v", ev.Ring)
	}
}
