package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecodeAndRelations(t *testing.T) {
	out, err := execute(t, "", "decode", "8928308280fffff")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, want := range []string{"res 9", "base_cell 20", "pentagon false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("decode output lacks %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "", "parent", "8928308280fffff", "--res", "5")
	if err != nil || strings.TrimSpace(out) != "85283083fffffff" {
		t.Fatalf("parent = %q, %v", out, err)
	}

	out, err = execute(t, "", "children", "8928308280fffff", "--res", "10")
	if err != nil || len(strings.Fields(out)) != 7 {
		t.Fatalf("children = %q, %v", out, err)
	}

	if _, err := execute(t, "", "parent", "8928308280fffff"); err == nil {
		t.Fatalf("parent without --res should fail")
	}
	if _, err := execute(t, "", "children", "8928308280fffff", "--res", "15", "--max", "10"); err == nil {
		t.Fatalf("children above --max should fail")
	}
}

func TestCellRoundTripJSON(t *testing.T) {
	out, err := execute(t, "", "cell", "--lat", "37.7749", "--lng", "-122.4194", "--res", "7", "--json")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	var got struct {
		Cell string `json:"cell"`
		Res  int    `json:"res"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil || got.Res != 7 {
		t.Fatalf("cell json %q: %v", out, err)
	}

	out, err = execute(t, "", "center", got.Cell)
	if err != nil {
		t.Fatalf("center: %v", err)
	}
	f := strings.Fields(out)
	again, err := execute(t, "", "cell", "--lat", f[0], "--lng", f[1], "--res", "7")
	if err != nil || strings.TrimSpace(again) != got.Cell {
		t.Fatalf("re-quantized %q, want %s (%v)", again, got.Cell, err)
	}
}

func TestBoundaryAreaDisk(t *testing.T) {
	out, err := execute(t, "", "boundary", "8928308280fffff")
	if err != nil || len(strings.Split(strings.TrimSpace(out), "\n")) != 6 {
		t.Fatalf("boundary = %q, %v", out, err)
	}
	out, err = execute(t, "", "boundary", "8928308280fffff", "--geojson")
	if err != nil || !strings.Contains(out, `"Feature"`) {
		t.Fatalf("boundary geojson = %q, %v", out, err)
	}
	if _, err := execute(t, "", "area", "8928308280fffff", "--unit", "acres"); err == nil {
		t.Fatalf("bad unit should fail")
	}
	out, err = execute(t, "", "disk", "8928308280fffff", "--k", "1")
	if err != nil || !strings.HasPrefix(out, "0: 8928308280fffff") {
		t.Fatalf("disk = %q, %v", out, err)
	}
}

func TestPolyfill(t *testing.T) {
	bbox, err := execute(t, "", "polyfill", "--bbox", "37.7,-122.5,37.8,-122.4", "--res", "7")
	if err != nil {
		t.Fatalf("polyfill bbox: %v", err)
	}
	n := len(strings.Fields(bbox))
	if n == 0 {
		t.Fatalf("empty coverage")
	}

	gj := `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-122.5,37.7],[-122.4,37.7],[-122.4,37.8],[-122.5,37.8],[-122.5,37.7]]]}}`
	viaStdin, err := execute(t, gj, "polyfill", "--geojson", "-", "--res", "7")
	if err != nil || viaStdin != bbox {
		t.Fatalf("stdin polyfill differs (%v):\n%s\nvs\n%s", err, viaStdin, bbox)
	}

	over, err := execute(t, "", "polyfill", "--bbox", "37.7,-122.5,37.8,-122.4", "--res", "7", "--mode", "overlap")
	if err != nil || len(strings.Fields(over)) < n {
		t.Fatalf("overlap %d cells < center %d (%v)", len(strings.Fields(over)), n, err)
	}

	if _, err := execute(t, "", "polyfill", "--res", "7"); err == nil {
		t.Fatalf("missing polygon should fail")
	}
}

func TestDoctor_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	out, err := execute(t, "", "doctor", "--redis", mr.Addr(), "--skip-kafka")
	if err != nil || !strings.Contains(out, "redis  ok") {
		t.Fatalf("doctor = %q, %v", out, err)
	}

	mr.Close()
	if _, err := execute(t, "", "doctor", "--redis", mr.Addr(), "--skip-kafka", "--timeout", "200ms"); err == nil {
		t.Fatalf("doctor against a closed server should fail")
	}
}

func TestBench_Only(t *testing.T) {
	out, err := execute(t, "", "bench", "--n", "5", "--only", "parent", "--json")
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	var rs []benchResult
	if err := json.Unmarshal([]byte(out), &rs); err != nil || len(rs) != 1 || rs[0].Op != "parent" || rs[0].Err != "" {
		t.Fatalf("bench = %q (%v)", out, err)
	}
}

func TestDoctor_Server(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/readyz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}))
	defer ok.Close()
	mr := miniredis.RunT(t)

	out, err := execute(t, "", "doctor", "--redis", mr.Addr(), "--skip-kafka", "--server", ok.URL)
	if err != nil || !strings.Contains(out, "server ok") {
		t.Fatalf("doctor = %q, %v", out, err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	if _, err := execute(t, "", "doctor", "--redis", mr.Addr(), "--skip-kafka", "--server", down.URL); err == nil {
		t.Fatalf("unready server should fail doctor")
	}
}
