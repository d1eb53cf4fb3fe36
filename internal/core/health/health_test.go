package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLiveness_Handler(t *testing.T) {
	rr := httptest.NewRecorder()
	Liveness()(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type fakeRunner struct {
	ready bool
	parts []int32
}

func (f fakeRunner) Readiness() (bool, []int32) { return f.ready, f.parts }

func readyz(t *testing.T, h http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body.String())
	}
	return rr.Code, body
}

func TestReadiness_RunnerAssignment(t *testing.T) {
	code, body := readyz(t, Readiness(fakeRunner{ready: true, parts: []int32{0, 1}}))
	if code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("code=%d body=%v", code, body)
	}
	if parts, _ := body["partitions"].([]any); len(parts) != 2 {
		t.Fatalf("partitions = %v", body["partitions"])
	}

	code, body = readyz(t, Readiness(fakeRunner{}))
	if code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Fatalf("code=%d body=%v", code, body)
	}
}

func TestReadiness_Checks(t *testing.T) {
	ok := Check{Name: "redis", Probe: func(context.Context) error { return nil }}
	optionalDown := Check{Name: "kafka", Probe: func(context.Context) error { return errors.New("no brokers") }}
	requiredDown := Check{Name: "redis", Required: true, Probe: func(context.Context) error { return errors.New("refused") }}

	code, body := readyz(t, Readiness(nil, ok, optionalDown))
	if code != http.StatusOK {
		t.Fatalf("optional failure flipped readiness: %v", body)
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["redis"] != "ok" || checks["kafka"] != "no brokers" {
		t.Fatalf("checks = %v", checks)
	}

	if code, _ := readyz(t, Readiness(nil, requiredDown)); code != http.StatusServiceUnavailable {
		t.Fatalf("required failure left service ready")
	}
}
