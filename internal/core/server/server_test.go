package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func get(t *testing.T, base, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(base + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestHandler_Routes(t *testing.T) {
	api := chi.NewRouter()
	api.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) })

	ts := httptest.NewServer(Handler(Options{
		Logger:  slog.New(slog.DiscardHandler),
		API:     api,
		Metrics: metrics,
	}))
	defer ts.Close()

	cases := []struct {
		path string
		code int
		body string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/v1/ping", http.StatusOK, "pong"},
		{"/metrics", http.StatusOK, "# metrics"},
	}
	for _, tc := range cases {
		code, body := get(t, ts.URL, tc.path)
		if code != tc.code || body != tc.body {
			t.Fatalf("%s: %d %q", tc.path, code, body)
		}
	}
	if code, _ := get(t, ts.URL, "/readyz"); code != http.StatusOK {
		t.Fatalf("readyz = %d", code)
	}
	if code, _ := get(t, ts.URL, "/v1/missing"); code != http.StatusNotFound {
		t.Fatalf("missing = %d", code)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, Options{Logger: slog.New(slog.DiscardHandler)}) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not return")
	}
}
