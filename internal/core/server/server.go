package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/hexgrid/internal/core/health"
	middleware "github.com/mohammed-shakir/hexgrid/internal/core/middleware"
)

type Options struct {
	Addr   string
	Logger *slog.Logger
	// API is mounted under /v1.
	API http.Handler
	// Ready serves /readyz; nil means always ready.
	Ready http.Handler
	// Metrics serves /metrics; nil leaves the route out.
	Metrics http.Handler
}

// Handler builds the root router with middleware, probes and the API.
func Handler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(opts.Logger))
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	if opts.Ready != nil {
		r.Method(http.MethodGet, "/readyz", opts.Ready)
	} else {
		r.Get("/readyz", health.Readiness(nil))
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.API != nil {
		r.Mount("/v1", opts.API)
	}
	return r
}

// sets up http and serves until ctx is done
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, opts)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, ln net.Listener, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	srv := &http.Server{
		Handler:           Handler(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		opts.Logger.Info("http listen", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
