package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammed-shakir/hexgrid/internal/cache"
	"github.com/mohammed-shakir/hexgrid/internal/cache/redisstore"
	"github.com/mohammed-shakir/hexgrid/internal/core/config"
	"github.com/mohammed-shakir/hexgrid/internal/core/health"
	"github.com/mohammed-shakir/hexgrid/internal/core/observability"
	"github.com/mohammed-shakir/hexgrid/internal/core/router"
	"github.com/mohammed-shakir/hexgrid/internal/core/server"
	"github.com/mohammed-shakir/hexgrid/internal/coverage"
	"github.com/mohammed-shakir/hexgrid/internal/decision"
	"github.com/mohammed-shakir/hexgrid/internal/decision/simple"
	"github.com/mohammed-shakir/hexgrid/internal/hitevents"
	"github.com/mohammed-shakir/hexgrid/internal/hotness/expdecay"
	"github.com/mohammed-shakir/hexgrid/internal/hotness/metricswrap"
	"github.com/mohammed-shakir/hexgrid/internal/logger"
	"github.com/mohammed-shakir/hexgrid/internal/metrics"
	jobskafka "github.com/mohammed-shakir/hexgrid/pkg/jobs/kafka"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		return 1
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "hexgridd",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)
	slog.SetDefault(appLog)

	appLog.Info("starting hexgridd",
		"addr", cfg.Addr,
		"version", Version,
		"default_res", cfg.DefaultRes,
		"redis", cfg.RedisAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := metrics.Init(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Addr:    cfg.Metrics.Addr,
		Path:    cfg.Metrics.Path,
		Service: "hexgridd",
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	observability.Init(p.Registerer(), p.Enabled())
	observability.ExposeBuildInfo(Version)

	var metricsRoute http.Handler = p.Handler()
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" && cfg.Metrics.Addr != cfg.Addr {
		go serveMetrics(ctx, appLog, cfg.Metrics.Addr, cfg.Metrics.Path, p.Handler())
		metricsRoute = nil
	}

	var (
		shared cache.Store
		checks []health.Check
	)
	rc, err := redisstore.New(ctx, cfg.RedisAddr, redisstore.WithReadTimeout(cfg.CacheOpTimeout), redisstore.WithWriteTimeout(cfg.CacheOpTimeout))
	if err != nil {
		appLog.Warn("redis unavailable, serving from local cache only", "addr", cfg.RedisAddr, "err", err)
	} else {
		defer func() { _ = rc.Close() }()
		shared = rc
		checks = append(checks, health.Check{Name: "redis", Probe: rc.Ping})
	}

	hot := metricswrap.New(expdecay.New(cfg.HotHalfLife), metricswrap.Options{
		Threshold: cfg.HotThreshold,
		LogSample: 1,
		Log:       appLog,
	})

	var share decision.Interface = decision.Always{}
	if cfg.ShareHotOnly {
		share = &simple.Engine{Hot: hot, Threshold: cfg.HotThreshold, MinCells: cfg.ShareMinCells}
	}

	cov, err := coverage.New(coverage.Config{
		MaxCells:   cfg.MaxCoverageCells,
		SeedRadius: cfg.SeedRadius,
		TTL:        cfg.CacheTTL,
		OpTimeout:  cfg.CacheOpTimeout,
		LocalSize:  cfg.LocalCacheSize,
		Share:      share,
	}, shared, appLog)
	if err != nil {
		appLog.Error("coverage setup failed", "err", err)
		return 1
	}

	var events hitevents.Sink = hitevents.Discard{}
	if cfg.Events.Enabled {
		pub, err := hitevents.NewPublisher(cfg.Brokers(), cfg.Events.Topic, cfg.Events.QueueSize, appLog)
		if err != nil {
			appLog.Error("lookup events setup failed", "err", err)
			return 1
		}
		defer func() { _ = pub.Close() }()
		events = pub
	}

	var ready health.ReadinessReporter
	if cfg.Jobs.Enabled {
		jc := jobskafka.DefaultConfig()
		jc.Enabled = true
		jc.Brokers = cfg.Brokers()
		jc.Topic = cfg.Jobs.Topic
		jc.GroupID = cfg.Jobs.GroupID
		runner := jobskafka.New(jc, cov, jobskafka.Options{Logger: appLog, Register: p.Component("jobs")})
		if err := runner.Start(ctx); err != nil {
			appLog.Error("coverage job runner failed to start", "err", err)
			return 1
		}
		defer runner.Stop()
		ready = runner
	}

	api := router.New(router.Options{
		Logger:     appLog,
		Coverage:   cov,
		Hotness:    hot,
		Events:     events,
		DefaultRes: cfg.DefaultRes,
		MaxCells:   cfg.MaxCoverageCells,
		MaxDiskK:   cfg.MaxDiskK,
	})

	go pruneHotness(ctx, hot)

	if err := server.Run(ctx, server.Options{
		Addr:    cfg.Addr,
		Logger:  appLog,
		API:     api.Routes(),
		Ready:   health.Readiness(ready, checks...),
		Metrics: metricsRoute,
	}); err != nil {
		appLog.Error("server exited", "err", err)
		return 1
	}
	appLog.Info("shutdown complete")
	return 0
}

// pruneHotness drops cells whose score has decayed to noise.
func pruneHotness(ctx context.Context, hot *metricswrap.WithMetrics) {
	tr, ok := hot.Inner().(*expdecay.Tracker)
	if !ok {
		return
	}
	t := time.NewTicker(tr.HalfLife)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := tr.Prune(0.01)
			observability.SetHotCellsGauge("tracked", tr.Size())
			if n > 0 {
				slog.Debug("pruned cold cells", "n", n)
			}
		}
	}
}

func serveMetrics(ctx context.Context, log *slog.Logger, addr, path string, h http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown", "err", err)
		}
	}()
	log.Info("metrics listening", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server exited", "err", err)
	}
}
