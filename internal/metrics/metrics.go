// Package metrics owns the private Prometheus registry served on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

type Config struct {
	Enabled bool
	Addr    string
	Path    string
	// Service, when set, is added as a constant "service" label to every
	// collector registered through the provider.
	Service string
	Build   BuildInfo
}

type Provider struct {
	cfg       Config
	reg       *prometheus.Registry
	wrapped   prometheus.Registerer
	buildInfo *prometheus.GaugeVec
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var wrapped prometheus.Registerer = reg
	if cfg.Service != "" {
		wrapped = prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.Service}, reg)
	}

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hexgrid_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "branch", "build_date"},
	)
	wrapped.MustRegister(build)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.Branch, v.BuildDate).Set(1)

	return &Provider{cfg: cfg, reg: reg, wrapped: wrapped, buildInfo: build}
}

// Enabled reports whether the service should record metrics at all.
func (p *Provider) Enabled() bool { return p.cfg.Enabled }

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.wrapped.MustRegister(c)
	}
}

// Registerer returns the registry with the service label applied.
func (p *Provider) Registerer() prometheus.Registerer { return p.wrapped }

// Component returns a registerer that also labels collectors with
// component=name, so background workers can be told apart from the
// request path on a shared registry.
func (p *Provider) Component(name string) prometheus.Registerer {
	if name == "" {
		return p.wrapped
	}
	return prometheus.WrapRegistererWith(prometheus.Labels{"component": name}, p.wrapped)
}
