package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type EventsCfg struct {
	Enabled   bool   `yaml:"enabled"`
	Topic     string `yaml:"topic"`
	QueueSize int    `yaml:"queue_size"`
}

type JobsCfg struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

type MetricsCfg struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

type Config struct {
	Addr       string `yaml:"addr"`
	LogLevel   string `yaml:"log_level"`
	LogConsole bool   `yaml:"log_console"`
	LogSampleN int    `yaml:"log_sample_n"`

	DefaultRes       int     `yaml:"default_res"`
	SeedRadius       int     `yaml:"seed_radius"`
	MaxCoverageCells float64 `yaml:"max_coverage_cells"`
	MaxDiskK         int     `yaml:"max_disk_k"`

	RedisAddr      string        `yaml:"redis_addr"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	CacheOpTimeout time.Duration `yaml:"cache_op_timeout"`
	LocalCacheSize int           `yaml:"local_cache_size"`

	KafkaBrokers string    `yaml:"kafka_brokers"`
	Events       EventsCfg `yaml:"events"`
	Jobs         JobsCfg   `yaml:"jobs"`

	HotHalfLife  time.Duration `yaml:"hot_half_life"`
	HotThreshold float64       `yaml:"hot_threshold"`

	// ShareHotOnly writes only hot or large coverages to Redis.
	ShareHotOnly  bool `yaml:"share_hot_only"`
	ShareMinCells int  `yaml:"share_min_cells"`

	Metrics MetricsCfg `yaml:"metrics"`
}

// Defaults is the configuration with nothing set.
func Defaults() Config {
	return Config{
		Addr:             ":8090",
		LogLevel:         "info",
		DefaultRes:       8,
		SeedRadius:       32,
		MaxCoverageCells: 250000,
		MaxDiskK:         50,
		RedisAddr:        "localhost:6379",
		CacheTTL:         10 * time.Minute,
		CacheOpTimeout:   250 * time.Millisecond,
		LocalCacheSize:   1024,
		KafkaBrokers:     "localhost:9092",
		Events: EventsCfg{
			Topic:     "hexgrid-lookups",
			QueueSize: 1024,
		},
		Jobs: JobsCfg{
			Topic:   "hexgrid-coverage-jobs",
			GroupID: "hexgrid-coverage",
		},
		HotHalfLife:   time.Minute,
		HotThreshold:  10,
		ShareMinCells: 5000,
		Metrics: MetricsCfg{
			Addr: ":9090",
			Path: "/metrics",
		},
	}
}

// Load reads .env (if present), then the YAML file named by HEXGRID_CONFIG,
// then the environment. Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("HEXGRID_CONFIG")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return apply(cfg), nil
}

// FromEnv overlays environment variables on the defaults.
func FromEnv() Config {
	return apply(Defaults())
}

func apply(c Config) Config {
	c.Addr = getenv("ADDR", c.Addr)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogConsole = getbool("LOG_CONSOLE", c.LogConsole)
	c.LogSampleN = getint("LOG_SAMPLE_N", c.LogSampleN)

	c.DefaultRes = clampRes(getint("HEXGRID_RES", c.DefaultRes))
	c.SeedRadius = getint("TILER_SEED_RADIUS", c.SeedRadius)
	if c.SeedRadius < 0 {
		c.SeedRadius = 0
	}
	c.MaxCoverageCells = getfloat("MAX_COVERAGE_CELLS", c.MaxCoverageCells)
	c.MaxDiskK = getint("MAX_DISK_K", c.MaxDiskK)

	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.CacheTTL = getduration("CACHE_TTL", c.CacheTTL)
	c.CacheOpTimeout = getduration("CACHE_OP_TIMEOUT", c.CacheOpTimeout)
	c.LocalCacheSize = getint("LOCAL_CACHE_SIZE", c.LocalCacheSize)

	c.KafkaBrokers = getenv("KAFKA_BROKERS", c.KafkaBrokers)
	c.Events.Enabled = getbool("LOOKUP_EVENTS_ENABLED", c.Events.Enabled)
	c.Events.Topic = getenv("LOOKUP_EVENTS_TOPIC", c.Events.Topic)
	c.Events.QueueSize = getint("LOOKUP_EVENTS_QUEUE", c.Events.QueueSize)
	c.Jobs.Enabled = getbool("COVERAGE_JOBS_ENABLED", c.Jobs.Enabled)
	c.Jobs.Topic = getenv("COVERAGE_JOBS_TOPIC", c.Jobs.Topic)
	c.Jobs.GroupID = getenv("COVERAGE_JOBS_GROUP", c.Jobs.GroupID)

	c.HotHalfLife = getduration("HOT_HALF_LIFE", c.HotHalfLife)
	c.HotThreshold = getfloat("HOT_THRESHOLD", c.HotThreshold)
	c.ShareHotOnly = getbool("SHARE_HOT_ONLY", c.ShareHotOnly)
	c.ShareMinCells = getint("SHARE_MIN_CELLS", c.ShareMinCells)

	c.Metrics.Enabled = getbool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = getenv("METRICS_ADDR", c.Metrics.Addr)
	c.Metrics.Path = getenv("METRICS_PATH", c.Metrics.Path)
	return c
}

// Brokers splits KafkaBrokers on commas.
func (c Config) Brokers() []string {
	var out []string
	for p := range strings.SplitSeq(c.KafkaBrokers, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}

func clampRes(r int) int {
	if r < 0 {
		return 0
	}
	if r > 15 {
		return 15
	}
	return r
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
