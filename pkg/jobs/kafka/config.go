package kafka

import "time"

type Config struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`

	SessionTimeout   time.Duration `yaml:"session_timeout"`
	Heartbeat        time.Duration `yaml:"heartbeat"`
	RebalanceTimeout time.Duration `yaml:"rebalance_timeout"`
	InitialOldest    bool          `yaml:"initial_oldest"`

	// JobTimeout bounds one warm or evict.
	JobTimeout time.Duration `yaml:"job_timeout"`
	DedupeSize int           `yaml:"dedupe_size"`
}

// DefaultConfig fills the timeouts sarama needs; callers set brokers and topic.
func DefaultConfig() Config {
	return Config{
		Topic:            "hexgrid-coverage-jobs",
		GroupID:          "hexgrid-coverage",
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    true,
		JobTimeout:       30 * time.Second,
		DedupeSize:       8192,
	}
}
