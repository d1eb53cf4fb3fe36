package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/hexgrid/internal/cache/redisstore"
	"github.com/mohammed-shakir/hexgrid/internal/core/config"
	"github.com/mohammed-shakir/hexgrid/internal/core/httpclient"
	"github.com/mohammed-shakir/hexgrid/internal/logger"
)

type probeResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
	TookMS int64  `json:"took_ms"`
}

func newDoctorCmd() *cobra.Command {
	cfg := config.FromEnv()
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that Redis and Kafka are reachable",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
	cmd.Flags().String("redis", cfg.RedisAddr, "Redis address")
	cmd.Flags().String("brokers", cfg.KafkaBrokers, "Kafka brokers, comma separated")
	cmd.Flags().StringSlice("topics", []string{cfg.Events.Topic, cfg.Jobs.Topic}, "Topics that must exist")
	cmd.Flags().Bool("skip-kafka", false, "Do not check Kafka")
	cmd.Flags().String("server", "", "Base URL of a running hexgridd whose /readyz is checked")
	cmd.Flags().Duration("timeout", 5*time.Second, "Per check timeout")
	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("redis")
	brokers, _ := cmd.Flags().GetString("brokers")
	topics, _ := cmd.Flags().GetStringSlice("topics")
	skipKafka, _ := cmd.Flags().GetBool("skip-kafka")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	serverURL, _ := cmd.Flags().GetString("server")

	results := []probeResult{timedProbe("redis", func() (string, error) {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return checkRedis(ctx, addr)
	})}
	if !skipKafka {
		results = append(results, timedProbe("kafka", func() (string, error) {
			return checkKafka(splitList(brokers), topics, timeout)
		}))
	}

	if serverURL != "" {
		results = append(results, timedProbe("server", func() (string, error) {
			return checkServer(cmd.Context(), serverURL, timeout)
		}))
	}

	var sb strings.Builder
	failed := 0
	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(&sb, "%-6s %-4s %4dms  %s\n", r.Name, status, r.TookMS, r.Detail)
	}
	if err := emit(cmd, results, sb.String()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

func timedProbe(name string, fn func() (string, error)) probeResult {
	start := time.Now()
	detail, err := fn()
	r := probeResult{Name: name, OK: err == nil, Detail: detail, TookMS: time.Since(start).Milliseconds()}
	if err != nil {
		r.Detail = err.Error()
	}
	return r
}

// checkRedis does a set, get and delete round trip on a scratch key.
func checkRedis(ctx context.Context, addr string) (string, error) {
	c, err := redisstore.New(ctx, addr)
	if err != nil {
		return "", err
	}
	defer func() { _ = c.Close() }()

	key := "hexgrid:doctor:" + logger.NewID()
	if err := c.Set(ctx, key, []byte("ok"), 30*time.Second); err != nil {
		return "", fmt.Errorf("set: %w", err)
	}
	v, found, err := c.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	if !found || string(v) != "ok" {
		return "", fmt.Errorf("get: read back %q (found=%t)", v, found)
	}
	if err := c.Del(ctx, key); err != nil {
		return "", fmt.Errorf("del: %w", err)
	}
	return "round trip on " + addr, nil
}

func checkKafka(brokers, topics []string, timeout time.Duration) (string, error) {
	if len(brokers) == 0 {
		return "", fmt.Errorf("no brokers configured")
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Net.DialTimeout = timeout
	cfg.Metadata.Timeout = timeout
	cfg.Metadata.Retry.Max = 1

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	have, err := client.Topics()
	if err != nil {
		return "", fmt.Errorf("list topics: %w", err)
	}
	var missing []string
	for _, t := range topics {
		if t != "" && !slices.Contains(have, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing topics: %s", strings.Join(missing, ", "))
	}
	return fmt.Sprintf("%d brokers, %d topics", len(client.Brokers()), len(have)), nil
}

// checkServer expects 200 from /readyz.
func checkServer(ctx context.Context, base string, timeout time.Duration) (string, error) {
	u := strings.TrimRight(base, "/") + "/readyz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("bad server URL: %w", err)
	}
	resp, err := httpclient.New(timeout).Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("readyz status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
