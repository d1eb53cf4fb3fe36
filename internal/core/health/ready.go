// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

// Check is a named dependency probe, such as a Redis ping.
type Check struct {
	Name string
	// Required checks make the service not ready when they fail.
	Required bool
	Probe    func(ctx context.Context) error
}

// Readiness reports ready when rr (if any) has partitions and every
// required check passes. Optional check failures are reported but do not
// flip the status.
func Readiness(rr ReadinessReporter, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status     string            `json:"status"`
			Partitions []int32           `json:"partitions,omitempty"`
			Checks     map[string]string `json:"checks,omitempty"`
		}
		ready := true
		out := resp{}
		if rr != nil {
			ok, parts := rr.Readiness()
			ready = ok
			out.Partitions = parts
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, c := range checks {
			if out.Checks == nil {
				out.Checks = map[string]string{}
			}
			if err := c.Probe(ctx); err != nil {
				out.Checks[c.Name] = err.Error()
				if c.Required {
					ready = false
				}
				continue
			}
			out.Checks[c.Name] = "ok"
		}

		out.Status = "not_ready"
		if ready {
			out.Status = "ready"
		} else {
			out.Partitions = nil
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
