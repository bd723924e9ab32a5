package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness. The API clears it when shutdown begins.
func SetReady(v bool) { ready.Store(v) }

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is a named dependency check.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// PingProbe adapts a Pinger into a Probe.
func PingProbe(name string, timeout time.Duration, p Pinger) Probe {
	return Probe{Name: name, Timeout: timeout, Check: p.Ping}
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	if len(h.Probes) == 0 {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	status := make(map[string]string, len(h.Probes))
	code := http.StatusOK
	for _, probe := range h.Probes {
		result := "ok"
		if err := run(r.Context(), probe); err != nil {
			result = err.Error()
			code = http.StatusServiceUnavailable
		}
		status[probe.Name] = result
	}
	writeStatus(w, code, status)
}

func run(ctx context.Context, probe Probe) error {
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return probe.Check(ctx)
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
