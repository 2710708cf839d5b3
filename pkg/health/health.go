// Package health exposes liveness and readiness probes for the API server.
//
// Probes are polled by a single background loop. A probe flips to broken only
// after a few consecutive failures and recovers on the first success, so a
// single slow database ping does not bounce the pod out of the load balancer.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	// failAfter is how many consecutive failures mark a probe broken.
	failAfter = 3
)

// probe is one registered check plus its rolling state. State is guarded by
// mu: the poll loop writes it, HTTP handlers read it.
type probe struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu      sync.Mutex
	fails   int
	broken  bool
	lastErr error
}

func (p *probe) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.fails = 0
		p.broken = false
		return
	}
	p.fails++
	if p.fails >= failAfter {
		p.broken = true
	}
}

func (p *probe) failure() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.broken {
		return "", false
	}
	if p.lastErr != nil {
		return p.lastErr.Error(), true
	}
	return "probe is broken", true
}

// Health tracks the liveness and readiness probes of a service.
type Health struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	stop      context.CancelFunc
}

// New returns a Health with no probes and readiness off. Call SetReady(true)
// once startup finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a process-level probe (goroutine leaks, GC
// pauses). A broken liveness probe means the process should be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &probe{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a dependency probe (postgres, redis). A broken
// readiness probe takes the instance out of rotation without restarting it.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &probe{name: name, timeout: timeout, fn: fn})
}

// Start polls every registered probe once immediately and then at the given
// interval, until Stop is called or ctx is cancelled.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.stop = cancel
	probes := h.snapshot(true, true)
	h.mu.Unlock()

	go func() {
		pollAll(ctx, probes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pollAll(ctx, probes)
			}
		}
	}()
}

func pollAll(ctx context.Context, probes []*probe) {
	for _, p := range probes {
		if ctx.Err() != nil {
			return
		}
		p.poll(ctx)
	}
}

// Stop halts the poll loop. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

// SetReady flips the manual readiness gate. Flip it to false at the start of
// graceful shutdown so the load balancer drains before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, p := range h.snapshotLocked(false, true) {
		if _, bad := p.failure(); bad {
			return false
		}
	}
	return true
}

// snapshot copies the requested probe slices. Caller must hold h.mu.
func (h *Health) snapshot(live, ready bool) []*probe {
	var out []*probe
	if live {
		out = append(out, h.liveness...)
	}
	if ready {
		out = append(out, h.readiness...)
	}
	return out
}

func (h *Health) snapshotLocked(live, ready bool) []*probe {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot(live, ready)
}

type probeStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes, 503 with
// per-probe messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	writeProbeStatus(w, failures(h.snapshotLocked(true, false)))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	bad := failures(h.snapshotLocked(false, true))
	if !h.ready.Load() {
		bad["service"] = "not ready"
	}
	writeProbeStatus(w, bad)
}

func failures(probes []*probe) map[string]string {
	bad := make(map[string]string)
	for _, p := range probes {
		if msg, broken := p.failure(); broken {
			bad[p.name] = msg
		}
	}
	return bad
}

func writeProbeStatus(w http.ResponseWriter, bad map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeStatus{Status: "ok"}
	code := http.StatusOK
	if len(bad) > 0 {
		resp = probeStatus{Status: "unhealthy", Checks: bad}
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
