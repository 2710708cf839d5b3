package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) probeStatus {
	t.Helper()
	var resp probeStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func pollN(ctx context.Context, p *probe, n int) {
	for range n {
		p.poll(ctx)
	}
}

func TestProbeBreaksAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	fail := errors.New("ping: connection refused")
	p := &probe{name: "postgres", timeout: time.Second, fn: func(context.Context) error {
		return fail
	}}

	pollN(ctx, p, failAfter-1)
	_, broken := p.failure()
	assert.False(t, broken, "should tolerate %d failures", failAfter-1)

	p.poll(ctx)
	msg, broken := p.failure()
	assert.True(t, broken)
	assert.Equal(t, fail.Error(), msg)
}

func TestProbeRecoversOnFirstSuccess(t *testing.T) {
	ctx := context.Background()
	var healthy atomic.Bool
	p := &probe{name: "redis", timeout: time.Second, fn: func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("down")
	}}

	pollN(ctx, p, failAfter)
	_, broken := p.failure()
	require.True(t, broken)

	healthy.Store(true)
	p.poll(ctx)
	_, broken = p.failure()
	assert.False(t, broken)
}

func TestProbeRespectsTimeout(t *testing.T) {
	p := &probe{name: "slow", timeout: 10 * time.Millisecond, fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	pollN(context.Background(), p, failAfter)
	msg, broken := p.failure()
	assert.True(t, broken)
	assert.Contains(t, msg, "context deadline exceeded")
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeStatus(t, rec).Status)

	bad := &probe{name: "goroutines", timeout: time.Second, fn: func(context.Context) error {
		return errors.New("too many")
	}}
	h.liveness = []*probe{bad}
	pollN(context.Background(), bad, failAfter)

	rec = httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeStatus(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "too many", resp.Checks["goroutines"])
}

func TestReadyEndpointGate(t *testing.T) {
	h := New()

	// Gate closed before SetReady(true).
	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", decodeStatus(t, rec).Checks["service"])

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Shutdown flips the gate back.
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestIsReadyIncludesProbes(t *testing.T) {
	h := New()
	h.SetReady(true)

	bad := &probe{name: "postgres", timeout: time.Second, fn: func(context.Context) error {
		return errors.New("down")
	}}
	h.readiness = []*probe{bad}
	assert.True(t, h.IsReady(), "probe has not failed enough yet")

	pollN(context.Background(), bad, failAfter)
	assert.False(t, h.IsReady())
}

func TestStartPollsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls atomic.Int32
	h := New()
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		polls.Add(1)
		return nil
	})

	h.Start(ctx, time.Hour)
	defer h.Stop()

	assert.Eventually(t, func() bool { return polls.Load() >= 1 },
		time.Second, 5*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit 0")
}
