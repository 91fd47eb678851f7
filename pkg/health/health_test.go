package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(context.Context) error { return nil }
}

func failingCheck(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint(t *testing.T) {
	h := New(nil)
	h.AddLivenessCheck("goroutines", time.Second, passingCheck())

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCheck_Thresholds(t *testing.T) {
	ctx := context.Background()
	var fail atomic.Bool
	fail.Store(true)

	h := New(nil)
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error {
		if fail.Load() {
			return errors.New("connection refused")
		}
		return nil
	}, WithThresholds(2, 2))
	c := h.liveness[0]

	assert.False(t, c.run(ctx), "one failure is tolerated")
	assert.True(t, c.run(ctx))

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"flaky":"connection refused"}}`, w.Body.String())

	fail.Store(false)
	assert.False(t, c.run(ctx))
	assert.True(t, c.run(ctx))
	assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code)
}

func TestReadyEndpoint(t *testing.T) {
	ctx := context.Background()
	h := New(nil)
	h.AddReadinessCheck("catalog", time.Second, PingCheck(pinger{err: errors.New("down")}), WithThresholds(1, 1))
	h.AddReadinessCheck("storage", time.Second, PingCheck(pinger{}))

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, w.Body.String())

	h.SetReady(true)
	assert.True(t, h.IsReady(), "checks start healthy")

	for _, c := range h.readiness {
		c.run(ctx)
	}
	assert.False(t, h.IsReady())

	w = serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"catalog":"ping: down"}}`, w.Body.String())
}

func TestStartStop(t *testing.T) {
	var runs atomic.Int32
	h := New(nil)
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	h.SetReady(true)

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
	assert.True(t, h.IsReady())
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestPingCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, PingCheck(pinger{})(ctx))

	err := PingCheck(pinger{err: errors.New("refused")})(ctx)
	require.EqualError(t, err, "ping: refused")
}
