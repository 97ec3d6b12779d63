package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	now := time.Now()

	remaining, _, ok := rl.allow("a", now)
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	remaining, _, ok = rl.allow("a", now.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	_, resetAt, ok := rl.allow("a", now.Add(2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), resetAt)

	// Other keys keep their own budget.
	_, _, ok = rl.allow("b", now.Add(2*time.Second))
	assert.True(t, ok)
}

func TestRateLimiterWindowRotation(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	_, _, ok := rl.allow("a", now)
	require.True(t, ok)
	_, _, ok = rl.allow("a", now.Add(time.Second))
	require.False(t, ok)

	// A fresh window grants a fresh budget.
	_, _, ok = rl.allow("a", now.Add(time.Minute+time.Second))
	assert.True(t, ok)
}

// The server wires RateLimit without a KeyFunc, so the middleware must fall
// back to the client IP instead of dereferencing a nil func.
func TestRateLimitDefaultKeyFunc(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mw := RateLimit(ctx, RateLimitConfig{Max: 2, Window: time.Minute})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		require.NotPanics(t, func() { h.ServeHTTP(rec, req) })
		return rec
	}

	rec := serve("10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	serve("10.0.0.1:1234")
	rec = serve("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// A different client IP gets its own budget.
	rec = serve("10.0.0.2:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterEvictStale(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	rl.allow("a", now)
	rl.allow("b", now.Add(90*time.Second))

	rl.evictStale(now.Add(2 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "a")
	assert.Contains(t, rl.windows, "b")
}
