package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 6, Burst: 2, Now: clock.Now})

	_, ok := rl.Allow("10.0.0.1")
	assert.True(t, ok)
	_, ok = rl.Allow("10.0.0.1")
	assert.True(t, ok)

	wait, ok := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 10*time.Second, wait)

	_, ok = rl.Allow("10.0.0.2")
	assert.True(t, ok, "buckets are per key")

	clock.now = clock.now.Add(10 * time.Second)
	_, ok = rl.Allow("10.0.0.1")
	assert.True(t, ok)
}

func TestRateLimiter_DisabledAndSweep(t *testing.T) {
	off := NewRateLimiter(RateLimiterConfig{})
	for range 100 {
		_, ok := off.Allow("x")
		assert.True(t, ok)
	}
	assert.Equal(t, 0, off.Len())

	clock := &stepClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, Burst: 1, IdleTTL: time.Minute, Now: clock.Now})
	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.Len())

	clock.now = clock.now.Add(2 * time.Minute)
	rl.Allow("c")
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_Limit(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, Burst: 1, Now: clock.Now})
	h := rl.Limit(func(r *http.Request) string { return r.RemoteAddr }, nil)(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve().Code)
	rec := serve()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
