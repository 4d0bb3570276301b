package handlers

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ingvionio/fullstack/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - token bucket per client key
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig configures a keyed token bucket limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained rate per key.
	RequestsPerMinute float64

	// Burst is the bucket size. Values below 1 are raised to 1.
	Burst int

	// IdleTTL is how long an untouched full bucket is kept.
	IdleTTL time.Duration

	Now timeutil.Clock
}

// RateLimiter keeps one token bucket per key (usually the client IP).
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond float64
	burst     float64
	idleTTL   time.Duration
	now       timeutil.Clock
	lastSweep time.Time
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter. A non-positive rate disables limiting.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = timeutil.SystemClock
	}
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: cfg.RequestsPerMinute / 60,
		burst:     float64(cfg.Burst),
		idleTTL:   cfg.IdleTTL,
		now:       cfg.Now,
		lastSweep: cfg.Now(),
	}
}

// Allow takes a token for key. When none is left it returns false and
// the time until the next token.
func (rl *RateLimiter) Allow(key string) (time.Duration, bool) {
	if rl.perSecond <= 0 {
		return 0, true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, lastRefill: now}
		rl.buckets[key] = b
	}
	rl.refill(b, now)

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / rl.perSecond * float64(time.Second))
		return wait, false
	}
	b.tokens--
	return 0, true
}

func (rl *RateLimiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(rl.burst, b.tokens+elapsed*rl.perSecond)
	b.lastRefill = now
}

// sweep drops buckets that have been idle long enough to be full again.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	for key, b := range rl.buckets {
		if now.Sub(b.lastRefill) >= rl.idleTTL {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// KeyFunc extracts the limiter key from a request.
type KeyFunc func(r *http.Request) string

// DeniedFunc writes the 429 response.
type DeniedFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// Limit wraps next so that requests over the rate get 429 with Retry-After.
func (rl *RateLimiter) Limit(key KeyFunc, denied DeniedFunc) func(http.HandlerFunc) http.HandlerFunc {
	if denied == nil {
		denied = func(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			wait, ok := rl.Allow(key(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				denied(w, r, wait)
				return
			}
			next(w, r)
		}
	}
}
