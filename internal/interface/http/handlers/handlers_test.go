package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ingvionio/fullstack/internal/infrastructure/auth"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ══════════════════════════════════════════════════════════════════════════════
// Health
// ══════════════════════════════════════════════════════════════════════════════

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		status := NewCompositeHealthChecker("1.0").Check(context.Background())
		assert.True(t, status.Healthy)
		assert.Equal(t, "no checks registered", status.Message)
		assert.Equal(t, "1.0", status.Version)
	})

	t.Run("all pass", func(t *testing.T) {
		hc := NewCompositeHealthChecker("1.0")
		hc.AddCheck("database", PingCheck(pingerFunc(func(context.Context) error { return nil })))
		hc.AddCheck("cache", func(context.Context) error { return nil })

		status := hc.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.Equal(t, "all checks passed", status.Message)
		assert.Len(t, status.Checks, 2)
	})

	t.Run("failures are reported sorted", func(t *testing.T) {
		hc := NewCompositeHealthChecker("1.0")
		hc.AddCheck("storage", func(context.Context) error { return errors.New("disk full") })
		hc.AddCheck("cache", func(context.Context) error { return errors.New("refused") })
		hc.AddCheck("database", func(context.Context) error { return nil })

		status := hc.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.Equal(t, "failed: cache, storage", status.Message)
		assert.Equal(t, "disk full", status.Checks["storage"].Message)
		assert.True(t, status.Checks["database"].Healthy)
	})

	t.Run("slow check times out", func(t *testing.T) {
		hc := NewCompositeHealthChecker("1.0")
		hc.SetTimeout(20 * time.Millisecond)
		hc.AddCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})

		status := hc.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.False(t, status.Checks["slow"].Healthy)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// Middleware
// ══════════════════════════════════════════════════════════════════════════════

type fakeTokens map[string]int64

func (f fakeTokens) Parse(token string) (*auth.Claims, error) {
	id, ok := f[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	subject := "not-a-number"
	if id > 0 {
		subject = strconv.FormatInt(id, 10)
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}, nil
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if id, ok := UserIDFromContext(r.Context()); ok {
		_, _ = w.Write([]byte(strconv.FormatInt(id, 10)))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBearerAuth(t *testing.T) {
	tokens := fakeTokens{"good": 42, "broken": 0}

	t.Run("optional", func(t *testing.T) {
		a := NewBearerAuth(tokens, false, nil)
		h := a.Identify(a.Require(echoUser))

		assert.Equal(t, "anonymous", serve(h, "").Body.String())
		assert.Equal(t, "42", serve(h, "Bearer good").Body.String())
		assert.Equal(t, "42", serve(h, "bearer good").Body.String())
		assert.Equal(t, "anonymous", serve(h, "Basic dXNlcg==").Body.String())
		assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer bad").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer broken").Code)
	})

	t.Run("required", func(t *testing.T) {
		var gotErr error
		a := NewBearerAuth(tokens, true, func(w http.ResponseWriter, _ *http.Request, err error) {
			gotErr = err
			w.WriteHeader(http.StatusUnauthorized)
		})
		h := a.Identify(a.Require(echoUser))

		assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
		assert.ErrorIs(t, gotErr, auth.ErrInvalidToken)
		assert.Equal(t, "42", serve(h, "Bearer good").Body.String())
	})

	t.Run("nil parser passes through", func(t *testing.T) {
		a := NewBearerAuth(nil, false, nil)
		assert.Equal(t, "anonymous", serve(a.Identify(http.HandlerFunc(echoUser)), "Bearer good").Body.String())
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mark("outer"), mark("inner"), SecurityHeaders)

	rec := serve(h, "")
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, err := r.Body.Read(buf)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
