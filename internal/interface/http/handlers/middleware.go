package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ingvionio/fullstack/internal/infrastructure/auth"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyUserID    contextKey = "user_id"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKeyUserID).(int64)
	return id, ok
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID
// ══════════════════════════════════════════════════════════════════════════════

// RequestID keeps an incoming X-Request-ID or generates a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// BEARER AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// TokenParser validates access tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// UnauthorizedFunc writes the 401 response.
type UnauthorizedFunc func(w http.ResponseWriter, r *http.Request, err error)

// BearerAuth authenticates requests with "Authorization: Bearer <jwt>".
type BearerAuth struct {
	tokens       TokenParser
	required     bool
	unauthorized UnauthorizedFunc
}

// NewBearerAuth creates the authenticator. With required=false, Require
// lets anonymous requests through but still rejects bad tokens.
func NewBearerAuth(tokens TokenParser, required bool, unauthorized UnauthorizedFunc) *BearerAuth {
	if unauthorized == nil {
		unauthorized = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return &BearerAuth{tokens: tokens, required: required, unauthorized: unauthorized}
}

// Identify resolves the token, if present, into the request context.
// An invalid token is rejected; a missing one is not.
func (a *BearerAuth) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok || a.tokens == nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			a.unauthorized(w, r, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			a.unauthorized(w, r, auth.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Require rejects anonymous requests when authentication is required.
// It expects Identify to run first.
func (a *BearerAuth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); a.required && !ok {
			a.unauthorized(w, r, auth.ErrInvalidToken)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERIC MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecurityHeaders adds headers that harden JSON API responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// BodyLimit caps request bodies at maxBytes. Multipart uploads are limited
// separately by the upload handlers.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
