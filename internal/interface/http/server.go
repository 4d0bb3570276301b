// Package http implements the REST API of the review service: entity CRUD,
// authentication, gamification endpoints, health checks and media files.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/application/query"
	"github.com/ingvionio/fullstack/internal/interface/http/handlers"
	"github.com/ingvionio/fullstack/pkg/logger"
	"github.com/ingvionio/fullstack/pkg/tracing"
)

const apiVersion = "v1"

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	Host string
	Port int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// AllowedOrigins for CORS; "*" allows any origin.
	AllowedOrigins []string

	// MaxBodyBytes limits JSON bodies.
	MaxBodyBytes int64

	// MaxUploadBytes limits one uploaded file.
	MaxUploadBytes int64

	// RequireAuth makes write endpoints reject anonymous requests.
	RequireAuth bool

	// MediaRoot is served under MediaPrefix. Empty disables media serving.
	MediaRoot   string
	MediaPrefix string

	// FeedDefaultLimit is used when /activity has no limit parameter.
	FeedDefaultLimit int

	// Login attempts per client IP. A zero rate disables throttling.
	LoginRatePerMinute float64
	LoginBurst         int

	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             8000,
		ReadTimeout:      15 * time.Second,
		WriteTimeout:     30 * time.Second,
		IdleTimeout:      60 * time.Second,
		MaxHeaderBytes:   1 << 20,
		AllowedOrigins:   []string{"*"},
		MaxBodyBytes:     1 << 20,
		MaxUploadBytes:   10 << 20,
		MediaPrefix:      "/media",
		FeedDefaultLimit: 50,
		Version:          "dev",

		LoginRatePerMinute: 10,
		LoginBurst:         5,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains the application handlers behind the API.
type Dependencies struct {
	// Commands
	Auth     *command.AuthHandler
	Users    *command.UserHandler
	Taxonomy *command.TaxonomyHandler
	Points   *command.PointHandler
	Marks    *command.MarkHandler

	// Queries
	Content      *query.ContentHandler
	Achievements *query.AchievementsHandler
	Activity     *query.ActivityHandler
	Progress     *query.UserProgressHandler
	Leaderboard  *query.LeaderboardHandler

	// Tokens validates bearer tokens. Nil disables authentication.
	Tokens handlers.TokenParser

	HealthChecker handlers.HealthChecker
	Logger        *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	logger     *logger.Logger
	validator  *Validator
	auth       *handlers.BearerAuth
	loginLimit *handlers.RateLimiter

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a server with routes and middleware installed.
func NewServer(config Config, deps Dependencies) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		deps:      deps,
		router:    mux.NewRouter(),
		logger:    deps.Logger,
		validator: validator,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With(logger.Component("http"))
	if s.config.FeedDefaultLimit <= 0 {
		s.config.FeedDefaultLimit = DefaultConfig().FeedDefaultLimit
	}
	if s.deps.HealthChecker == nil {
		s.deps.HealthChecker = handlers.NewCompositeHealthChecker(config.Version)
	}
	s.auth = handlers.NewBearerAuth(deps.Tokens, config.RequireAuth && deps.Tokens != nil, writeUnauthorized)
	s.loginLimit = handlers.NewRateLimiter(handlers.RateLimiterConfig{
		RequestsPerMinute: config.LoginRatePerMinute,
		Burst:             config.LoginBurst,
	})

	s.setupRoutes()
	s.handler = s.buildMiddlewareChain(s.router)

	s.httpServer = &http.Server{
		Addr:              config.Address(),
		Handler:           s.handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		MaxHeaderBytes:    config.MaxHeaderBytes,
	}
	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, codeNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllow, "Method not allowed")
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status
	// ─────────────────────────────────────────────────────────────────────────
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)

	if s.config.MediaRoot != "" && s.config.MediaPrefix != "" {
		prefix := strings.TrimSuffix(s.config.MediaPrefix, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, mediaHandler(s.config.MediaRoot))).Methods(http.MethodGet, http.MethodHead)
	}

	api := r.PathPrefix("/api/" + apiVersion).Subrouter()
	api.Use(s.routeMiddleware, s.auth.Identify)
	protect := s.auth.Require

	// ─────────────────────────────────────────────────────────────────────────
	// Auth & Users
	// ─────────────────────────────────────────────────────────────────────────
	throttle := s.loginLimit.Limit(getClientIP, writeTooManyRequests)
	api.HandleFunc("/auth/login", throttle(s.handleLogin)).Methods(http.MethodPost)

	api.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", protect(s.handleUpdateUser)).Methods(http.MethodPatch)
	api.HandleFunc("/users/{id}", protect(s.handleDeleteUser)).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/avatar", protect(s.handleUploadAvatar)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/activity", s.handleUserActivity).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/comments", s.handleUserComments).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/achievements", s.handleUserAchievements).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/achievements/progress", s.handleAchievementProgress).Methods(http.MethodGet)

	// ─────────────────────────────────────────────────────────────────────────
	// Taxonomy
	// ─────────────────────────────────────────────────────────────────────────
	api.HandleFunc("/industries", protect(s.handleCreateIndustry)).Methods(http.MethodPost)
	api.HandleFunc("/industries", s.handleListIndustries).Methods(http.MethodGet)
	api.HandleFunc("/industries/{id}", s.handleGetIndustry).Methods(http.MethodGet)
	api.HandleFunc("/industries/{id}", protect(s.handleUpdateIndustry)).Methods(http.MethodPatch)
	api.HandleFunc("/industries/{id}", protect(s.handleDeleteIndustry)).Methods(http.MethodDelete)

	api.HandleFunc("/sub-industries", protect(s.handleCreateSubIndustry)).Methods(http.MethodPost)
	api.HandleFunc("/sub-industries", s.handleListSubIndustries).Methods(http.MethodGet)
	api.HandleFunc("/sub-industries/{id}", s.handleGetSubIndustry).Methods(http.MethodGet)
	api.HandleFunc("/sub-industries/{id}", protect(s.handleUpdateSubIndustry)).Methods(http.MethodPatch)
	api.HandleFunc("/sub-industries/{id}", protect(s.handleDeleteSubIndustry)).Methods(http.MethodDelete)

	api.HandleFunc("/criteria", protect(s.handleCreateCriteria)).Methods(http.MethodPost)
	api.HandleFunc("/criteria", s.handleListCriteria).Methods(http.MethodGet)
	api.HandleFunc("/criteria/{id}", s.handleGetCriteria).Methods(http.MethodGet)
	api.HandleFunc("/criteria/{id}", protect(s.handleUpdateCriteria)).Methods(http.MethodPatch)
	api.HandleFunc("/criteria/{id}", protect(s.handleDeleteCriteria)).Methods(http.MethodDelete)

	// ─────────────────────────────────────────────────────────────────────────
	// Points & Marks
	// ─────────────────────────────────────────────────────────────────────────
	api.HandleFunc("/points", protect(s.handleCreatePoint)).Methods(http.MethodPost)
	api.HandleFunc("/points", s.handleListPoints).Methods(http.MethodGet)
	api.HandleFunc("/points/{id}", s.handleGetPoint).Methods(http.MethodGet)
	api.HandleFunc("/points/{id}/criteria", s.handlePointCriteria).Methods(http.MethodGet)
	api.HandleFunc("/points/{id}", protect(s.handleUpdatePoint)).Methods(http.MethodPatch)
	api.HandleFunc("/points/{id}", protect(s.handleDeletePoint)).Methods(http.MethodDelete)

	api.HandleFunc("/marks", protect(s.handleCreateMark)).Methods(http.MethodPost)
	api.HandleFunc("/marks", s.handleListMarks).Methods(http.MethodGet)
	api.HandleFunc("/marks/{id}", s.handleGetMark).Methods(http.MethodGet)
	api.HandleFunc("/marks/{id}/photos", protect(s.handleAddMarkPhotos)).Methods(http.MethodPost)
	api.HandleFunc("/marks/{id}", protect(s.handleDeleteMark)).Methods(http.MethodDelete)

	// ─────────────────────────────────────────────────────────────────────────
	// Gamification
	// ─────────────────────────────────────────────────────────────────────────
	api.HandleFunc("/achievements", s.handleListAchievements).Methods(http.MethodGet)
	api.HandleFunc("/achievements/{id}", s.handleGetAchievement).Methods(http.MethodGet)
	api.HandleFunc("/achievements/users/{id}/achievements", s.handleAchievementProgress).Methods(http.MethodGet)
	api.HandleFunc("/gamification/users/{id}/progress", s.handleUserProgress).Methods(http.MethodGet)
	api.HandleFunc("/gamification/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/gamification/users/{id}/rank", s.handleUserRank).Methods(http.MethodGet)
}

// mediaHandler serves stored files without directory listings.
func mediaHandler(root string) http.Handler {
	files := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

// buildMiddlewareChain wraps the router. Route-aware middleware (tracing,
// authentication) is installed on the API subrouter instead.
func (s *Server) buildMiddlewareChain(h http.Handler) http.Handler {
	return handlers.Chain(h,
		s.recoveryMiddleware,
		handlers.RequestID,
		s.loggingMiddleware,
		s.corsMiddleware,
		handlers.SecurityHeaders,
		handlers.BodyLimit(s.config.MaxBodyBytes),
	)
}

type requestInfoKey struct{}

// requestInfo is filled by inner middleware for the access log.
type requestInfo struct {
	route string
}

// loggingMiddleware logs all HTTP requests and installs a request-scoped
// logger in the context.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := handlers.RequestIDFromContext(r.Context())

		info := &requestInfo{}
		ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
		ctx = logger.WithContext(ctx, s.logger.WithRequestID(requestID))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		fields := []logger.Field{
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(time.Since(start)),
			logger.String("ip", getClientIP(r)),
			logger.String("request_id", requestID),
		}
		if info.route != "" {
			fields = append(fields, logger.String("route", info.route))
		}

		switch {
		case rw.statusCode >= 500:
			s.logger.Error("http request", fields...)
		case rw.statusCode >= 400:
			s.logger.Warn("http request", fields...)
		default:
			s.logger.Info("http request", fields...)
		}
	})
}

// routeMiddleware records the matched route and opens a server span.
func (s *Server) routeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
			info.route = route
		}

		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracing.Start(ctx, r.Method+" "+route,
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.request_id", handlers.RequestIDFromContext(r.Context())),
		)

		next.ServeHTTP(w, r.WithContext(ctx))

		var spanErr error
		if rw, ok := w.(*responseWriter); ok {
			span.SetAttributes(attribute.Int("http.response.status_code", rw.statusCode))
			if rw.statusCode >= 500 {
				spanErr = fmt.Errorf("http status %d", rw.statusCode)
			}
		}
		tracing.End(span, spanErr)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				s.logger.Error("panic recovered",
					logger.Any("error", rec),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.String("request_id", handlers.RequestIDFromContext(r.Context())),
				)
				writeJSONError(w, r, http.StatusInternalServerError, codeInternal, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := ""
		for _, o := range s.config.AllowedOrigins {
			if o == "*" {
				allowed = "*"
				if origin != "" {
					allowed = origin
				}
				break
			}
			if o == origin {
				allowed = origin
				break
			}
		}

		if allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	if s.config.MediaRoot != "" {
		if err := os.MkdirAll(s.config.MediaRoot, 0o755); err != nil {
			return fmt.Errorf("create media root: %w", err)
		}
	}

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
