// Package server provides the HTTP REST API for the skill gap analyzer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/skill-gap-analyzer/internal/analytics"
	"github.com/jonathan/skill-gap-analyzer/internal/analyzer"
	"github.com/jonathan/skill-gap-analyzer/internal/catalog"
	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/db"
	"github.com/jonathan/skill-gap-analyzer/internal/server/middleware"
	"github.com/jonathan/skill-gap-analyzer/internal/server/ratelimit"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 30 * time.Second
	healthTimeout   = 2 * time.Second
)

// Analyzer produces an analysis for a student's skills against a catalog role.
type Analyzer interface {
	Analyze(ctx context.Context, skills []string, role types.RoleCatalogEntry) (*analyzer.Result, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	store       db.Store
	catalog     *catalog.Catalog
	analyzer    Analyzer
	analytics   *analytics.Service
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	validator   *validator.Validate
	corsOrigin  string
}

// Config holds server configuration
type Config struct {
	Port       int
	CORSOrigin string
	// RateLimit nil reads RATE_LIMIT_* from the environment.
	RateLimit *ratelimit.Config
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store     db.Store
	Catalog   *catalog.Catalog
	Analyzer  Analyzer
	Analytics *analytics.Service
	JWT       *config.JWTConfig
	Passwords *config.PasswordConfig
	// IsAdminEmail decides which registrations are created as admins.
	IsAdminEmail func(email string) bool
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.Catalog == nil:
		return nil, errors.New("server: role catalog is required")
	case deps.Analyzer == nil:
		return nil, errors.New("server: analyzer is required")
	case deps.JWT == nil:
		return nil, errors.New("server: JWT config is required")
	case deps.Passwords == nil:
		return nil, errors.New("server: password config is required")
	}
	if deps.Analytics == nil {
		deps.Analytics = analytics.NewService(deps.Store, nil, 0)
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.LoadConfig()
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}

	s := &Server{
		store:       deps.Store,
		catalog:     deps.Catalog,
		analyzer:    deps.Analyzer,
		analytics:   deps.Analytics,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		jwtService:  NewJWTService(deps.JWT),
		userService: NewUserService(deps.Store, deps.Passwords, deps.IsAdminEmail),
		validator:   validator.New(),
		corsOrigin:  cfg.CORSOrigin,
	}
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(s.routes())))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // AI analyses can take up to the provider timeout
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return auth(middleware.RequireAdmin(h)) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /v1/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", s.authHandler.Login)

	mux.Handle("GET /v1/me", authed(s.handleGetMe))
	mux.Handle("PUT /v1/me/profile", authed(s.handleUpdateProfile))
	mux.Handle("PUT /v1/me/password", authed(s.authHandler.UpdatePassword))

	mux.HandleFunc("GET /v1/catalog/roles", s.handleListRoles)
	mux.HandleFunc("GET /v1/catalog/roles/{id}", s.handleGetRole)
	mux.HandleFunc("GET /v1/catalog/options", s.handleCatalogOptions)

	mux.Handle("POST /v1/analyses", authed(s.handleCreateAnalysis))
	mux.Handle("POST /v1/analyses/estimate", authed(s.handleEstimate))
	mux.Handle("GET /v1/analyses", authed(s.handleListAnalyses))
	mux.Handle("GET /v1/analyses/latest", authed(s.handleLatestAnalysis))

	mux.Handle("GET /v1/admin/analytics", admin(s.handleCampusAnalytics))
	mux.Handle("GET /v1/admin/students", admin(s.handleListStudents))
	mux.Handle("GET /v1/admin/analyses", admin(s.handleListAllAnalyses))
	return mux
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("Server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer s.Close()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

// Close stops background work owned by the server. The store is owned by the caller.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if s.corsOrigin != "*" {
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		var event *zerolog.Event
		switch {
		case rec.status >= 500:
			event = log.Error()
		case rec.status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Str("client", s.extractClientID(r)).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// handleHealth reports whether the store is reachable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("health check failed")
		jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// serviceErrorResponse maps a service error to its status. Internal errors are logged and
// never echoed to the client.
func serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		errorResponse(w, status, "Internal server error")
		return
	}
	errorResponse(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	log.Warn().
		Str("client", s.extractClientID(r)).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Time("reset", info.ResetTime).
		Msg("rate limit exceeded")

	jsonResponse(w, http.StatusTooManyRequests, response)
}
