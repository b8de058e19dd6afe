// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/phq9/internal/adapters/ratelimit"
	"github.com/okian/phq9/internal/adapters/sheet"
	"github.com/okian/phq9/internal/domain/model"
	"github.com/okian/phq9/internal/domain/resolver"
	"github.com/okian/phq9/internal/domain/types"
	"github.com/okian/phq9/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze scores one respondent against a fresh copy of the sheet.
	Analyze(ctx context.Context, id model.Identity) (types.Assessment, error)
}

// Option configures the Server.
type Option func(*Server)

// WithLimiter enables rate limiting on /analyze.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithTrustProxy keys rate limits on the first X-Forwarded-For hop. Only
// enable it behind a proxy that overwrites the header.
func WithTrustProxy(trust bool) Option {
	return func(s *Server) {
		s.trustProxy = trust
	}
}

// WithAllowedOrigins sets the CORS origin list; "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	analyzeHandler *AnalyzeHandler

	limiter    ratelimit.Limiter
	trustProxy bool
	origins    []string
	logger     logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		origins:       []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.analyzeHandler = NewAnalyzeHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	analyze := s.analyzeHandler.HandleAnalyze
	if s.limiter != nil {
		analyze = RateLimitMiddleware(analyze, s.limiter, "analyze", s.trustProxy, s.logger)
	}

	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.healthHandler.HandleRoot, "root"))
	mux.HandleFunc("GET /health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("GET /analyze", MetricsMiddleware(analyze, "analyze"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
}

// Handler wraps next with the cross-cutting middleware every route shares.
func (s *Server) Handler(next http.Handler) http.Handler {
	return RequestIDMiddleware(CORSMiddleware(next, s.origins))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps a service error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidIdentity):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, resolver.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, resolver.ErrAmbiguous):
		return http.StatusConflict, CodeAmbiguousMatch
	case errors.Is(err, sheet.ErrParse), errors.Is(err, resolver.ErrMalformedRow):
		return http.StatusInternalServerError, CodeParseError
	case errors.Is(err, sheet.ErrFetch) && sheet.IsTimeout(err):
		return http.StatusGatewayTimeout, CodeUpstreamTimeout
	case errors.Is(err, sheet.ErrFetch), errors.Is(err, sheet.ErrNoSheet):
		return http.StatusBadGateway, CodeUpstreamFetch
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
