// Package http exposes the planner as a local JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/services"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	http.Server
	planner     *services.Planner
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	now         func() time.Time
	started     time.Time

	shutdownOnce sync.Once
}

type ServerOption func(*Server)

// WithRateLimit sets the per-client budget of mutating requests per minute.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) { s.rateLimiter.limit = perMinute }
}

// WithClock replaces time.Now, which supplies the default date of new items.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, planner *services.Planner, logger *log.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		planner:     planner,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(defaultRateLimit, logger.WithComponent(log.ComponentRateLimit).Slog()),
		metrics:     &securityMetrics{},
		now:         time.Now,
		started:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)

	mux.HandleFunc("POST /api/month", s.handleSwitchMonth)
	mux.HandleFunc("POST /api/month/next", s.handleNextMonth)
	mux.HandleFunc("POST /api/month/prev", s.handlePrevMonth)

	mux.HandleFunc("PUT /api/income", s.handleUpdateIncome)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("PUT /api/filter", s.handleSetFilter)

	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleEditExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("POST /api/maturities", s.handleAddMaturity)
	mux.HandleFunc("POST /api/maturities/{id}/toggle", s.handleToggleMaturity)
	mux.HandleFunc("POST /api/maturities/{id}/convert", s.handleConvertMaturity)
	mux.HandleFunc("DELETE /api/maturities/{id}", s.handleDeleteMaturity)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)

	requestID := func(r *http.Request) string { return r.Header.Get(requestIDHeader) }
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.withSecurityHeaders(log.Middleware(s.logger, requestID)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging around next.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = generateRequestID()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldRequestID, id, log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(rw)
		} else {
			next.ServeHTTP(rw, r)
		}

		ctx := log.NewContext(r.Context(), s.logger.With(log.FieldRequestID, id))
		log.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
