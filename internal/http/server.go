// Package http is the JSON API surface. Routes are owner-scoped through the
// bearer-token middleware; dashboard and analytics snapshots are cached per
// owner and invalidated on every mutation.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"nozze/internal/auth"
	"nozze/internal/cache"
	"nozze/internal/services"
	"nozze/internal/storage"
)

type ctxKey string

const (
	ctxKeyOwner     ctxKey = "owner"
	ctxKeyRequestID ctxKey = "request_id"
)

type Server struct {
	http.Server
	repo        *storage.SQLiteRepository
	expenses    *services.ExpenseService
	verifier    *auth.Verifier
	rateLimiter *rateLimiter

	dashboardCache *cache.LRUCache[dashboardResponse]
	analyticsCache *cache.LRUCache[analyticsResponse]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, repo *storage.SQLiteRepository, expenses *services.ExpenseService, verifier *auth.Verifier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:           repo,
		expenses:       expenses,
		verifier:       verifier,
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[dashboardResponse](100, 5*time.Minute),
		analyticsCache: cache.NewLRUCache[analyticsResponse](100, 5*time.Minute),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/expenses", s.secure(s.owned(s.handleCreateExpense)))
	mux.HandleFunc("GET /api/expenses", s.secure(s.owned(s.handleListExpenses)))
	mux.HandleFunc("GET /api/expenses/{id}", s.secure(s.owned(s.handleGetExpense)))
	mux.HandleFunc("PUT /api/expenses/{id}", s.secure(s.owned(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.secure(s.owned(s.handleDeleteExpense)))

	mux.HandleFunc("GET /api/categories", s.secure(s.owned(s.handleListCategories)))
	mux.HandleFunc("GET /api/payment-modes", s.secure(s.owned(s.handleListPaymentModes)))
	mux.HandleFunc("GET /api/paid-by", s.secure(s.owned(s.handleListPaidBy)))
	mux.HandleFunc("POST /api/paid-by", s.secure(s.owned(s.handleCreatePaidBy)))
	mux.HandleFunc("GET /api/events", s.secure(s.owned(s.handleListEvents)))
	mux.HandleFunc("POST /api/events", s.secure(s.owned(s.handleCreateEvent)))

	mux.HandleFunc("GET /api/setup", s.secure(s.owned(s.handleSetupStatus)))
	mux.HandleFunc("POST /api/setup", s.secure(s.owned(s.handleSetup)))

	mux.HandleFunc("GET /api/profile", s.secure(s.owned(s.handleGetProfile)))
	mux.HandleFunc("PUT /api/profile", s.secure(s.owned(s.handleUpsertProfile)))

	mux.HandleFunc("GET /api/dashboard", s.secure(s.owned(s.handleDashboard)))
	mux.HandleFunc("GET /api/analytics", s.secure(s.owned(s.handleAnalytics)))

	return s
}

// ownerHandler is a handler that runs after authentication.
type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

// owned authenticates the request and passes the token subject along.
func (s *Server) owned(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := s.verifier.OwnerFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected request",
				"error", err, "method", r.Method, "url", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyOwner, owner)
		next(w, r.WithContext(ctx), owner)
	}
}

// secure adds request ids, security headers, rate limiting on mutations, and
// request logging.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter captures the status code for the completion log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateSnapshots drops the owner's cached aggregates after a mutation.
func (s *Server) invalidateSnapshots(owner string) {
	s.dashboardCache.Invalidate(owner)
	s.analyticsCache.Invalidate(owner)
}

// Shutdown stops the rate limiter's cleanup goroutine along with the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	if errors.Is(shutdownErr, http.ErrServerClosed) {
		return nil
	}
	return shutdownErr
}
