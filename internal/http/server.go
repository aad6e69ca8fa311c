// Package http exposes the admin portal JSON API: login, dashboard,
// cluster and household reads, payment collection and the household edit
// flow.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"housetax/internal/log"
	"housetax/internal/registry"
	"housetax/internal/services"
)

type Server struct {
	http.Server
	registry     *registry.Registry
	tax          *services.TaxService
	logger       *log.Logger
	rateLimiter  *rateLimiter
	started      time.Time
	shutdownOnce sync.Once
}

func NewServer(addr string, reg *registry.Registry, tax *services.TaxService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	s := &Server{
		registry:    reg,
		tax:         tax,
		logger:      logger,
		rateLimiter: newRateLimiter(),
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/users/password", s.handleChangePassword)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/clusters", s.handleClusters)
	mux.HandleFunc("GET /api/clusters/{id}/households", s.handleClusterHouseholds)
	mux.HandleFunc("GET /api/households/{id}", s.handleHousehold)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/payments", s.handlePayments)
	mux.HandleFunc("GET /api/households/{id}/receipts/{receiptNo}", s.handleReceipt)

	mux.HandleFunc("POST /api/households/{id}/payments", s.handleAddPayment)
	mux.HandleFunc("POST /api/households/{id}/edit", s.handleBeginEdit)
	mux.HandleFunc("PUT /api/households/{id}/draft", s.handleSetDraft)
	mux.HandleFunc("PUT /api/households/{id}/draft/demand", s.handleSetDraftDemand)
	mux.HandleFunc("POST /api/households/{id}/save", s.handleSaveEdit)
	mux.HandleFunc("POST /api/households/{id}/cancel", s.handleCancelEdit)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// withMiddleware wraps the mux with security headers, request id, write
// rate limiting and request logging, outermost first. The logger rides
// the request context so handlers can pick it up via log.FromContext.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	chain := log.Middleware(s.logger)(s.logRequests(next))
	return s.securityHeaders(s.requestID(s.limitWrites(chain)))
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = generateRequestID()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// limitWrites rate limits mutating requests per client IP. Reads stay
// unthrottled; the portal refreshes aggressively.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			if !s.rateLimiter.allow(clientIP(r)) {
				s.logger.Warn("Rate limit exceeded",
					log.FieldClientIP, clientIP(r),
					log.FieldPath, r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Info("Request handled",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.status,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldRequestID, w.Header().Get("X-Request-Id"))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
