// Package server provides the HTTP REST API for catalog enrichment.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/catalog-enricher/internal/agent"
	"github.com/jonathan/catalog-enricher/internal/db"
	"github.com/jonathan/catalog-enricher/internal/enrichment"
	"github.com/jonathan/catalog-enricher/internal/export"
	"github.com/jonathan/catalog-enricher/internal/server/ratelimit"
	"github.com/jonathan/catalog-enricher/internal/types"
)

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	handler      http.Handler
	db           *db.DB
	orchestrator *enrichment.Orchestrator
	formatter    *export.Formatter
	defaults     types.EnrichmentConfig
	rateLimiter  *ratelimit.Limiter
	validate     *validator.Validate
	sessions     *sessions
	logger       *log.Logger

	// background runs
	baseCtx context.Context
	cancel  context.CancelFunc
	runs    sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Port          int
	DB            *db.DB
	Enricher      agent.Enricher
	Notifier      agent.ExportNotifier
	Concurrency   int
	NotifyTimeout time.Duration
	Enrichment    types.EnrichmentConfig // Used when an upload carries no config
	RateLimit     *ratelimit.Config      // nil loads RATE_LIMIT_* from the environment
	Logger        *log.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("server requires a job store")
	}
	if cfg.Enricher == nil {
		return nil, fmt.Errorf("server requires an enrichment capability")
	}
	if err := cfg.Enrichment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default enrichment config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	rateCfg := cfg.RateLimit
	if rateCfg == nil {
		rateCfg = ratelimit.LoadConfig()
	}

	s := &Server{
		db: cfg.DB,
		orchestrator: enrichment.New(cfg.Enricher, enrichment.Options{
			Concurrency: cfg.Concurrency,
			Recorder:    cfg.DB,
			Logger:      logger,
		}),
		formatter: export.NewFormatter(export.Options{
			Notifier:      cfg.Notifier,
			NotifyTimeout: cfg.NotifyTimeout,
			Logger:        logger,
		}),
		defaults:    cfg.Enrichment,
		rateLimiter: ratelimit.NewLimiter(rateCfg),
		validate:    validator.New(),
		sessions:    newSessions(),
		logger:      logger,
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)

	// Jobs
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("POST /jobs", s.handleCreateJob)
	mux.HandleFunc("POST /jobs/stream", s.handleCreateJobStream)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /jobs/{id}/progress", s.handleJobProgress)

	// Review
	mux.HandleFunc("GET /jobs/{id}/review", s.handleGetReview)
	mux.HandleFunc("POST /jobs/{id}/review/toggle-all", s.handleToggleAll)
	mux.HandleFunc("POST /jobs/{id}/review/products/{pid}/toggle", s.handleToggleProduct)
	mux.HandleFunc("POST /jobs/{id}/review/products/{pid}/expand", s.handleExpandProduct)
	mux.HandleFunc("PATCH /jobs/{id}/review/products/{pid}", s.handleEditProduct)
	mux.HandleFunc("POST /jobs/{id}/review/approve", s.handleApprove)
	mux.HandleFunc("POST /jobs/{id}/review/save", s.handleSaveReview)

	// Export
	mux.HandleFunc("POST /jobs/{id}/export", s.handleExport)

	// CORS first so preflights skip the limiter and 429s stay readable
	s.handler = s.withCORS(s.withRateLimit(s.withLogging(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for streamed runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the root handler including middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Println("Server stopped")
	return nil
}

// Close cancels background runs and waits for them and for pending export notifications
func (s *Server) Close() {
	s.cancel()
	s.Wait()
	s.rateLimiter.Stop()
}

// Wait blocks until background runs and export notifications have finished
func (s *Server) Wait() {
	s.runs.Wait()
	s.formatter.Wait()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Export-Count, X-Export-Message, X-Job-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		s.logger.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code and writes it
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("[%s] %s failed: %v", r.Method, r.URL.Path, err)
	}
	s.errorResponse(w, status, errorMessage(err))
}

// clientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d", info.Limit, info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
