package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mhdb/internal/logger"
	"mhdb/internal/metrics"
	"mhdb/internal/payload"
)

// APIPrefix is the path prefix of the store API.
const APIPrefix = "/api"

const maxBodyBytes = 32 << 20

// Server exposes a Store over HTTP.
type Server struct {
	store   *Store
	logger  *logger.Logger
	metrics *metrics.Recorder
	server  *http.Server
	mux     *http.ServeMux
	apiKey  string
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Store   *Store
	Logger  *logger.Logger
	Metrics *metrics.Recorder
	Addr    string
	// APIKey, when set, is required in the X-Api-Key header of write requests.
	APIKey string
}

// NewServer creates an API server over opts.Store.
func NewServer(opts ServerOptions) *Server {
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NewRecorder()
	}

	s := &Server{
		store:   opts.Store,
		logger:  opts.Logger,
		metrics: rec,
		mux:     http.NewServeMux(),
		apiKey:  opts.APIKey,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET "+APIPrefix+"/colleges", s.handleList)
	s.mux.HandleFunc("POST "+APIPrefix+"/colleges/bulk", s.handleBulk)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.middleware(s.requireAPIKey(s.mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(fmt.Sprintf("🚀 Reference store listening on %s", s.server.Addr))

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down reference store...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// middleware logs each request and counts it by route and status.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		op := r.Pattern
		if op == "" {
			op = "unmatched"
		}

		s.metrics.StoreRequest(op, sw.status)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", sw.status, "duration", time.Since(start))
	})
}

// requireAPIKey guards mutating API requests when a key is configured.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && mutating(r.Method) && strings.HasPrefix(r.URL.Path, APIPrefix+"/") &&
			r.Header.Get(payload.APIKeyHeader) != s.apiKey {
			respondMessage(w, http.StatusUnauthorized, "Invalid or missing API key.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}

	return false
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	colleges, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list colleges", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "failed to list colleges",
			"detail":  err.Error(),
		})

		return
	}

	respondJSON(w, http.StatusOK, colleges)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var colleges []payload.CollegePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&colleges); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.store.BulkUpsert(r.Context(), colleges)

	switch {
	case errors.Is(err, ErrNoColleges):
		respondMessage(w, http.StatusBadRequest, "No colleges provided.")
	case errors.Is(err, ErrMissingName), errors.Is(err, ErrMissingResource):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("bulk import failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "bulk import failed",
			"detail":  err.Error(),
		})
	default:
		s.logger.Info(fmt.Sprintf("📥 Imported %d college(s)", n))
		respondMessage(w, http.StatusOK, fmt.Sprintf("Successfully imported %d college(s).", n))
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
