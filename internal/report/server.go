// Package report serves the run history read-only over HTTP.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/pclgate/internal/logging"
	"github.com/danielpatrickdp/pclgate/internal/replay"
	"github.com/danielpatrickdp/pclgate/internal/state"
	"github.com/danielpatrickdp/pclgate/internal/thresholds"
)

const (
	defaultLimit = 20
	maxLimit     = 500
	maxBodyBytes = 1 << 20
)

// History is the part of state.Store the server reads.
type History interface {
	ListRuns(limit int) ([]state.RunRecord, error)
	GetRun(id string) (state.RunRecord, error)
	GetPublished() (state.RunRecord, error)
	Records(runID string) ([]logging.ProvenanceEntry, error)
}

// Server is the HTTP server for the run history.
type Server struct {
	history  History
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(history History, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		history:  history,
		gatherer: gatherer,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok\n")
	})
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/records", s.handleRecords)
		r.Post("/runs/{runID}/replay", s.handleReplay)
		r.Get("/published", s.handlePublished)
	})
}

// Start begins listening for HTTP requests on addr.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting report server", zap.String("addr", ln.Addr().String()))
	return s.server.Serve(ln)
}

// Shutdown gracefully stops the server. Calling it before Serve makes Serve
// return http.ErrServerClosed immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// #region handlers
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}

	runs, err := s.history.ListRuns(limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if runs == nil {
		runs = []state.RunRecord{}
	}
	respondJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.history.GetRun(chi.URLParam(r, "runID"))
	if err != nil {
		s.runError(w, r, err)
		return
	}
	respondJSON(w, run)
}

func (s *Server) handlePublished(w http.ResponseWriter, r *http.Request) {
	run, err := s.history.GetPublished()
	if err != nil {
		s.runError(w, r, err)
		return
	}
	respondJSON(w, run)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := s.history.GetRun(runID); err != nil {
		s.runError(w, r, err)
		return
	}
	records, err := s.history.Records(runID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if records == nil {
		records = []logging.ProvenanceEntry{}
	}
	respondJSON(w, records)
}

// handleReplay re-evaluates a stored run against the YAML threshold table in
// the request body.
func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := s.history.GetRun(runID); err != nil {
		s.runError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	table, err := thresholds.Parse(body)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := s.history.Records(runID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	entries, err := replay.EntriesFromProvenance(rows)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	respondJSON(w, replay.Summarize(replay.Replay(entries, table, s.logger)))
}

// #endregion handlers

// #region responses
type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func (s *Server) runError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, state.ErrRunNotFound) {
		respondError(w, "run not found", http.StatusNotFound)
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	respondError(w, "internal error", http.StatusInternalServerError)
}

// #endregion responses
