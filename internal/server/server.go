package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
)

const maxRequestBytes = 1 << 20

// Analyzer runs one analysis
type Analyzer interface {
	RunAnalysis(ctx context.Context, claim model.Claim) (model.Report, error)
}

// Enricher fills missing claim fields from the source page
type Enricher interface {
	EnrichClaim(ctx context.Context, claim model.Claim) (model.Claim, error)
}

// RequestRecorder counts requests by route and status code
type RequestRecorder interface {
	ObserveRequest(route string, code int)
}

// Options configure optional server features
type Options struct {
	Enricher       Enricher        // nil disables "fetch": true
	Recorder       RequestRecorder // nil disables request counting
	MetricsHandler http.Handler    // served on GET /metrics when set
	Logger         *slog.Logger
}

// Server is the credence HTTP API
type Server struct {
	analyzer Analyzer
	enricher Enricher
	recorder RequestRecorder
	metrics  http.Handler
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a Server with all routes registered
func New(analyzer Analyzer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		analyzer: analyzer,
		enricher: opts.Enricher,
		recorder: opts.Recorder,
		metrics:  opts.MetricsHandler,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)

	route := r.Pattern
	if route == "" {
		route = "unmatched"
	}
	if s.recorder != nil {
		s.recorder.ObserveRequest(route, sw.status)
	}
	s.logger.Info("request",
		"request_id", requestID,
		"method", r.Method,
		"route", route,
		"status", sw.status,
		"elapsed", time.Since(start),
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "credence",
	})
}

// analyzeRequest is the JSON body of POST /v1/analyze
type analyzeRequest struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
	MediaKey  string `json:"media_key"`
	Fetch     bool   `json:"fetch"` // fill missing text/media from the source page
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claim := model.Claim{Text: req.Text, SourceURL: req.SourceURL, MediaKey: req.MediaKey}

	if req.Fetch {
		if s.enricher == nil {
			writeError(w, http.StatusBadRequest, "page fetching is not enabled")
			return
		}
		enriched, err := s.enricher.EnrichClaim(r.Context(), claim)
		switch {
		case errors.Is(err, pipeline.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		claim = enriched
	}

	report, err := s.analyzer.RunAnalysis(r.Context(), claim)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
