// Package server exposes calibration runs over HTTP.
//
// Routes:
//
//	POST /v1/calibrate  JSON request in, result document out
//	GET  /healthz       liveness probe
//	GET  /metrics       Prometheus metrics
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/agbru/storagecast/internal/errors"
	"github.com/agbru/storagecast/internal/export"
	"github.com/agbru/storagecast/internal/logging"
	"github.com/agbru/storagecast/internal/metrics"
	"github.com/agbru/storagecast/internal/orchestration"
	"github.com/agbru/storagecast/internal/scenario"
	"github.com/agbru/storagecast/internal/series"
)

// Timeouts of the underlying http.Server.
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second
	// DefaultRequestTimeout bounds one calibration when Config.RequestTimeout
	// is zero.
	DefaultRequestTimeout = 30 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr           string
	Concurrency    int
	RequestTimeout time.Duration
	Security       SecurityConfig
}

// Server runs calibration requests against a fixed historical series.
type Server struct {
	cfg        Config
	calibrator orchestration.Calibrator
	provider   series.Provider
	exporter   export.Exporter
	metrics    *metrics.Collector
	logger     logging.Logger
	httpServer *http.Server
}

// New creates a Server. exporter may be nil; when set every successful run
// is also persisted through it.
func New(cfg Config, calibrator orchestration.Calibrator, provider series.Provider,
	exporter export.Exporter, m *metrics.Collector, logger logging.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		cfg:        cfg,
		calibrator: calibrator,
		provider:   provider,
		exporter:   exporter,
		metrics:    m,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(h))
	}
	mux.HandleFunc("/v1/calibrate", wrap(s.handleCalibrate))
	mux.HandleFunc("/healthz", wrap(s.handleHealth))
	mux.HandleFunc("/metrics", wrap(s.handleMetrics))
	return mux
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", s.cfg.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	req, err := scenario.Decode(r.Body, scenario.FormatJSON)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	runner := orchestration.Runner{
		Calibrator:  s.calibrator,
		Provider:    s.provider,
		Concurrency: s.cfg.Concurrency,
		Recorder:    s.metrics,
		Logger:      s.logger,
	}
	res, err := runner.Run(ctx, req)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	if s.exporter != nil {
		if err := s.exporter.Export(ctx, res.Document); err != nil {
			s.writeError(w, http.StatusInternalServerError, apperrors.WrapError(err, "persisting run"))
			return
		}
	}

	// Encode before the status line so encoding failures still get a 500.
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, res.Document); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("writing response", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.logger.Debug("rejected metrics request", logging.String("method", r.Method))
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Year  int    `json:"year,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	body := errorResponse{Error: err.Error()}
	var paramErr apperrors.InvalidParameterError
	var dataErr apperrors.DataIntegrityError
	switch {
	case errors.As(err, &paramErr):
		body.Field = paramErr.Field
	case errors.As(err, &dataErr):
		body.Year = dataErr.Year
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", err, logging.Int("status", code))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps a run error to its HTTP status code.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case apperrors.IsInvalidParameter(err):
		return http.StatusBadRequest
	case apperrors.IsDataIntegrity(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
