package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
	"github.com/couchcryptid/disaster-feed-sync/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PassTrigger runs one reconciliation pass on demand.
type PassTrigger interface {
	RunOnce(ctx context.Context) (pipeline.Result, error)
}

// Server exposes health, readiness, metrics and the manual reconcile trigger.
type Server struct {
	httpServer *http.Server
	trigger    PassTrigger
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /reconcile routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, trigger PassTrigger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		trigger: trigger,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /reconcile", s.handleReconcile)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type reconcileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PassID  string `json:"pass_id,omitempty"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	// A client hanging up must not cut a pass short.
	res, err := s.trigger.RunOnce(context.WithoutCancel(r.Context()))
	if err != nil {
		status := statusForError(err)
		s.logger.Warn("manual reconcile failed", "status", status, "error", err)
		writeJSON(w, status, reconcileResponse{
			Success: false,
			Message: "update failed: " + err.Error(),
			PassID:  res.PassID,
		})
		return
	}

	writeJSON(w, http.StatusOK, reconcileResponse{
		Success: true,
		Message: "update successful: " + res.Message(),
		PassID:  res.PassID,
	})
}

func statusForError(err error) int {
	var (
		fetchErr *domain.FetchError
		parseErr *domain.ParseError
		typeErr  *domain.UnknownTypeCodeError
	)
	switch {
	case errors.Is(err, pipeline.ErrPassInProgress):
		return http.StatusConflict
	case errors.As(err, &fetchErr), errors.As(err, &parseErr), errors.As(err, &typeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
