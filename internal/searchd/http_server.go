package searchd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/GoSim-25-26J-441/replay-search/internal/engine"
	"github.com/GoSim-25-26J-441/replay-search/pkg/logger"
)

// StatusSource reports the search progress
type StatusSource interface {
	Status() engine.Status
}

type HTTPServer struct {
	mux     *http.ServeMux
	status  StatusSource
	metrics http.Handler
	worker  string
}

// NewHTTPServer serves health, status and, when metrics is non-nil, the Prometheus endpoint
func NewHTTPServer(worker string, status StatusSource, metrics http.Handler) *HTTPServer {
	s := &HTTPServer{
		mux:     http.NewServeMux(),
		status:  status,
		metrics: metrics,
		worker:  worker,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/status", s.handleStatus)
	if metrics != nil {
		s.mux.Handle("/metrics", metrics)
	}

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"worker":    s.worker,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"worker": s.worker,
		"status": s.status.Status(),
	})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
