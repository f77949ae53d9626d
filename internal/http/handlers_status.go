package http

import (
	"encoding/json"
	"net/http"
	"time"

	"econorise/internal/health"
)

// handleAPIStatus renders the backend status badge from the monitor's
// latest snapshot. It never calls the backend itself.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "api_status", s.status())
}

func (s *Server) status() health.Status {
	if s.deps.Status == nil {
		return health.Status{Checking: true}
	}
	return s.deps.Status.Status()
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports not ready while templates are missing or the backend
// is known to be offline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	backend := s.status()
	checks["backend"] = map[string]any{
		"status":     backend.Label(),
		"checked_at": backend.CheckedAt,
	}
	if backend.KnownOffline() {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"rejected":       s.limiter.Rejected(),
	}
	checks["security"] = s.detector.GetMetrics()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
