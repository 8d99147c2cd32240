package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// OperationsResponse lists the operations the server dispatches.
type OperationsResponse struct {
	Operations []string `json:"operations"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Supervisor any    `json:"supervisor,omitempty"`
}

func (s *Server) listOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OperationsResponse{Operations: s.registry.Operations()})
}

// callOperation dispatches the named operation. Operation failures are
// part of the envelope; only an unusable request body changes the status.
func (s *Server) callOperation(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "operation")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeInvalidRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unreadable request body")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "request body is not valid JSON")
		return
	}

	writeJSON(w, http.StatusOK, s.registry.Dispatch(r.Context(), op, body))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.status != nil {
		resp.Supervisor = s.status()
	}
	writeJSON(w, http.StatusOK, resp)
}
