package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Sirimanoj/finguru/internal/application"
	"github.com/Sirimanoj/finguru/internal/persistence"
	"github.com/Sirimanoj/finguru/internal/providers/gemini"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

// writeServiceError maps application and persistence errors onto the
// HTTP surface. Unknown errors become opaque 500s.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, application.ErrRateLimited):
		s.writeError(w, r, http.StatusTooManyRequests, "rate_limited", "slow down and try again shortly")
	case errors.Is(err, persistence.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "not_found", "the requested resource does not exist")
	case errors.Is(err, gemini.ErrUnavailable):
		s.writeError(w, r, http.StatusBadGateway, "mentor_unavailable", "the mentor is temporarily unavailable, try again shortly")
	default:
		s.writeError(w, r, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   s.deps.Version,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.deps.Hub.Serve(w, r, userID(r.Context()))
}
