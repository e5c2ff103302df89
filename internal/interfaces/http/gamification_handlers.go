package http

import "net/http"

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	view, applied, err := s.deps.Gamification.CheckIn(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CheckInResponse{Applied: applied, State: view})
}

func (s *Server) handleGamification(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Gamification.Get(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}
