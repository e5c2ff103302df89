package http

import (
	"encoding/base64"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Sirimanoj/finguru/internal/persistence"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Accounts.Profile(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p persistence.Profile
	if !s.decode(w, r, &p) {
		return
	}
	p.ID = userID(r.Context())
	saved, err := s.deps.Accounts.UpdateProfile(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarUploadRequest
	if !s.decode(w, r, &req) {
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_image", "image must be base64 encoded")
		return
	}
	p, err := s.deps.Accounts.SetAvatarImage(r.Context(), userID(r.Context()), image, req.MimeType)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAvatars(w http.ResponseWriter, r *http.Request) {
	avatars, err := s.deps.Accounts.Avatars(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, avatars)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Accounts.Settings(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var in persistence.Settings
	if !s.decode(w, r, &in) {
		return
	}
	in.UserID = userID(r.Context())
	saved, err := s.deps.Accounts.UpdateSettings(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.deps.Accounts.Expenses(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []persistence.Expense{}
	}
	s.writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var e persistence.Expense
	if !s.decode(w, r, &e) {
		return
	}
	e.UserID = userID(r.Context())
	saved, err := s.deps.Accounts.AddExpense(r.Context(), e)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var e persistence.Expense
	if !s.decode(w, r, &e) {
		return
	}
	e.ID = mux.Vars(r)["id"]
	e.UserID = userID(r.Context())
	saved, err := s.deps.Accounts.UpdateExpense(r.Context(), e)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.DeleteExpense(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Accounts.Goals(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if goals == nil {
		goals = []persistence.SavingsGoal{}
	}
	s.writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var g persistence.SavingsGoal
	if !s.decode(w, r, &g) {
		return
	}
	g.UserID = userID(r.Context())
	saved, err := s.deps.Accounts.AddGoal(r.Context(), g)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g persistence.SavingsGoal
	if !s.decode(w, r, &g) {
		return
	}
	g.ID = mux.Vars(r)["id"]
	g.UserID = userID(r.Context())
	saved, err := s.deps.Accounts.UpdateGoal(r.Context(), g)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.DeleteGoal(r.Context(), userID(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
