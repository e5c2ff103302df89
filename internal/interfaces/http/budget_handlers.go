package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Sirimanoj/finguru/internal/application"
	"github.com/Sirimanoj/finguru/internal/domain/budget"
)

func monthVar(r *http.Request) budget.MonthKey {
	return budget.MonthKey(mux.Vars(r)["month"])
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Budgets.Get(r.Context(), userID(r.Context()), monthVar(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePutBudget(w http.ResponseWriter, r *http.Request) {
	var in application.BudgetInput
	if !s.decode(w, r, &in) {
		return
	}
	view, err := s.deps.Budgets.Save(r.Context(), userID(r.Context()), monthVar(r), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBudgetPreview(w http.ResponseWriter, r *http.Request) {
	var in application.BudgetInput
	if !s.decode(w, r, &in) {
		return
	}
	breakdown, err := s.deps.Budgets.Preview(in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleBudgetBreakdown(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Budgets.Get(r.Context(), userID(r.Context()), monthVar(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view.Breakdown)
}

func (s *Server) handleBudgetMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.deps.Budgets.Months(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if months == nil {
		months = []budget.MonthKey{}
	}
	s.writeJSON(w, http.StatusOK, months)
}
