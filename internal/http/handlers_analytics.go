package http

import (
	"net/http"

	"grana/internal/analytics"
	"grana/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics.Dashboard(snap, s.syncSvc.Now()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics.ExpensesByCategory(snap))
}

func (s *Server) handleMonthlyFlow(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics.MonthlyFlow(snap, s.syncSvc.Now()))
}

func (s *Server) handleAnnualProjection(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics.ProjectAnnualBalance(snap, s.syncSvc.Now()))
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics.CashFlowProjection(snap, s.syncSvc.Now()))
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	category := sanitizeInput(r.URL.Query().Get("category"))
	if category == "" {
		respondError(w, http.StatusUnprocessableEntity, "category is required")
		return
	}
	budget, err := core.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid budget amount")
		return
	}

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, analytics.BurnDown(snap, category, budget, s.syncSvc.Now()))
}
