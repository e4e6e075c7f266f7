package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"grana/internal/analytics"
	"grana/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toAccountDTOs(snap.Accounts))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req createAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	initial, err := parseOptionalAmount(req.InitialValue)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid initial value")
		return
	}
	goal, err := parseOptionalAmount(req.GoalAmount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid goal amount")
		return
	}

	created, err := s.accounts.Create(r.Context(), uid, sanitizeInput(req.Name), initial, goal, req.DeductFromBalance)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusCreated, toAccountDTO(created))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	if err := s.accounts.Delete(r.Context(), uid, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleAccountMovement(w, r, s.accounts.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleAccountMovement(w, r, s.accounts.Withdraw)
}

func (s *Server) handleAccountMovement(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, accountID string, amount decimal.Decimal) error) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	if err := op(r.Context(), uid, id, amount); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetTotal(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Zero is a valid new total; the service records the delta.
	newValue, err := parseOptionalAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	if err := s.accounts.SetTotal(r.Context(), uid, id, newValue); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGoalProjection(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	account, ok := snap.Account(id)
	if !ok {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}

	respondJSON(w, http.StatusOK, analytics.ProjectGoal(snap, account, s.syncSvc.Now()))
}

func (s *Server) handleInvestmentGrowth(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	rate, err := strconv.ParseFloat(r.URL.Query().Get("rate"), 64)
	if err != nil || rate < 0 || rate > 1 {
		respondError(w, http.StatusUnprocessableEntity, "rate must be a fraction between 0 and 1")
		return
	}

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	account, ok := snap.Account(id)
	if !ok {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}

	respondJSON(w, http.StatusOK, analytics.InvestmentGrowth(account.CurrentValue, rate, s.syncSvc.Now()))
}
