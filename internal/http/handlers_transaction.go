package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"grana/internal/core"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"transactions":      toTransactionDTOs(snap.Transactions),
		"recurringExpenses": toRecurringDTOs(snap.RecurringExpenses),
		"accounts":          toAccountDTOs(snap.Accounts),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toTransactionDTOs(snap.Transactions))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req createTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := req.toDomain()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := t.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), uid, t)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusCreated, toTransactionDTO(created))
}

func (s *Server) handleCreateInstallments(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req createInstallmentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Count < 2 {
		respondError(w, http.StatusUnprocessableEntity, "installment count must be at least 2")
		return
	}
	total, err := core.ParseAmount(req.TotalAmount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid total amount")
		return
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid start date")
		return
	}

	created, err := s.transactions.CreateInstallmentPlan(r.Context(), uid, sanitizeInput(req.Description), total, sanitizeInput(req.Category), start, req.Count)
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusCreated, toTransactionDTOs(created))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	if err := s.transactions.Delete(r.Context(), uid, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusNoContent, nil)
}
