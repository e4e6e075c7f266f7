package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	snap, err := s.snapshot(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toRecurringDTOs(snap.RecurringExpenses))
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req createRecurringRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	re, err := req.toDomain()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := re.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.recurring.Create(r.Context(), uid, re)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusCreated, toRecurringDTO(created))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	id := mux.Vars(r)["id"]

	if err := s.recurring.Delete(r.Context(), uid, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateSnapshot(uid)
	respondJSON(w, http.StatusNoContent, nil)
}
