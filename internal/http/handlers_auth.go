package http

import (
	"errors"
	"net/http"

	"grana/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uid, token, err := s.authSvc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondServiceError(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, sessionResponse{UserID: uid, Token: token})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uid, token, err := s.authSvc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{UserID: uid, Token: token})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.authSvc.SignOut(token)
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	// Always accepted; existence of the address is not disclosed.
	s.authSvc.RequestPasswordReset(r.Context(), req.Email)
	respondJSON(w, http.StatusAccepted, nil)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.authSvc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, auth.ErrInvalidToken):
			respondError(w, http.StatusUnauthorized, err.Error())
		default:
			respondServiceError(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
