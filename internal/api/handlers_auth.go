package api

import (
	"net/http"

	apperrors "github.com/linkbio/internal/errors"
)

// handleLoginURL handles GET /api/auth/login-url - start the OAuth flow
func (s *Server) handleLoginURL(w http.ResponseWriter, r *http.Request) {
	state, err := s.authService.GenerateState()
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"loginUrl": s.authService.LoginURL(state),
		"state":    state,
	})
}

// handleAuthCallback handles POST /api/auth/callback - exchange the code and
// resolve the local user
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	tokens, err := s.authService.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		respondAppError(w, err)
		return
	}

	user, err := s.authService.GetOrCreateUser(r.Context(), tokens.AccessToken)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresIn":    tokens.ExpiresIn,
	})
}

// handleAuthRefresh handles POST /api/auth/refresh - refresh the token pair
func (s *Server) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	tokens, err := s.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresIn":    tokens.ExpiresIn,
	})
}

// handleCurrentUser handles GET /api/auth/me - the authenticated user
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, requestUser(r))
}
