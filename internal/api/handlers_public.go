package api

import (
	"net/http"

	"github.com/gorilla/mux"
	apperrors "github.com/linkbio/internal/errors"
)

// handlePublicProfile handles GET /{publicLinkId} - resolve a public profile
func (s *Server) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	publicLinkID := vars["publicLinkId"]

	if publicLinkID == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "public link id required", nil)
		return
	}

	profile, err := s.publicService.Resolve(r.Context(), publicLinkID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// handlePublicClick handles POST /{publicLinkId}/click/{linkId} - record a click
func (s *Server) handlePublicClick(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	publicLinkID := vars["publicLinkId"]
	linkID := vars["linkId"]

	if publicLinkID == "" || linkID == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "public link id and link id required", nil)
		return
	}

	err := s.publicService.RecordClick(r.Context(), publicLinkID, linkID, r.UserAgent(), clientIP(r))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
