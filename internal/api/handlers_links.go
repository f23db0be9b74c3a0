package api

import (
	"net/http"

	"github.com/gorilla/mux"
	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

// handleListLinks handles GET /api/links - all of the user's links
func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.linkService.ListLinks(r.Context(), requestUser(r).ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, links)
}

// handleCreateLink handles POST /api/links - create a link
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string `json:"title"`
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	link, err := s.linkService.CreateLink(r.Context(), requestUser(r).ID, requestToken(r), req.Title, req.URL, req.ThumbnailURL)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// handleUpdateLink handles PUT /api/links/{id} - partial update
func (s *Server) handleUpdateLink(w http.ResponseWriter, r *http.Request) {
	linkID := mux.Vars(r)["id"]

	var update models.LinkUpdate
	if err := parseJSONBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	link, err := s.linkService.UpdateLink(r.Context(), requestUser(r).ID, linkID, &update)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// handleDeleteLink handles DELETE /api/links/{id}
func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	linkID := mux.Vars(r)["id"]

	if err := s.linkService.DeleteLink(r.Context(), requestUser(r).ID, linkID); err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// handleReorderLinks handles PUT /api/links/reorder - bulk display order
func (s *Server) handleReorderLinks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LinkIDs []string `json:"linkIds"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	if err := s.linkService.ReorderLinks(r.Context(), requestUser(r).ID, req.LinkIDs); err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// handleListSocialLinks handles GET /api/social-links
func (s *Server) handleListSocialLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.linkService.ListSocialLinks(r.Context(), requestUser(r).ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, links)
}

// handleCreateSocialLink handles POST /api/social-links
func (s *Server) handleCreateSocialLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform string `json:"platform"`
		URL      string `json:"url"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	link, err := s.linkService.CreateSocialLink(r.Context(), requestUser(r).ID, requestToken(r), types.SocialPlatform(req.Platform), req.URL)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// handleUpdateSocialLink handles PUT /api/social-links/{id}
func (s *Server) handleUpdateSocialLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var update models.SocialLinkUpdate
	if err := parseJSONBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	link, err := s.linkService.UpdateSocialLink(r.Context(), requestUser(r).ID, id, &update)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// handleDeleteSocialLink handles DELETE /api/social-links/{id}
func (s *Server) handleDeleteSocialLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.linkService.DeleteSocialLink(r.Context(), requestUser(r).ID, id); err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
