package api

import (
	"io"
	"net/http"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/models"
)

// handleGetProfile handles GET /api/profile - the user's own profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.profileService.GetProfile(r.Context(), requestUser(r).ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleUpdateProfile handles PUT /api/profile - partial display update
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if err := parseJSONBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	user, err := s.profileService.UpdateProfile(r.Context(), requestUser(r).ID, requestToken(r), &update)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleUploadProfileImage handles POST /api/profile/image
func (s *Server) handleUploadProfileImage(w http.ResponseWriter, r *http.Request) {
	contentType, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	user, err := s.profileService.UploadProfileImage(r.Context(), requestUser(r).ID, contentType, data)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleUploadBackgroundImage handles POST /api/profile/background
func (s *Server) handleUploadBackgroundImage(w http.ResponseWriter, r *http.Request) {
	contentType, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	user, err := s.profileService.UploadBackgroundImage(r.Context(), requestUser(r).ID, requestToken(r), contentType, data)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// readUpload reads the "file" part of a multipart upload, capped at the
// configured size limit plus one byte so oversized files still reach the
// validator and fail with the right code.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+1)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "file field required", nil)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "failed to read upload", nil)
		return "", nil, false
	}

	return header.Header.Get("Content-Type"), data, true
}
