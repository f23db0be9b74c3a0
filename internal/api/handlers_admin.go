package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/types"
)

// handleAdminListUsers handles GET /api/admin/users - paginated listing with
// current plans. Query: limit, offset, search.
func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	users, total, err := s.adminService.ListUsers(r.Context(), limit, offset, query.Get("search"))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
	})
}

// handleAdminStats handles GET /api/admin/stats - service-wide counters
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.adminService.GetStats(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handleAdminUpdatePlan handles PUT /api/admin/users/{id}/plan - manual plan
// override
func (s *Server) handleAdminUpdatePlan(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var req struct {
		PlanType string `json:"planType"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	plan, err := s.adminService.UpdateUserPlan(r.Context(), userID, types.PlanType(req.PlanType))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// handleAdminSetActive handles PUT /api/admin/users/{id}/active - toggle a
// user's public visibility
func (s *Server) handleAdminSetActive(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	var req struct {
		IsActive bool `json:"isActive"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeValidation, "invalid request body", nil)
		return
	}

	if err := s.adminService.SetUserActive(r.Context(), userID, req.IsActive); err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
