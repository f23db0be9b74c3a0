package api

import (
	"net/http"

	"github.com/linkbio/internal/types"
)

// handleAnalyticsSummary handles GET /api/analytics/summary. Analytics is a
// pro feature; the plan is resolved from the caller's token with a local
// fallback.
func (s *Server) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)

	plan, err := s.planResolver.ResolvePlan(r.Context(), user.ID, requestToken(r))
	if err != nil {
		respondAppError(w, err)
		return
	}
	if err := s.features.CheckFeatureAccess(plan.PlanType, types.FeatureAnalytics); err != nil {
		respondAppError(w, err)
		return
	}

	summary, err := s.analyticsService.GetSummary(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
