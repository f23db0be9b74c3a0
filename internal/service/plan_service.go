package service

import (
	"context"

	"github.com/linkbio/internal/config"
	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/types"
)

// LinkCounter counts a user's links, active and inactive alike
type LinkCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

// SocialLinkCounter counts a user's social links
type SocialLinkCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

// PlanService enforces plan limits and feature gates. Counts include inactive
// rows so toggling a link off does not free up quota.
//
// Limit checks are check-then-insert without locking. Two concurrent creates
// can both pass and leave a user one over the limit; the next create fails.
type PlanService struct {
	links   LinkCounter
	socials SocialLinkCounter
	limits  config.PlanLimitsConfig
}

// NewPlanService creates a new plan service
func NewPlanService(links LinkCounter, socials SocialLinkCounter, limits config.PlanLimitsConfig) *PlanService {
	return &PlanService{
		links:   links,
		socials: socials,
		limits:  limits,
	}
}

// CheckLinkLimit fails when creating one more link would exceed the plan's
// maximum. Pro has no limit.
func (s *PlanService) CheckLinkLimit(ctx context.Context, userID string, plan types.PlanType) error {
	if plan == types.PlanPro {
		return nil
	}

	count, err := s.links.CountByUser(ctx, userID)
	if err != nil {
		return apperrors.NewDatabaseError("count links", err)
	}

	if count >= s.limits.FreeMaxLinks {
		return apperrors.NewLinkLimitError(s.limits.FreeMaxLinks)
	}

	return nil
}

// CheckSocialLinkLimit fails when creating one more social link would exceed
// the plan's maximum. Pro has no limit.
func (s *PlanService) CheckSocialLinkLimit(ctx context.Context, userID string, plan types.PlanType) error {
	if plan == types.PlanPro {
		return nil
	}

	count, err := s.socials.CountByUser(ctx, userID)
	if err != nil {
		return apperrors.NewDatabaseError("count social links", err)
	}

	if count >= s.limits.FreeMaxSocialLinks {
		return apperrors.NewSocialLinkLimitError(s.limits.FreeMaxSocialLinks)
	}

	return nil
}

// CheckFeatureAccess gates pro-only features
func (s *PlanService) CheckFeatureAccess(plan types.PlanType, feature types.Feature) error {
	switch feature {
	case types.FeatureBackgroundImage, types.FeatureAnalytics:
		if plan != types.PlanPro {
			return apperrors.NewFeatureNotAvailableError(feature)
		}
		return nil
	default:
		return nil
	}
}
