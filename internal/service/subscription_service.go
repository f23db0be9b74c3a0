package service

import (
	"context"
	"errors"
	"time"

	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
	"github.com/linkbio/internal/types"
)

// SubscriptionProvider is the identity provider's subscription API
type SubscriptionProvider interface {
	GetSubscriptionStatus(ctx context.Context, accessToken string) (*models.SubscriptionStatus, error)
	GetUserSubscription(ctx context.Context, userID string) (*models.SubscriptionStatus, error)
	ActivateFreePlan(ctx context.Context, userID, email string) error
}

// PlanStore persists local plan rows
type PlanStore interface {
	Insert(ctx context.Context, plan *models.Plan) error
	GetCurrentByUserID(ctx context.Context, userID string) (*models.Plan, error)
}

// ProStatusCache caches pro lookups for the visitor-facing path
type ProStatusCache interface {
	GetProStatus(ctx context.Context, userID string) (bool, bool, error)
	SetProStatus(ctx context.Context, userID string, isPro bool) error
}

// SubscriptionService resolves a user's effective plan. The identity provider
// is authoritative; the local plan store is a fallback for when it cannot be
// reached with the caller's own token.
type SubscriptionService struct {
	provider SubscriptionProvider
	plans    PlanStore
	cache    ProStatusCache
	logger   *logging.Logger
}

// NewSubscriptionService creates a new subscription service. cache may be nil
// when no Redis is configured; every lookup then goes to the provider.
func NewSubscriptionService(provider SubscriptionProvider, plans PlanStore, cache ProStatusCache, logger *logging.Logger) *SubscriptionService {
	return &SubscriptionService{
		provider: provider,
		plans:    plans,
		cache:    cache,
		logger:   logger,
	}
}

// ResolveByToken resolves the caller's subscription with their own access
// token. Provider failures surface to the caller so authenticated flows can
// distinguish a bad token from an outage.
func (s *SubscriptionService) ResolveByToken(ctx context.Context, accessToken string) (*models.SubscriptionStatus, error) {
	return s.provider.GetSubscriptionStatus(ctx, accessToken)
}

// IsProUser reports whether a user is on an active pro subscription. This is
// the fail-closed path used when no visitor token exists: any failure reads
// as free, so outages can only ever under-grant.
func (s *SubscriptionService) IsProUser(ctx context.Context, userID string) bool {
	if s.cache != nil {
		isPro, found, err := s.cache.GetProStatus(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("pro status cache read failed")
		} else if found {
			return isPro
		}
	}

	status, err := s.provider.GetUserSubscription(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("pro status lookup failed, treating as free")
		return false
	}

	isPro := status.Active() && status.Plan == types.PlanPro

	if s.cache != nil {
		if err := s.cache.SetProStatus(ctx, userID, isPro); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("pro status cache write failed")
		}
	}

	return isPro
}

// ActivateFreePlan registers the user on the provider's free tier. Failure is
// fatal to user creation, so errors pass through untouched.
func (s *SubscriptionService) ActivateFreePlan(ctx context.Context, userID, email string) error {
	return s.provider.ActivateFreePlan(ctx, userID, email)
}

// ResolvePlan returns the user's effective plan. With an access token the
// provider is consulted first; on failure, or without a token, the most
// recent local plan row wins, defaulting to free when none exists.
func (s *SubscriptionService) ResolvePlan(ctx context.Context, userID, accessToken string) (*models.Plan, error) {
	if accessToken != "" {
		status, err := s.provider.GetSubscriptionStatus(ctx, accessToken)
		if err == nil {
			planType := types.PlanFree
			if status.Plan == types.PlanPro {
				planType = types.PlanPro
			}
			return &models.Plan{
				UserID:    userID,
				PlanType:  planType,
				StartedAt: time.Now().UTC(),
				ExpiresAt: status.ExpiresAt,
			}, nil
		}
		s.logger.WithError(err).WithField("user_id", userID).Warn("subscription lookup failed, falling back to local plan")
	}

	plan, err := s.plans.GetCurrentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &models.Plan{
				UserID:    userID,
				PlanType:  types.PlanFree,
				StartedAt: time.Now().UTC(),
			}, nil
		}
		return nil, err
	}

	return plan, nil
}
