package service

import (
	"context"
	"errors"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
	"github.com/linkbio/internal/types"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100
)

// AdminUserStore is the user storage surface for administration
type AdminUserStore interface {
	List(ctx context.Context, limit, offset int, search string) ([]*models.User, int64, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, userID string, active bool) error
	Count(ctx context.Context, activeOnly bool) (int64, error)
}

// LinkAggregates exposes service-wide link counters
type LinkAggregates interface {
	CountAll(ctx context.Context) (int64, error)
	SumClickCounts(ctx context.Context) (int64, error)
}

// AdminPlanStore is the plan storage surface for administration
type AdminPlanStore interface {
	Insert(ctx context.Context, plan *models.Plan) error
	GetCurrentByUserID(ctx context.Context, userID string) (*models.Plan, error)
	CountByType(ctx context.Context, planType types.PlanType) (int64, error)
}

// ProStatusInvalidator drops cached pro lookups after a plan change
type ProStatusInvalidator interface {
	InvalidateProStatus(ctx context.Context, userID string) error
}

// AdminService backs the admin dashboard: user listings with plans, service
// stats, and manual plan overrides.
type AdminService struct {
	users  AdminUserStore
	links  LinkAggregates
	plans  AdminPlanStore
	cache  ProStatusInvalidator
	logger *logging.Logger
}

// NewAdminService creates a new admin service. cache may be nil.
func NewAdminService(users AdminUserStore, links LinkAggregates, plans AdminPlanStore, cache ProStatusInvalidator, logger *logging.Logger) *AdminService {
	return &AdminService{
		users:  users,
		links:  links,
		plans:  plans,
		cache:  cache,
		logger: logger,
	}
}

// ListUsers returns a page of users with their current plans. search matches
// username or email, case-insensitive.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int, search string) ([]models.UserWithPlan, int64, error) {
	if limit <= 0 {
		limit = defaultAdminPageSize
	}
	if limit > maxAdminPageSize {
		limit = maxAdminPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.users.List(ctx, limit, offset, search)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("list users", err)
	}

	result := make([]models.UserWithPlan, 0, len(users))
	for _, user := range users {
		entry := models.UserWithPlan{User: *user}

		plan, err := s.plans.GetCurrentByUserID(ctx, user.ID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return nil, 0, apperrors.NewDatabaseError("get user plan", err)
			}
		} else {
			entry.Plan = plan
		}

		result = append(result, entry)
	}

	return result, total, nil
}

// GetStats aggregates service-wide counters. Click totals come from the
// authoritative per-link counters.
func (s *AdminService) GetStats(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}
	var err error

	if stats.TotalUsers, err = s.users.Count(ctx, false); err != nil {
		return nil, apperrors.NewDatabaseError("count users", err)
	}
	if stats.ActiveUsers, err = s.users.Count(ctx, true); err != nil {
		return nil, apperrors.NewDatabaseError("count active users", err)
	}
	if stats.TotalLinks, err = s.links.CountAll(ctx); err != nil {
		return nil, apperrors.NewDatabaseError("count links", err)
	}
	if stats.TotalClicks, err = s.links.SumClickCounts(ctx); err != nil {
		return nil, apperrors.NewDatabaseError("sum clicks", err)
	}
	if stats.ProUsers, err = s.plans.CountByType(ctx, types.PlanPro); err != nil {
		return nil, apperrors.NewDatabaseError("count pro plans", err)
	}
	if stats.FreeUsers, err = s.plans.CountByType(ctx, types.PlanFree); err != nil {
		return nil, apperrors.NewDatabaseError("count free plans", err)
	}

	return stats, nil
}

// UpdateUserPlan inserts a new plan row for the user, making it current. The
// cached pro status is dropped so the public page reflects the change.
func (s *AdminService) UpdateUserPlan(ctx context.Context, userID string, planType types.PlanType) (*models.Plan, error) {
	if !planType.Valid() {
		return nil, apperrors.NewValidationError("planType", "unknown plan type")
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", userID)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	plan := &models.Plan{
		UserID:   userID,
		PlanType: planType,
	}
	if err := s.plans.Insert(ctx, plan); err != nil {
		return nil, apperrors.NewDatabaseError("insert plan", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProStatus(ctx, userID); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("failed to invalidate pro status cache")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":   userID,
		"plan_type": planType,
	}).Info("user plan updated")

	return plan, nil
}

// SetUserActive toggles a user's visibility. Deactivated users vanish from
// the public surface but keep their data.
func (s *AdminService) SetUserActive(ctx context.Context, userID string, active bool) error {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("user", userID)
		}
		return apperrors.NewDatabaseError("set user active", err)
	}
	return nil
}
