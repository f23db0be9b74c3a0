package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

// PlanRepository handles user plan persistence. Plan rows are append-mostly:
// the current plan is the row with the greatest started_at.
type PlanRepository struct {
	db *PostgresDB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *PostgresDB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Insert adds a new plan row for a user
func (r *PlanRepository) Insert(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.StartedAt.IsZero() {
		plan.StartedAt = time.Now().UTC()
	}
	plan.CreatedAt = time.Now().UTC()

	if !plan.PlanType.Valid() {
		return &types.ServiceError{
			Code:    "INVALID_PLAN_TYPE",
			Message: fmt.Sprintf("invalid plan type: %s", plan.PlanType),
		}
	}

	query := `
		INSERT INTO user_plans (id, user_id, plan_type, started_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		plan.ID,
		plan.UserID,
		plan.PlanType,
		plan.StartedAt,
		plan.ExpiresAt,
		plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	return nil
}

// GetCurrentByUserID returns the most recently started plan for a user, or
// ErrNotFound when the user has no plan rows.
func (r *PlanRepository) GetCurrentByUserID(ctx context.Context, userID string) (*models.Plan, error) {
	query := `
		SELECT id, user_id, plan_type, started_at, expires_at, created_at
		FROM user_plans
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`

	var plan models.Plan
	err := r.db.Pool().QueryRow(ctx, query, userID).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.PlanType,
		&plan.StartedAt,
		&plan.ExpiresAt,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get current plan: %w", err)
	}

	return &plan, nil
}

// CountByType returns how many users currently hold the given plan type,
// counting only each user's most recent plan row.
func (r *PlanRepository) CountByType(ctx context.Context, planType types.PlanType) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM (
			SELECT DISTINCT ON (user_id) plan_type
			FROM user_plans
			ORDER BY user_id, started_at DESC
		) current_plans
		WHERE plan_type = $1
	`

	var count int64
	if err := r.db.Pool().QueryRow(ctx, query, planType).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plans: %w", err)
	}

	return count, nil
}
