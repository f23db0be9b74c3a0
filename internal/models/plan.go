package models

import (
	"time"

	"github.com/linkbio/internal/types"
)

// Plan represents one subscription period for a user. A user may accumulate
// multiple historical rows; the current plan is the one with the greatest
// StartedAt, not the result of any exclusivity constraint.
type Plan struct {
	ID        string         `json:"id" db:"id"`
	UserID    string         `json:"userId" db:"user_id"`
	PlanType  types.PlanType `json:"planType" db:"plan_type"`
	StartedAt time.Time      `json:"startedAt" db:"started_at"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// SubscriptionStatus is the external provider's view of a user's subscription.
type SubscriptionStatus struct {
	HasAccess bool           `json:"hasAccess"`
	Plan      types.PlanType `json:"plan"`
	Status    string         `json:"status"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}

// Active reports whether the subscription is currently usable.
func (s *SubscriptionStatus) Active() bool {
	return s.HasAccess && s.Status == "active"
}
