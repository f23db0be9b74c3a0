package models

import "time"

// ClickEvent is one append-only row in the click-event log. Events exist
// only to feed analytics aggregation; the Link.ClickCount counter is the
// authoritative record and does not depend on this log.
type ClickEvent struct {
	LinkID    string    `json:"linkId" db:"link_id"`
	ClickedAt time.Time `json:"clickedAt" db:"clicked_at"`
	UserAgent string    `json:"userAgent,omitempty" db:"user_agent"`
	IPAddress string    `json:"ipAddress,omitempty" db:"ip_address"`
}
