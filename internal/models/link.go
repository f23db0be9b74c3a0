package models

import (
	"time"

	"github.com/linkbio/internal/types"
)

// Link represents one entry on a user's public page.
//
// ClickCount is the authoritative click counter: it is incremented atomically
// at the store and remains correct even when the detailed click-event log is
// unavailable.
type Link struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"userId" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	URL          string    `json:"url" db:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	DisplayOrder int       `json:"displayOrder" db:"display_order"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	ClickCount   int64     `json:"clickCount" db:"click_count"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// LinkUpdate carries mutable link fields. Nil fields are left unchanged.
type LinkUpdate struct {
	Title        *string `json:"title,omitempty"`
	URL          *string `json:"url,omitempty"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// SocialLink represents a platform-tagged link shown as an icon row on the
// public page. Same active/inactive lifecycle as Link.
type SocialLink struct {
	ID           string               `json:"id" db:"id"`
	UserID       string               `json:"userId" db:"user_id"`
	Platform     types.SocialPlatform `json:"platform" db:"platform"`
	URL          string               `json:"url" db:"url"`
	DisplayOrder int                  `json:"displayOrder" db:"display_order"`
	IsActive     bool                 `json:"isActive" db:"is_active"`
	CreatedAt    time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time            `json:"updatedAt" db:"updated_at"`
}

// SocialLinkUpdate carries mutable social link fields.
type SocialLinkUpdate struct {
	URL      *string `json:"url,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}
