// Package models provides typed records for the linkbio system. Rows are
// mapped into these structs at the storage boundary; raw row data never
// crosses into the service layer.
package models

import (
	"time"
)

// User represents an account with a public profile page.
//
// UserSeq is an internal monotonic sequence number assigned by the store.
// PublicLinkID is derived from it exactly once, is unique, and never changes
// after assignment.
type User struct {
	ID                 string    `json:"id" db:"id"`
	UserSeq            int64     `json:"userSeq" db:"user_seq"`
	PublicLinkID       string    `json:"publicLinkId" db:"public_link_id"`
	Username           string    `json:"username" db:"username"`
	Email              string    `json:"email" db:"email"`
	DisplayName        string    `json:"displayName,omitempty" db:"display_name"`
	Bio                string    `json:"bio,omitempty" db:"bio"`
	ProfileImageURL    string    `json:"profileImageUrl,omitempty" db:"profile_image_url"`
	BackgroundImageURL string    `json:"backgroundImageUrl,omitempty" db:"background_image_url"`
	BackgroundColor    string    `json:"backgroundColor,omitempty" db:"background_color"`
	Theme              string    `json:"theme" db:"theme"`
	ButtonStyle        string    `json:"buttonStyle" db:"button_style"`
	IsActive           bool      `json:"isActive" db:"is_active"`
	IsAdmin            bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileUpdate carries the mutable display attributes of a profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName        *string `json:"displayName,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	ProfileImageURL    *string `json:"profileImageUrl,omitempty"`
	BackgroundImageURL *string `json:"backgroundImageUrl,omitempty"`
	BackgroundColor    *string `json:"backgroundColor,omitempty"`
	Theme              *string `json:"theme,omitempty"`
	ButtonStyle        *string `json:"buttonStyle,omitempty"`
}
