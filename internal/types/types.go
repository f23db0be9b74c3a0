// Package types provides common type definitions for the linkbio system.
package types

import "fmt"

// PlanType represents the subscription plan tier.
type PlanType string

const (
	// PlanFree represents the free tier with limited links and features
	PlanFree PlanType = "free"
	// PlanPro represents the paid tier with unlimited links and full features
	PlanPro PlanType = "pro"
)

// Valid reports whether the plan type is one of the known tiers.
func (p PlanType) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// Feature represents a plan-gated feature.
type Feature string

const (
	// FeatureBackgroundImage allows a custom background image on the public page
	FeatureBackgroundImage Feature = "background_image"
	// FeatureAnalytics allows access to the detailed analytics dashboard
	FeatureAnalytics Feature = "analytics"
)

// SocialPlatform represents a supported social link platform.
type SocialPlatform string

const (
	PlatformThreads   SocialPlatform = "threads"
	PlatformYouTube   SocialPlatform = "youtube"
	PlatformEmail     SocialPlatform = "email"
	PlatformInstagram SocialPlatform = "instagram"
	PlatformTikTok    SocialPlatform = "tiktok"
	PlatformTwitter   SocialPlatform = "twitter"
	PlatformFacebook  SocialPlatform = "facebook"
	PlatformLinkedIn  SocialPlatform = "linkedin"
	PlatformGitHub    SocialPlatform = "github"
	PlatformWebsite   SocialPlatform = "website"
)

// Valid reports whether the platform is one of the supported values.
func (p SocialPlatform) Valid() bool {
	switch p {
	case PlatformThreads, PlatformYouTube, PlatformEmail, PlatformInstagram,
		PlatformTikTok, PlatformTwitter, PlatformFacebook, PlatformLinkedIn,
		PlatformGitHub, PlatformWebsite:
		return true
	}
	return false
}

// ButtonStyle represents the public-page link button style.
type ButtonStyle string

const (
	// ButtonDefault is the primary-color button style
	ButtonDefault ButtonStyle = "default"
	// ButtonOutline is a white button with a black outline
	ButtonOutline ButtonStyle = "outline"
	// ButtonFilled is a black button with white text
	ButtonFilled ButtonStyle = "filled"
)

// Valid reports whether the button style is one of the supported values.
func (b ButtonStyle) Valid() bool {
	return b == ButtonDefault || b == ButtonOutline || b == ButtonFilled
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
