package models

// PublicProfile is the unauthenticated view of a user's page. Only active
// links and social links appear, ordered by display order ascending.
//
// IsProUser is presentation-only (watermark suppression); it is computed via
// the fail-closed subscription lookup and never gates the data itself.
type PublicProfile struct {
	PublicLinkID       string       `json:"publicLinkId"`
	Username           string       `json:"username"`
	DisplayName        string       `json:"displayName,omitempty"`
	Bio                string       `json:"bio,omitempty"`
	ProfileImageURL    string       `json:"profileImageUrl,omitempty"`
	BackgroundImageURL string       `json:"backgroundImageUrl,omitempty"`
	BackgroundColor    string       `json:"backgroundColor,omitempty"`
	Theme              string       `json:"theme"`
	ButtonStyle        string       `json:"buttonStyle"`
	IsProUser          bool         `json:"isProUser"`
	Links              []Link       `json:"links"`
	SocialLinks        []SocialLink `json:"socialLinks"`
}

// AdminStats aggregates service-wide counters for the admin dashboard.
type AdminStats struct {
	TotalUsers  int64 `json:"totalUsers"`
	ActiveUsers int64 `json:"activeUsers"`
	TotalLinks  int64 `json:"totalLinks"`
	TotalClicks int64 `json:"totalClicks"`
	ProUsers    int64 `json:"proUsers"`
	FreeUsers   int64 `json:"freeUsers"`
}

// UserWithPlan pairs a user with their current plan for admin listings.
type UserWithPlan struct {
	User
	Plan *Plan `json:"plan,omitempty"`
}
