package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linkbio/internal/adapter"
	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

// Fake services for handler tests. State lives in maps keyed the way the
// router addresses it; unknown keys map to the same errors the real services
// produce.

type fakePublicService struct {
	profiles map[string]*models.PublicProfile
	clicks   []string
}

func (f *fakePublicService) Resolve(ctx context.Context, publicLinkID string) (*models.PublicProfile, error) {
	profile, ok := f.profiles[publicLinkID]
	if !ok {
		return nil, apperrors.NewNotFoundError("profile", publicLinkID)
	}
	return profile, nil
}

func (f *fakePublicService) RecordClick(ctx context.Context, publicLinkID, linkID, userAgent, ipAddress string) error {
	if _, ok := f.profiles[publicLinkID]; !ok {
		return apperrors.NewNotFoundError("profile", publicLinkID)
	}
	f.clicks = append(f.clicks, publicLinkID+"/"+linkID)
	return nil
}

type fakeAuthService struct {
	usersByToken map[string]*models.User
}

func (f *fakeAuthService) GenerateState() (string, error) { return "test-state", nil }

func (f *fakeAuthService) LoginURL(state string) string {
	return "https://sso.example.test/oauth/authorize?state=" + state
}

func (f *fakeAuthService) ExchangeCode(ctx context.Context, code string) (*adapter.TokenResponse, error) {
	if code == "" {
		return nil, apperrors.NewValidationError("code", "must not be empty")
	}
	return &adapter.TokenResponse{AccessToken: "at-" + code, RefreshToken: "rt-" + code, ExpiresIn: 900}, nil
}

func (f *fakeAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*adapter.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.NewValidationError("refreshToken", "must not be empty")
	}
	return &adapter.TokenResponse{AccessToken: "at-refreshed", RefreshToken: "rt-refreshed", ExpiresIn: 900}, nil
}

func (f *fakeAuthService) GetOrCreateUser(ctx context.Context, accessToken string) (*models.User, error) {
	user, ok := f.usersByToken[accessToken]
	if !ok {
		return nil, apperrors.NewInvalidTokenError("invalid access token")
	}
	return user, nil
}

type fakeProfileService struct {
	users map[string]*models.User
}

func (f *fakeProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", userID)
	}
	return user, nil
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, userID, accessToken string, update *models.ProfileUpdate) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user", userID)
	}
	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	return user, nil
}

func (f *fakeProfileService) UploadProfileImage(ctx context.Context, userID, contentType string, data []byte) (*models.User, error) {
	if contentType != "image/png" && contentType != "image/jpeg" {
		return nil, apperrors.NewInvalidFileTypeError(contentType)
	}
	return f.users[userID], nil
}

func (f *fakeProfileService) UploadBackgroundImage(ctx context.Context, userID, accessToken, contentType string, data []byte) (*models.User, error) {
	return f.UploadProfileImage(ctx, userID, contentType, data)
}

type fakeLinkService struct {
	links      map[string]*models.Link
	reorders   [][]string
	limitError bool
}

func (f *fakeLinkService) ListLinks(ctx context.Context, userID string) ([]models.Link, error) {
	result := []models.Link{}
	for _, link := range f.links {
		if link.UserID == userID {
			result = append(result, *link)
		}
	}
	return result, nil
}

func (f *fakeLinkService) CreateLink(ctx context.Context, userID, accessToken, title, linkURL, thumbnailURL string) (*models.Link, error) {
	if title == "" {
		return nil, apperrors.NewValidationError("title", "must not be empty")
	}
	if f.limitError {
		return nil, apperrors.NewLinkLimitError(5)
	}
	link := &models.Link{ID: "new-link", UserID: userID, Title: title, URL: linkURL, IsActive: true}
	f.links[link.ID] = link
	return link, nil
}

func (f *fakeLinkService) UpdateLink(ctx context.Context, userID, linkID string, update *models.LinkUpdate) (*models.Link, error) {
	link, ok := f.links[linkID]
	if !ok {
		return nil, apperrors.NewNotFoundError("link", linkID)
	}
	if link.UserID != userID {
		return nil, apperrors.NewNotOwnerError("link")
	}
	return link, nil
}

func (f *fakeLinkService) DeleteLink(ctx context.Context, userID, linkID string) error {
	if _, ok := f.links[linkID]; !ok {
		return apperrors.NewNotFoundError("link", linkID)
	}
	delete(f.links, linkID)
	return nil
}

func (f *fakeLinkService) ReorderLinks(ctx context.Context, userID string, linkIDs []string) error {
	f.reorders = append(f.reorders, linkIDs)
	return nil
}

func (f *fakeLinkService) ListSocialLinks(ctx context.Context, userID string) ([]models.SocialLink, error) {
	return []models.SocialLink{}, nil
}

func (f *fakeLinkService) CreateSocialLink(ctx context.Context, userID, accessToken string, platform types.SocialPlatform, linkURL string) (*models.SocialLink, error) {
	if !platform.Valid() {
		return nil, apperrors.NewValidationError("platform", "unknown platform")
	}
	return &models.SocialLink{ID: "new-social", UserID: userID, Platform: platform, URL: linkURL}, nil
}

func (f *fakeLinkService) UpdateSocialLink(ctx context.Context, userID, id string, update *models.SocialLinkUpdate) (*models.SocialLink, error) {
	return nil, apperrors.NewNotFoundError("social link", id)
}

func (f *fakeLinkService) DeleteSocialLink(ctx context.Context, userID, id string) error {
	return apperrors.NewNotFoundError("social link", id)
}

type fakeAnalyticsService struct {
	summary *models.AnalyticsSummary
}

func (f *fakeAnalyticsService) GetSummary(ctx context.Context, userID string) (*models.AnalyticsSummary, error) {
	return f.summary, nil
}

type fakeAdminService struct {
	users       []models.UserWithPlan
	stats       *models.AdminStats
	planUpdates []string
}

func (f *fakeAdminService) ListUsers(ctx context.Context, limit, offset int, search string) ([]models.UserWithPlan, int64, error) {
	return f.users, int64(len(f.users)), nil
}

func (f *fakeAdminService) GetStats(ctx context.Context) (*models.AdminStats, error) {
	return f.stats, nil
}

func (f *fakeAdminService) UpdateUserPlan(ctx context.Context, userID string, planType types.PlanType) (*models.Plan, error) {
	if !planType.Valid() {
		return nil, apperrors.NewValidationError("planType", "unknown plan type")
	}
	f.planUpdates = append(f.planUpdates, userID+":"+string(planType))
	return &models.Plan{UserID: userID, PlanType: planType}, nil
}

func (f *fakeAdminService) SetUserActive(ctx context.Context, userID string, active bool) error {
	return nil
}

type fakePlanResolver struct {
	planType types.PlanType
}

func (f *fakePlanResolver) ResolvePlan(ctx context.Context, userID, accessToken string) (*models.Plan, error) {
	return &models.Plan{UserID: userID, PlanType: f.planType}, nil
}

type fakeFeatureChecker struct{}

func (f *fakeFeatureChecker) CheckFeatureAccess(plan types.PlanType, feature types.Feature) error {
	if plan != types.PlanPro {
		return apperrors.NewFeatureNotAvailableError(feature)
	}
	return nil
}

type testEnv struct {
	server    *Server
	public    *fakePublicService
	auth      *fakeAuthService
	profiles  *fakeProfileService
	links     *fakeLinkService
	analytics *fakeAnalyticsService
	admin     *fakeAdminService
	plans     *fakePlanResolver
}

func newTestEnv() *testEnv {
	logger := logging.NewLogger(logging.LevelError, logging.FormatText)
	logger.SetOutput(io.Discard)

	env := &testEnv{
		public:    &fakePublicService{profiles: map[string]*models.PublicProfile{}},
		auth:      &fakeAuthService{usersByToken: map[string]*models.User{}},
		profiles:  &fakeProfileService{users: map[string]*models.User{}},
		links:     &fakeLinkService{links: map[string]*models.Link{}},
		analytics: &fakeAnalyticsService{summary: &models.AnalyticsSummary{}},
		admin:     &fakeAdminService{stats: &models.AdminStats{}},
		plans:     &fakePlanResolver{planType: types.PlanFree},
	}

	config := &ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    5 * time.Second,
		PublicRPS:      100,
		PublicBurst:    100,
		MaxUploadBytes: 1 << 20,
	}

	env.server = NewServer(config, env.public, env.auth, env.profiles, env.links, env.analytics, env.admin, env.plans, &fakeFeatureChecker{}, logger)
	return env
}

// grantUser registers a bearer token for a user across the auth and profile
// fakes.
func (env *testEnv) grantUser(token string, user *models.User) {
	env.auth.usersByToken[token] = user
	env.profiles.users[user.ID] = user
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

// decodeEnvelope parses the response envelope and fails the test on malformed
// JSON.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return resp
}
