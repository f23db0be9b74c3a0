package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/linkbio/internal/adapter"
	"github.com/linkbio/internal/auth"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
	"github.com/linkbio/internal/types"
)

var (
	errEventStoreDown   = errors.New("event store down")
	errInvalidTestToken = errors.New("invalid test token")
	errNoSubscription   = errors.New("no subscription on record")
	errBadImageType     = errors.New("bad image type")
	errImageTooLarge    = errors.New("image too large")
)

// Shared fakes for service tests. They keep state in maps and fail via
// injected errors, mirroring the repository contracts.

func testLogger() *logging.Logger {
	logger := logging.NewLogger(logging.LevelError, logging.FormatText)
	logger.SetOutput(io.Discard)
	return logger
}

// fakeLinkStore implements LinkStore, LinkReader, LinkCounter, and
// PublicLinkStore
type fakeLinkStore struct {
	links   map[string]*models.Link
	order   []string
	nextID  int
	listErr error
	incErr  error
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: map[string]*models.Link{}}
}

func (f *fakeLinkStore) add(link models.Link) *models.Link {
	if link.ID == "" {
		f.nextID++
		link.ID = "link-" + string(rune('a'+f.nextID-1))
	}
	stored := link
	f.links[stored.ID] = &stored
	f.order = append(f.order, stored.ID)
	return &stored
}

func (f *fakeLinkStore) Create(ctx context.Context, link *models.Link) error {
	f.nextID++
	link.ID = "link-" + string(rune('a'+f.nextID-1))
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now
	stored := *link
	f.links[link.ID] = &stored
	f.order = append(f.order, link.ID)
	return nil
}

func (f *fakeLinkStore) GetByID(ctx context.Context, id string) (*models.Link, error) {
	link, ok := f.links[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (f *fakeLinkStore) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Link, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := []models.Link{}
	for _, id := range f.order {
		link := f.links[id]
		if link.UserID != userID {
			continue
		}
		if activeOnly && !link.IsActive {
			continue
		}
		result = append(result, *link)
	}
	return result, nil
}

func (f *fakeLinkStore) Update(ctx context.Context, linkID string, update *models.LinkUpdate) (*models.Link, error) {
	link, ok := f.links[linkID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if update.Title != nil {
		link.Title = *update.Title
	}
	if update.URL != nil {
		link.URL = *update.URL
	}
	if update.ThumbnailURL != nil {
		link.ThumbnailURL = *update.ThumbnailURL
	}
	if update.IsActive != nil {
		link.IsActive = *update.IsActive
	}
	copied := *link
	return &copied, nil
}

func (f *fakeLinkStore) Delete(ctx context.Context, linkID string) error {
	if _, ok := f.links[linkID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.links, linkID)
	for i, id := range f.order {
		if id == linkID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeLinkStore) MaxDisplayOrder(ctx context.Context, userID string) (int, error) {
	max := -1
	for _, link := range f.links {
		if link.UserID == userID && link.DisplayOrder > max {
			max = link.DisplayOrder
		}
	}
	return max, nil
}

func (f *fakeLinkStore) SetDisplayOrder(ctx context.Context, userID, linkID string, order int) error {
	link, ok := f.links[linkID]
	if !ok || link.UserID != userID {
		return storage.ErrNotFound
	}
	link.DisplayOrder = order
	return nil
}

func (f *fakeLinkStore) CountByUser(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, link := range f.links {
		if link.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLinkStore) IncrementClickCount(ctx context.Context, linkID string) error {
	if f.incErr != nil {
		return f.incErr
	}
	link, ok := f.links[linkID]
	if !ok {
		return storage.ErrNotFound
	}
	link.ClickCount++
	return nil
}

func (f *fakeLinkStore) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.links)), nil
}

func (f *fakeLinkStore) SumClickCounts(ctx context.Context) (int64, error) {
	var sum int64
	for _, link := range f.links {
		sum += link.ClickCount
	}
	return sum, nil
}

// fakeSocialLinkStore implements SocialLinkStore, SocialLinkCounter, and
// PublicSocialLinkStore
type fakeSocialLinkStore struct {
	links  map[string]*models.SocialLink
	order  []string
	nextID int
}

func newFakeSocialLinkStore() *fakeSocialLinkStore {
	return &fakeSocialLinkStore{links: map[string]*models.SocialLink{}}
}

func (f *fakeSocialLinkStore) Create(ctx context.Context, link *models.SocialLink) error {
	f.nextID++
	link.ID = "social-" + string(rune('a'+f.nextID-1))
	stored := *link
	f.links[link.ID] = &stored
	f.order = append(f.order, link.ID)
	return nil
}

func (f *fakeSocialLinkStore) GetByID(ctx context.Context, id string) (*models.SocialLink, error) {
	link, ok := f.links[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (f *fakeSocialLinkStore) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.SocialLink, error) {
	result := []models.SocialLink{}
	for _, id := range f.order {
		link := f.links[id]
		if link.UserID != userID {
			continue
		}
		if activeOnly && !link.IsActive {
			continue
		}
		result = append(result, *link)
	}
	return result, nil
}

func (f *fakeSocialLinkStore) Update(ctx context.Context, id string, update *models.SocialLinkUpdate) (*models.SocialLink, error) {
	link, ok := f.links[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if update.URL != nil {
		link.URL = *update.URL
	}
	if update.IsActive != nil {
		link.IsActive = *update.IsActive
	}
	copied := *link
	return &copied, nil
}

func (f *fakeSocialLinkStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.links[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.links, id)
	return nil
}

func (f *fakeSocialLinkStore) MaxDisplayOrder(ctx context.Context, userID string) (int, error) {
	max := -1
	for _, link := range f.links {
		if link.UserID == userID && link.DisplayOrder > max {
			max = link.DisplayOrder
		}
	}
	return max, nil
}

func (f *fakeSocialLinkStore) CountByUser(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, link := range f.links {
		if link.UserID == userID {
			count++
		}
	}
	return count, nil
}

// fakeUserStore implements UserStore, ProfileStore, PublicUserReader, and
// AdminUserStore
type fakeUserStore struct {
	users   map[string]*models.User
	nextSeq int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) add(user models.User) *models.User {
	stored := user
	f.users[stored.ID] = &stored
	return &stored
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.nextSeq++
	user.UserSeq = f.nextSeq
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserStore) SetPublicLinkID(ctx context.Context, userID, publicLinkID string) error {
	user, ok := f.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	user.PublicLinkID = publicLinkID
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetActiveByPublicLinkID(ctx context.Context, publicLinkID string) (*models.User, error) {
	for _, user := range f.users {
		if user.PublicLinkID == publicLinkID && user.IsActive {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range f.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, userID string, update *models.ProfileUpdate) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.ProfileImageURL != nil {
		user.ProfileImageURL = *update.ProfileImageURL
	}
	if update.BackgroundImageURL != nil {
		user.BackgroundImageURL = *update.BackgroundImageURL
	}
	if update.BackgroundColor != nil {
		user.BackgroundColor = *update.BackgroundColor
	}
	if update.Theme != nil {
		user.Theme = *update.Theme
	}
	if update.ButtonStyle != nil {
		user.ButtonStyle = *update.ButtonStyle
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) SetActive(ctx context.Context, userID string, active bool) error {
	user, ok := f.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	user.IsActive = active
	return nil
}

func (f *fakeUserStore) List(ctx context.Context, limit, offset int, search string) ([]*models.User, int64, error) {
	all := []*models.User{}
	for _, user := range f.users {
		copied := *user
		all = append(all, &copied)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []*models.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeUserStore) Count(ctx context.Context, activeOnly bool) (int64, error) {
	var count int64
	for _, user := range f.users {
		if !activeOnly || user.IsActive {
			count++
		}
	}
	return count, nil
}

// fakePlanStore implements PlanStore and AdminPlanStore
type fakePlanStore struct {
	plans     map[string][]*models.Plan
	insertErr error
}

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{plans: map[string][]*models.Plan{}}
}

func (f *fakePlanStore) Insert(ctx context.Context, plan *models.Plan) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if plan.StartedAt.IsZero() {
		plan.StartedAt = time.Now().UTC()
	}
	stored := *plan
	f.plans[plan.UserID] = append(f.plans[plan.UserID], &stored)
	return nil
}

func (f *fakePlanStore) GetCurrentByUserID(ctx context.Context, userID string) (*models.Plan, error) {
	rows := f.plans[userID]
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	current := rows[0]
	for _, row := range rows[1:] {
		if row.StartedAt.After(current.StartedAt) {
			current = row
		}
	}
	copied := *current
	return &copied, nil
}

func (f *fakePlanStore) CountByType(ctx context.Context, planType types.PlanType) (int64, error) {
	var count int64
	for userID := range f.plans {
		current, err := f.GetCurrentByUserID(ctx, userID)
		if err != nil {
			continue
		}
		if current.PlanType == planType {
			count++
		}
	}
	return count, nil
}

// fakeSubscriptionProvider implements SubscriptionProvider, TokenExchanger,
// and PlanActivator
type fakeSubscriptionProvider struct {
	statusByToken map[string]*models.SubscriptionStatus
	statusByUser  map[string]*models.SubscriptionStatus
	tokenErr      error
	userErr       error
	activateErr   error

	userLookups int
	activations []string
}

func newFakeSubscriptionProvider() *fakeSubscriptionProvider {
	return &fakeSubscriptionProvider{
		statusByToken: map[string]*models.SubscriptionStatus{},
		statusByUser:  map[string]*models.SubscriptionStatus{},
	}
}

func (f *fakeSubscriptionProvider) GetSubscriptionStatus(ctx context.Context, accessToken string) (*models.SubscriptionStatus, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	if status, ok := f.statusByToken[accessToken]; ok {
		return status, nil
	}
	return nil, errInvalidTestToken
}

func (f *fakeSubscriptionProvider) GetUserSubscription(ctx context.Context, userID string) (*models.SubscriptionStatus, error) {
	f.userLookups++
	if f.userErr != nil {
		return nil, f.userErr
	}
	if status, ok := f.statusByUser[userID]; ok {
		return status, nil
	}
	return nil, errNoSubscription
}

func (f *fakeSubscriptionProvider) ActivateFreePlan(ctx context.Context, userID, email string) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activations = append(f.activations, userID)
	return nil
}

func (f *fakeSubscriptionProvider) ExchangeCode(ctx context.Context, code string) (*adapter.TokenResponse, error) {
	return &adapter.TokenResponse{AccessToken: "at-" + code, RefreshToken: "rt-" + code}, nil
}

func (f *fakeSubscriptionProvider) RefreshTokens(ctx context.Context, refreshToken string) (*adapter.TokenResponse, error) {
	return &adapter.TokenResponse{AccessToken: "at-refreshed", RefreshToken: "rt-refreshed"}, nil
}

// fakeProCache implements ProStatusCache and ProStatusInvalidator
type fakeProCache struct {
	entries      map[string]bool
	sets         int
	invalidation []string
}

func newFakeProCache() *fakeProCache {
	return &fakeProCache{entries: map[string]bool{}}
}

func (f *fakeProCache) GetProStatus(ctx context.Context, userID string) (bool, bool, error) {
	isPro, found := f.entries[userID]
	return isPro, found, nil
}

func (f *fakeProCache) SetProStatus(ctx context.Context, userID string, isPro bool) error {
	f.sets++
	f.entries[userID] = isPro
	return nil
}

func (f *fakeProCache) InvalidateProStatus(ctx context.Context, userID string) error {
	delete(f.entries, userID)
	f.invalidation = append(f.invalidation, userID)
	return nil
}

// fakeClickEventStore implements ClickEventStore
type fakeClickEventStore struct {
	events    []*models.ClickEvent
	failAll   bool
	insertErr error
}

func (f *fakeClickEventStore) Insert(ctx context.Context, event *models.ClickEvent) error {
	if f.failAll || f.insertErr != nil {
		if f.insertErr != nil {
			return f.insertErr
		}
		return errEventStoreDown
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeClickEventStore) CountSince(ctx context.Context, linkIDs []string, since time.Time) (int64, error) {
	if f.failAll {
		return 0, errEventStoreDown
	}
	ids := map[string]bool{}
	for _, id := range linkIDs {
		ids[id] = true
	}
	var count int64
	for _, event := range f.events {
		if ids[event.LinkID] && !event.ClickedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeClickEventStore) CountForLinkSince(ctx context.Context, linkID string, since time.Time) (int64, error) {
	if f.failAll {
		return 0, errEventStoreDown
	}
	var count int64
	for _, event := range f.events {
		if event.LinkID == linkID && !event.ClickedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeClickEventStore) DailyCounts(ctx context.Context, linkIDs []string, since time.Time) (map[string]int64, error) {
	if f.failAll {
		return nil, errEventStoreDown
	}
	ids := map[string]bool{}
	for _, id := range linkIDs {
		ids[id] = true
	}
	counts := map[string]int64{}
	for _, event := range f.events {
		if ids[event.LinkID] && !event.ClickedAt.Before(since) {
			counts[event.ClickedAt.Format("2006-01-02")]++
		}
	}
	return counts, nil
}

// fakeVerifier implements AccessTokenVerifier
type fakeVerifier struct {
	claims map[string]*auth.Claims
	err    error
}

func (f *fakeVerifier) Verify(tokenString string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	claims, ok := f.claims[tokenString]
	if !ok {
		return nil, errInvalidTestToken
	}
	return claims, nil
}

// fakeImageStore implements ImageStore
type fakeImageStore struct {
	maxSize int64
	uploads []string
}

func (f *fakeImageStore) ValidateImage(contentType string, size int64) (string, error) {
	if contentType != "image/png" && contentType != "image/jpeg" {
		return "", errBadImageType
	}
	if f.maxSize > 0 && size > f.maxSize {
		return "", errImageTooLarge
	}
	if contentType == "image/png" {
		return ".png", nil
	}
	return ".jpg", nil
}

func (f *fakeImageStore) Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error) {
	f.uploads = append(f.uploads, bucket+"/"+objectPath)
	return "https://cdn.test/" + bucket + "/" + objectPath, nil
}
