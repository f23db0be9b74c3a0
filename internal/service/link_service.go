package service

import (
	"context"
	"errors"
	"net/url"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
	"github.com/linkbio/internal/types"
)

const maxTitleLength = 100

// LinkStore is the link storage surface the management API needs
type LinkStore interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id string) (*models.Link, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Link, error)
	Update(ctx context.Context, linkID string, update *models.LinkUpdate) (*models.Link, error)
	Delete(ctx context.Context, linkID string) error
	MaxDisplayOrder(ctx context.Context, userID string) (int, error)
	SetDisplayOrder(ctx context.Context, userID, linkID string, order int) error
}

// SocialLinkStore is the social link storage surface
type SocialLinkStore interface {
	Create(ctx context.Context, link *models.SocialLink) error
	GetByID(ctx context.Context, id string) (*models.SocialLink, error)
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.SocialLink, error)
	Update(ctx context.Context, id string, update *models.SocialLinkUpdate) (*models.SocialLink, error)
	Delete(ctx context.Context, id string) error
	MaxDisplayOrder(ctx context.Context, userID string) (int, error)
}

// PlanResolver resolves a user's effective plan
type PlanResolver interface {
	ResolvePlan(ctx context.Context, userID, accessToken string) (*models.Plan, error)
}

// LimitChecker enforces per-plan creation limits
type LimitChecker interface {
	CheckLinkLimit(ctx context.Context, userID string, plan types.PlanType) error
	CheckSocialLinkLimit(ctx context.Context, userID string, plan types.PlanType) error
}

// LinkService manages a user's links and social links
type LinkService struct {
	links   LinkStore
	socials SocialLinkStore
	plans   PlanResolver
	limits  LimitChecker
	logger  *logging.Logger
}

// NewLinkService creates a new link service
func NewLinkService(links LinkStore, socials SocialLinkStore, plans PlanResolver, limits LimitChecker, logger *logging.Logger) *LinkService {
	return &LinkService{
		links:   links,
		socials: socials,
		plans:   plans,
		limits:  limits,
		logger:  logger,
	}
}

// ListLinks returns all of a user's links, active and inactive, ordered by
// display order
func (s *LinkService) ListLinks(ctx context.Context, userID string) ([]models.Link, error) {
	links, err := s.links.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list links", err)
	}
	return links, nil
}

// CreateLink creates a link at the end of the user's list, subject to the
// plan limit
func (s *LinkService) CreateLink(ctx context.Context, userID, accessToken, title, linkURL, thumbnailURL string) (*models.Link, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateURL("url", linkURL); err != nil {
		return nil, err
	}
	if thumbnailURL != "" {
		if err := validateURL("thumbnailUrl", thumbnailURL); err != nil {
			return nil, err
		}
	}

	plan, err := s.plans.ResolvePlan(ctx, userID, accessToken)
	if err != nil {
		return nil, err
	}

	if err := s.limits.CheckLinkLimit(ctx, userID, plan.PlanType); err != nil {
		return nil, err
	}

	maxOrder, err := s.links.MaxDisplayOrder(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get display order", err)
	}

	link := &models.Link{
		UserID:       userID,
		Title:        title,
		URL:          linkURL,
		ThumbnailURL: thumbnailURL,
		DisplayOrder: maxOrder + 1,
		IsActive:     true,
	}

	if err := s.links.Create(ctx, link); err != nil {
		return nil, apperrors.NewDatabaseError("create link", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"link_id": link.ID,
	}).Info("link created")

	return link, nil
}

// UpdateLink applies a partial update after checking ownership
func (s *LinkService) UpdateLink(ctx context.Context, userID, linkID string, update *models.LinkUpdate) (*models.Link, error) {
	if _, err := s.ownedLink(ctx, userID, linkID); err != nil {
		return nil, err
	}

	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
	}
	if update.URL != nil {
		if err := validateURL("url", *update.URL); err != nil {
			return nil, err
		}
	}
	if update.ThumbnailURL != nil && *update.ThumbnailURL != "" {
		if err := validateURL("thumbnailUrl", *update.ThumbnailURL); err != nil {
			return nil, err
		}
	}

	link, err := s.links.Update(ctx, linkID, update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("link", linkID)
		}
		return nil, apperrors.NewDatabaseError("update link", err)
	}

	return link, nil
}

// DeleteLink removes a link permanently after checking ownership
func (s *LinkService) DeleteLink(ctx context.Context, userID, linkID string) error {
	if _, err := s.ownedLink(ctx, userID, linkID); err != nil {
		return err
	}

	if err := s.links.Delete(ctx, linkID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("link", linkID)
		}
		return apperrors.NewDatabaseError("delete link", err)
	}

	return nil
}

// ReorderLinks assigns display orders 0..n-1 in request order. Every id must
// belong to the user and every one of the user's links must appear exactly
// once.
func (s *LinkService) ReorderLinks(ctx context.Context, userID string, linkIDs []string) error {
	existing, err := s.links.ListByUser(ctx, userID, false)
	if err != nil {
		return apperrors.NewDatabaseError("list links", err)
	}

	owned := make(map[string]bool, len(existing))
	for _, link := range existing {
		owned[link.ID] = true
	}

	if len(linkIDs) != len(existing) {
		return apperrors.NewValidationError("linkIds", "must contain every link exactly once")
	}

	seen := make(map[string]bool, len(linkIDs))
	for _, id := range linkIDs {
		if !owned[id] || seen[id] {
			return apperrors.NewValidationError("linkIds", "must contain every link exactly once")
		}
		seen[id] = true
	}

	for order, id := range linkIDs {
		if err := s.links.SetDisplayOrder(ctx, userID, id, order); err != nil {
			return apperrors.NewDatabaseError("reorder links", err)
		}
	}

	return nil
}

// ListSocialLinks returns all of a user's social links ordered by display
// order
func (s *LinkService) ListSocialLinks(ctx context.Context, userID string) ([]models.SocialLink, error) {
	links, err := s.socials.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list social links", err)
	}
	return links, nil
}

// CreateSocialLink creates a social link at the end of the list, subject to
// the plan limit
func (s *LinkService) CreateSocialLink(ctx context.Context, userID, accessToken string, platform types.SocialPlatform, linkURL string) (*models.SocialLink, error) {
	if !platform.Valid() {
		return nil, apperrors.NewValidationError("platform", "unknown platform")
	}
	if err := validateURL("url", linkURL); err != nil {
		return nil, err
	}

	plan, err := s.plans.ResolvePlan(ctx, userID, accessToken)
	if err != nil {
		return nil, err
	}

	if err := s.limits.CheckSocialLinkLimit(ctx, userID, plan.PlanType); err != nil {
		return nil, err
	}

	maxOrder, err := s.socials.MaxDisplayOrder(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get display order", err)
	}

	link := &models.SocialLink{
		UserID:       userID,
		Platform:     platform,
		URL:          linkURL,
		DisplayOrder: maxOrder + 1,
		IsActive:     true,
	}

	if err := s.socials.Create(ctx, link); err != nil {
		return nil, apperrors.NewDatabaseError("create social link", err)
	}

	return link, nil
}

// UpdateSocialLink applies a partial update after checking ownership
func (s *LinkService) UpdateSocialLink(ctx context.Context, userID, id string, update *models.SocialLinkUpdate) (*models.SocialLink, error) {
	if err := s.checkSocialOwnership(ctx, userID, id); err != nil {
		return nil, err
	}

	if update.URL != nil {
		if err := validateURL("url", *update.URL); err != nil {
			return nil, err
		}
	}

	link, err := s.socials.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("social link", id)
		}
		return nil, apperrors.NewDatabaseError("update social link", err)
	}

	return link, nil
}

// DeleteSocialLink removes a social link after checking ownership
func (s *LinkService) DeleteSocialLink(ctx context.Context, userID, id string) error {
	if err := s.checkSocialOwnership(ctx, userID, id); err != nil {
		return err
	}

	if err := s.socials.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("social link", id)
		}
		return apperrors.NewDatabaseError("delete social link", err)
	}

	return nil
}

func (s *LinkService) ownedLink(ctx context.Context, userID, linkID string) (*models.Link, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("link", linkID)
		}
		return nil, apperrors.NewDatabaseError("get link", err)
	}

	if link.UserID != userID {
		return nil, apperrors.NewNotOwnerError("link")
	}

	return link, nil
}

func (s *LinkService) checkSocialOwnership(ctx context.Context, userID, id string) error {
	link, err := s.socials.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("social link", id)
		}
		return apperrors.NewDatabaseError("get social link", err)
	}

	if link.UserID != userID {
		return apperrors.NewNotOwnerError("social link")
	}

	return nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.NewValidationError("title", "must not be empty")
	}
	if len(title) > maxTitleLength {
		return apperrors.NewValidationError("title", "too long")
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return apperrors.NewValidationError(field, "must not be empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return apperrors.NewValidationError(field, "must be an http or https URL")
	}

	return nil
}
