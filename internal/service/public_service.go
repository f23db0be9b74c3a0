package service

import (
	"context"
	"errors"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
)

// PublicUserReader looks up active users by their public link identifier
type PublicUserReader interface {
	GetActiveByPublicLinkID(ctx context.Context, publicLinkID string) (*models.User, error)
}

// PublicLinkStore is the slice of link storage the public surface needs
type PublicLinkStore interface {
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.Link, error)
	GetByID(ctx context.Context, id string) (*models.Link, error)
	IncrementClickCount(ctx context.Context, linkID string) error
}

// PublicSocialLinkStore lists a user's social links
type PublicSocialLinkStore interface {
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]models.SocialLink, error)
}

// ProResolver answers the fail-closed pro check
type ProResolver interface {
	IsProUser(ctx context.Context, userID string) bool
}

// ClickRecorder appends click events, best effort
type ClickRecorder interface {
	RecordClickEvent(ctx context.Context, linkID, userAgent, ipAddress string)
}

// PublicService serves the unauthenticated profile surface. Lookups go by the
// stored public link identifier string; inactive users and links are
// indistinguishable from missing ones.
type PublicService struct {
	users     PublicUserReader
	links     PublicLinkStore
	socials   PublicSocialLinkStore
	pro       ProResolver
	analytics ClickRecorder
	logger    *logging.Logger
}

// NewPublicService creates a new public profile service
func NewPublicService(
	users PublicUserReader,
	links PublicLinkStore,
	socials PublicSocialLinkStore,
	pro ProResolver,
	analytics ClickRecorder,
	logger *logging.Logger,
) *PublicService {
	return &PublicService{
		users:     users,
		links:     links,
		socials:   socials,
		pro:       pro,
		analytics: analytics,
		logger:    logger,
	}
}

// Resolve builds the public view of a profile
func (s *PublicService) Resolve(ctx context.Context, publicLinkID string) (*models.PublicProfile, error) {
	user, err := s.users.GetActiveByPublicLinkID(ctx, publicLinkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("profile", publicLinkID)
		}
		return nil, apperrors.NewDatabaseError("get public profile", err)
	}

	links, err := s.links.ListByUser(ctx, user.ID, true)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list public links", err)
	}

	socials, err := s.socials.ListByUser(ctx, user.ID, true)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list public social links", err)
	}

	return &models.PublicProfile{
		PublicLinkID:       user.PublicLinkID,
		Username:           user.Username,
		DisplayName:        user.DisplayName,
		Bio:                user.Bio,
		ProfileImageURL:    user.ProfileImageURL,
		BackgroundImageURL: user.BackgroundImageURL,
		BackgroundColor:    user.BackgroundColor,
		Theme:              user.Theme,
		ButtonStyle:        user.ButtonStyle,
		IsProUser:          s.pro.IsProUser(ctx, user.ID),
		Links:              links,
		SocialLinks:        socials,
	}, nil
}

// RecordClick counts a click on a link belonging to the given profile. The
// authoritative counter increment must succeed; the event log append is best
// effort and never fails the request.
func (s *PublicService) RecordClick(ctx context.Context, publicLinkID, linkID, userAgent, ipAddress string) error {
	user, err := s.users.GetActiveByPublicLinkID(ctx, publicLinkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("profile", publicLinkID)
		}
		return apperrors.NewDatabaseError("get public profile", err)
	}

	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("link", linkID)
		}
		return apperrors.NewDatabaseError("get link", err)
	}

	// A link under another profile, or a deactivated one, reads as missing
	if link.UserID != user.ID || !link.IsActive {
		return apperrors.NewNotFoundError("link", linkID)
	}

	if err := s.links.IncrementClickCount(ctx, linkID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFoundError("link", linkID)
		}
		return apperrors.NewDatabaseError("increment click count", err)
	}

	s.analytics.RecordClickEvent(ctx, linkID, userAgent, ipAddress)

	return nil
}
