package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
	"github.com/linkbio/internal/types"
)

const (
	maxDisplayNameLength = 50
	maxBioLength         = 500
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ProfileStore is the user storage surface for profile management
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update *models.ProfileUpdate) (*models.User, error)
}

// ImageStore validates and uploads profile imagery
type ImageStore interface {
	ValidateImage(contentType string, size int64) (string, error)
	Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error)
}

// FeatureChecker gates plan-restricted features
type FeatureChecker interface {
	CheckFeatureAccess(plan types.PlanType, feature types.Feature) error
}

// ProfileService manages profile display attributes and image uploads
type ProfileService struct {
	users            ProfileStore
	images           ImageStore
	plans            PlanResolver
	features         FeatureChecker
	profileBucket    string
	backgroundBucket string
	logger           *logging.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	users ProfileStore,
	images ImageStore,
	plans PlanResolver,
	features FeatureChecker,
	profileBucket, backgroundBucket string,
	logger *logging.Logger,
) *ProfileService {
	return &ProfileService{
		users:            users,
		images:           images,
		plans:            plans,
		features:         features,
		profileBucket:    profileBucket,
		backgroundBucket: backgroundBucket,
		logger:           logger,
	}
}

// GetProfile returns a user's own profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", userID)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to the profile's display attributes.
// Setting a background image is pro-only; clearing one is not.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID, accessToken string, update *models.ProfileUpdate) (*models.User, error) {
	if err := validateProfileUpdate(update); err != nil {
		return nil, err
	}

	if update.BackgroundImageURL != nil && *update.BackgroundImageURL != "" {
		if err := s.checkFeature(ctx, userID, accessToken, types.FeatureBackgroundImage); err != nil {
			return nil, err
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", userID)
		}
		return nil, apperrors.NewDatabaseError("update profile", err)
	}

	return user, nil
}

// UploadProfileImage stores a new profile image and persists its public URL
func (s *ProfileService) UploadProfileImage(ctx context.Context, userID, contentType string, data []byte) (*models.User, error) {
	publicURL, err := s.uploadImage(ctx, s.profileBucket, "profile", userID, contentType, data)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, &models.ProfileUpdate{ProfileImageURL: &publicURL})
	if err != nil {
		return nil, apperrors.NewDatabaseError("persist profile image", err)
	}
	return user, nil
}

// UploadBackgroundImage stores a new background image. Pro only.
func (s *ProfileService) UploadBackgroundImage(ctx context.Context, userID, accessToken, contentType string, data []byte) (*models.User, error) {
	if err := s.checkFeature(ctx, userID, accessToken, types.FeatureBackgroundImage); err != nil {
		return nil, err
	}

	publicURL, err := s.uploadImage(ctx, s.backgroundBucket, "background", userID, contentType, data)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, &models.ProfileUpdate{BackgroundImageURL: &publicURL})
	if err != nil {
		return nil, apperrors.NewDatabaseError("persist background image", err)
	}
	return user, nil
}

func (s *ProfileService) uploadImage(ctx context.Context, bucket, prefix, userID, contentType string, data []byte) (string, error) {
	ext, err := s.images.ValidateImage(contentType, int64(len(data)))
	if err != nil {
		return "", err
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", apperrors.NewInternalError("failed to generate object name", err)
	}

	objectPath := fmt.Sprintf("%s/%s_%s_%s%s", userID, prefix, userID, hex.EncodeToString(suffix), ext)

	publicURL, err := s.images.Upload(ctx, bucket, objectPath, contentType, data)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"bucket":  bucket,
		"object":  objectPath,
	}).Info("image uploaded")

	return publicURL, nil
}

func (s *ProfileService) checkFeature(ctx context.Context, userID, accessToken string, feature types.Feature) error {
	plan, err := s.plans.ResolvePlan(ctx, userID, accessToken)
	if err != nil {
		return err
	}
	return s.features.CheckFeatureAccess(plan.PlanType, feature)
}

func validateProfileUpdate(update *models.ProfileUpdate) error {
	if update.DisplayName != nil && len(*update.DisplayName) > maxDisplayNameLength {
		return apperrors.NewValidationError("displayName", "too long")
	}
	if update.Bio != nil && len(*update.Bio) > maxBioLength {
		return apperrors.NewValidationError("bio", "too long")
	}
	if update.BackgroundColor != nil && *update.BackgroundColor != "" && !hexColorPattern.MatchString(*update.BackgroundColor) {
		return apperrors.NewValidationError("backgroundColor", "must be a #RRGGBB color")
	}
	if update.ButtonStyle != nil && !types.ButtonStyle(*update.ButtonStyle).Valid() {
		return apperrors.NewValidationError("buttonStyle", "unknown button style")
	}
	if update.ProfileImageURL != nil && *update.ProfileImageURL != "" {
		if err := validateURL("profileImageUrl", *update.ProfileImageURL); err != nil {
			return err
		}
	}
	if update.BackgroundImageURL != nil && *update.BackgroundImageURL != "" {
		if err := validateURL("backgroundImageUrl", *update.BackgroundImageURL); err != nil {
			return err
		}
	}
	return nil
}
