package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/linkbio/internal/adapter"
	"github.com/linkbio/internal/auth"
	"github.com/linkbio/internal/config"
	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/logging"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/storage"
	"github.com/linkbio/internal/types"
)

const (
	// maxUsernameLength bounds the sanitized base. Collision suffixes add at
	// most 9 more characters, which must still fit the VARCHAR(50) column.
	maxUsernameLength   = 40
	usernameMaxAttempts = 1000
)

// UserStore is the user storage surface the auth flow needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	SetPublicLinkID(ctx context.Context, userID, publicLinkID string) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// TokenExchanger runs the OAuth code and refresh grants
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*adapter.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*adapter.TokenResponse, error)
}

// AccessTokenVerifier validates provider-issued access tokens
type AccessTokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// IdentifierCodec turns user sequence numbers into public link identifiers
type IdentifierCodec interface {
	Encode(seq int64) (string, error)
}

// PlanActivator registers new users on the provider's free tier
type PlanActivator interface {
	ActivateFreePlan(ctx context.Context, userID, email string) error
}

// AuthService handles the OAuth login flow and user provisioning. Users exist
// on the identity provider first; the local row is created lazily on their
// first authenticated request.
type AuthService struct {
	users     UserStore
	plans     PlanStore
	exchanger TokenExchanger
	verifier  AccessTokenVerifier
	codec     IdentifierCodec
	activator PlanActivator
	cfg       config.SSOConfig
	logger    *logging.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserStore,
	plans PlanStore,
	exchanger TokenExchanger,
	verifier AccessTokenVerifier,
	codec IdentifierCodec,
	activator PlanActivator,
	cfg config.SSOConfig,
	logger *logging.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		plans:     plans,
		exchanger: exchanger,
		verifier:  verifier,
		codec:     codec,
		activator: activator,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateState returns a random state parameter for CSRF protection
func (s *AuthService) GenerateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", apperrors.NewInternalError("failed to generate oauth state", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// LoginURL builds the provider's authorization URL
func (s *AuthService) LoginURL(state string) string {
	params := url.Values{
		"client_id":     {s.cfg.ClientID},
		"redirect_uri":  {s.cfg.RedirectURI},
		"response_type": {"code"},
		"state":         {state},
	}
	return fmt.Sprintf("%s/oauth/authorize?%s", strings.TrimRight(s.cfg.ClientURL, "/"), params.Encode())
}

// ExchangeCode trades an authorization code for tokens
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*adapter.TokenResponse, error) {
	if code == "" {
		return nil, apperrors.NewValidationError("code", "must not be empty")
	}
	return s.exchanger.ExchangeCode(ctx, code)
}

// RefreshTokens trades a refresh token for fresh tokens
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*adapter.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.NewValidationError("refreshToken", "must not be empty")
	}
	return s.exchanger.RefreshTokens(ctx, refreshToken)
}

// GetOrCreateUser resolves the local user behind a verified access token,
// provisioning one on first login.
func (s *AuthService) GetOrCreateUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.verifier.Verify(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	return s.createUser(ctx, claims.Subject, claims.Email)
}

// GetCurrentUser resolves the local user behind a verified access token
// without provisioning
func (s *AuthService) GetCurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.verifier.Verify(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", claims.Subject)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	return user, nil
}

// createUser provisions a local user for a provider identity: unique
// username, public link identifier from the insert sequence, initial free
// plan row, and free-tier activation at the provider. Activation failure
// aborts the login.
func (s *AuthService) createUser(ctx context.Context, userID, email string) (*models.User, error) {
	base := email
	if i := strings.Index(base, "@"); i >= 0 {
		base = base[:i]
	}
	if base == "" && len(userID) >= 8 {
		base = "user_" + userID[:8]
	}

	username, err := s.uniqueUsername(ctx, base)
	if err != nil {
		return nil, err
	}

	if email == "" {
		email = userID + "@sso.invalid"
	}

	user := &models.User{
		ID:          userID,
		Username:    username,
		Email:       email,
		DisplayName: username,
		Theme:       "default",
		ButtonStyle: string(types.ButtonDefault),
		IsActive:    true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("create user", err)
	}

	publicLinkID, err := s.codec.Encode(user.UserSeq)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to derive public link id", err)
	}
	if err := s.users.SetPublicLinkID(ctx, user.ID, publicLinkID); err != nil {
		return nil, apperrors.NewDatabaseError("assign public link id", err)
	}
	user.PublicLinkID = publicLinkID

	plan := &models.Plan{
		UserID:   user.ID,
		PlanType: types.PlanFree,
	}
	if err := s.plans.Insert(ctx, plan); err != nil {
		return nil, apperrors.NewDatabaseError("create initial plan", err)
	}

	if err := s.activator.ActivateFreePlan(ctx, user.ID, user.Email); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":        user.ID,
		"username":       user.Username,
		"public_link_id": user.PublicLinkID,
	}).Info("user provisioned from identity provider")

	return user, nil
}

// uniqueUsername sanitizes the base and suffixes _1, _2, ... on collisions,
// falling back to a random suffix if the namespace is badly crowded.
func (s *AuthService) uniqueUsername(ctx context.Context, base string) (string, error) {
	clean := sanitizeUsername(base)

	candidate := clean
	for attempt := 1; attempt <= usernameMaxAttempts; attempt++ {
		exists, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", apperrors.NewDatabaseError("check username", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", clean, attempt)
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", apperrors.NewInternalError("failed to generate username suffix", err)
	}
	return fmt.Sprintf("%s_%s", clean, hex.EncodeToString(suffix)), nil
}

func sanitizeUsername(base string) string {
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if clean == "" {
		clean = "user"
	}
	if len(clean) > maxUsernameLength {
		clean = clean[:maxUsernameLength]
	}
	return clean
}
