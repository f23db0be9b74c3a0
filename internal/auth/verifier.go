package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/linkbio/internal/errors"
)

// Claims are the claims the identity provider places in its access tokens
type Claims struct {
	Email     string `json:"email"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenVerifier validates access tokens issued by the identity provider.
// Signing keys are fetched from the provider's JWKS endpoint and refreshed
// in the background by keyfunc.
type TokenVerifier struct {
	jwks keyfunc.Keyfunc
}

// NewTokenVerifier fetches the provider's JWKS and builds a verifier. The
// context bounds the initial fetch; keyfunc keeps the key set fresh after
// that.
func NewTokenVerifier(ctx context.Context, jwksURI string) (*TokenVerifier, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURI, err)
	}

	return &TokenVerifier{jwks: jwks}, nil
}

// NewTokenVerifierWithKeyfunc builds a verifier around an existing key set,
// used by tests
func NewTokenVerifierWithKeyfunc(jwks keyfunc.Keyfunc) *TokenVerifier {
	return &TokenVerifier{jwks: jwks}
}

// Verify parses and validates an access token, returning its claims. Only
// RS256-signed access tokens are accepted; refresh tokens are rejected even
// when their signature is valid.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewTokenExpiredError()
		}
		return nil, apperrors.NewInvalidTokenError("invalid access token")
	}

	if !token.Valid {
		return nil, apperrors.NewInvalidTokenError("invalid access token")
	}

	if claims.TokenType != "access" {
		return nil, apperrors.NewInvalidTokenError("not an access token")
	}

	if claims.Subject == "" {
		return nil, apperrors.NewInvalidTokenError("token missing user id")
	}

	return claims, nil
}

// ExtractBearerToken pulls the bearer token out of an Authorization header.
// Returns an empty string when the header is missing or malformed.
func ExtractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
