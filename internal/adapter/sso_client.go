package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linkbio/internal/config"
	apperrors "github.com/linkbio/internal/errors"
	"github.com/linkbio/internal/models"
	"github.com/linkbio/internal/types"
)

// SSOClient talks to the external identity provider. It handles the OAuth
// token endpoints, the visitor-facing subscription lookup, and the admin API
// used for fail-closed pro checks and free-plan activation.
//
// Requests are bounded by the configured timeout and never retried; callers
// decide how to degrade when the provider is unreachable.
type SSOClient struct {
	apiURL      string
	clientID    string
	secret      string
	redirectURI string
	apiKey      string
	serviceCode string
	client      *http.Client
}

// TokenResponse is the provider's OAuth token endpoint response
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// subscriptionResponse is the provider's subscription payload
type subscriptionResponse struct {
	HasAccess bool       `json:"hasAccess"`
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// NewSSOClient creates a new identity provider client
func NewSSOClient(cfg *config.SSOConfig) *SSOClient {
	return &SSOClient{
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		clientID:    cfg.ClientID,
		secret:      cfg.ClientSecret,
		redirectURI: cfg.RedirectURI,
		apiKey:      cfg.APIKey,
		serviceCode: cfg.ServiceCode,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

// ExchangeCode trades an authorization code for a token pair
func (c *SSOClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
		"redirect_uri":  {c.redirectURI},
	}

	return c.postTokenForm(ctx, form)
}

// RefreshTokens trades a refresh token for a fresh token pair
func (c *SSOClient) RefreshTokens(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
	}

	return c.postTokenForm(ctx, form)
}

func (c *SSOClient) postTokenForm(ctx context.Context, form url.Values) (*TokenResponse, error) {
	endpoint := c.apiURL + "/oauth/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("sso", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("sso", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewInvalidCredentialsError("token exchange failed")
	}

	var tokens TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, apperrors.NewUpstreamError("sso", fmt.Errorf("malformed token response: %w", err))
	}

	return &tokens, nil
}

// GetSubscriptionStatus resolves the caller's subscription using their own
// access token. Status codes map to distinct failures so callers can tell
// a bad token apart from a provider outage.
func (c *SSOClient) GetSubscriptionStatus(ctx context.Context, accessToken string) (*models.SubscriptionStatus, error) {
	endpoint := fmt.Sprintf("%s/api/subscriptions/status?service_code=%s", c.apiURL, url.QueryEscape(c.serviceCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSubscriptionUnavailableError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSubscriptionUnavailableError(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, apperrors.NewInvalidCredentialsError("invalid access token")
	case http.StatusNotFound:
		return nil, apperrors.NewServiceNotFoundError(c.serviceCode)
	default:
		return nil, apperrors.NewSubscriptionUnavailableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return parseSubscription(body)
}

// GetUserSubscription resolves a user's subscription through the admin API.
// Used when no visitor token is available, such as the public profile
// watermark check.
func (c *SSOClient) GetUserSubscription(ctx context.Context, userID string) (*models.SubscriptionStatus, error) {
	endpoint := fmt.Sprintf("%s/api/admin/users/%s/subscription?service_code=%s",
		c.apiURL, url.PathEscape(userID), url.QueryEscape(c.serviceCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build admin subscription request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSubscriptionUnavailableError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSubscriptionUnavailableError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewSubscriptionUnavailableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return parseSubscription(body)
}

// ActivateFreePlan registers the user on the provider's free tier. Callers
// treat any failure as fatal to user creation.
func (c *SSOClient) ActivateFreePlan(ctx context.Context, userID, email string) error {
	endpoint := fmt.Sprintf("%s/api/admin/users/%s/subscriptions/activate-free", c.apiURL, url.PathEscape(userID))

	payload, err := json.Marshal(map[string]string{
		"email":        email,
		"service_code": c.serviceCode,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal activation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build activation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewActivationFailedError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return apperrors.NewActivationFailedError(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return nil
}

func parseSubscription(body []byte) (*models.SubscriptionStatus, error) {
	var sub subscriptionResponse
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, apperrors.NewSubscriptionUnavailableError(fmt.Errorf("malformed subscription response: %w", err))
	}

	plan := types.PlanFree
	if strings.EqualFold(sub.Plan, string(types.PlanPro)) {
		plan = types.PlanPro
	}

	return &models.SubscriptionStatus{
		HasAccess: sub.HasAccess,
		Plan:      plan,
		Status:    sub.Status,
		ExpiresAt: sub.ExpiresAt,
	}, nil
}
