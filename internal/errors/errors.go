// Package errors provides categorized application errors with stable codes
// and HTTP status mapping for the API boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/linkbio/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryValidation represents malformed-input errors
	CategoryValidation ErrorCategory = "validation"
	// CategoryAuthentication represents auth failures
	CategoryAuthentication ErrorCategory = "authentication"
	// CategoryAuthorization represents ownership/permission violations
	CategoryAuthorization ErrorCategory = "authorization"
	// CategoryNotFound represents missing resources
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConflict represents uniqueness conflicts
	CategoryConflict ErrorCategory = "conflict"
	// CategoryPlanLimit represents plan tier gating
	CategoryPlanLimit ErrorCategory = "plan_limit"
	// CategoryUpstream represents external provider errors
	CategoryUpstream ErrorCategory = "upstream"
	// CategoryDatabase represents store errors
	CategoryDatabase ErrorCategory = "database"
	// CategorySystem represents unexpected internal errors
	CategorySystem ErrorCategory = "system"
)

// Stable error codes surfaced at the API boundary.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeForbidden            = "FORBIDDEN"
	CodeNotOwner             = "NOT_OWNER"
	CodeLinkLimit            = "LINK_LIMIT_EXCEEDED"
	CodeSocialLinkLimit      = "SOCIAL_LINK_LIMIT_EXCEEDED"
	CodeFeatureNotAvailable  = "FEATURE_NOT_AVAILABLE"
	CodeValidation           = "VALIDATION_ERROR"
	CodeDuplicate            = "DUPLICATE_RESOURCE"
	CodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	CodeServiceNotFound      = "SERVICE_NOT_FOUND"
	CodeActivationFailed     = "SUBSCRIPTION_ACTIVATION_FAILED"
	CodeInvalidFileType      = "INVALID_FILE_TYPE"
	CodeFileSizeExceeded     = "FILE_SIZE_EXCEEDED"
	CodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	CodeInternal             = "INTERNAL_ERROR"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthentication,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthorized,
		Message:    message,
	}
}

// NewInvalidCredentialsError creates an invalid credentials error
func NewInvalidCredentialsError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthentication,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidCredentials,
		Message:    message,
	}
}

// NewTokenExpiredError creates a token expired error
func NewTokenExpiredError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthentication,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeTokenExpired,
		Message:    "token has expired",
	}
}

// NewInvalidTokenError creates an invalid token error
func NewInvalidTokenError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthentication,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidToken,
		Message:    message,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthorization,
		StatusCode: http.StatusForbidden,
		Code:       CodeForbidden,
		Message:    message,
	}
}

// NewNotOwnerError creates an ownership violation error
func NewNotOwnerError(resource string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthorization,
		StatusCode: http.StatusForbidden,
		Code:       CodeNotOwner,
		Message:    fmt.Sprintf("%s belongs to another user", resource),
		Details: map[string]interface{}{
			"resource": resource,
		},
	}
}

// NewValidationError creates a malformed-input error
func NewValidationError(field string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeValidation,
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewDuplicateError creates a uniqueness conflict error
func NewDuplicateError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConflict,
		StatusCode: http.StatusConflict,
		Code:       CodeDuplicate,
		Message:    message,
	}
}

// NewLinkLimitError creates a link limit exceeded error
func NewLinkLimitError(limit int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPlanLimit,
		StatusCode: http.StatusForbidden,
		Code:       CodeLinkLimit,
		Message:    fmt.Sprintf("free plan allows up to %d links", limit),
		Details: map[string]interface{}{
			"limit": limit,
		},
	}
}

// NewSocialLinkLimitError creates a social link limit exceeded error
func NewSocialLinkLimitError(limit int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPlanLimit,
		StatusCode: http.StatusForbidden,
		Code:       CodeSocialLinkLimit,
		Message:    fmt.Sprintf("free plan allows up to %d social links", limit),
		Details: map[string]interface{}{
			"limit": limit,
		},
	}
}

// NewFeatureNotAvailableError creates a feature gating error
func NewFeatureNotAvailableError(feature types.Feature) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPlanLimit,
		StatusCode: http.StatusForbidden,
		Code:       CodeFeatureNotAvailable,
		Message:    fmt.Sprintf("feature not available on your plan: %s", feature),
		Details: map[string]interface{}{
			"feature": string(feature),
		},
	}
}

// NewSubscriptionUnavailableError creates an error for a failed subscription lookup
func NewSubscriptionUnavailableError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusBadGateway,
		Code:       CodeUpstreamUnavailable,
		Message:    "failed to check subscription status",
		Cause:      cause,
	}
}

// NewServiceNotFoundError indicates the subscription service code is not registered
func NewServiceNotFoundError(serviceCode string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusNotFound,
		Code:       CodeServiceNotFound,
		Message:    fmt.Sprintf("subscription service not found: %s", serviceCode),
		Details: map[string]interface{}{
			"serviceCode": serviceCode,
		},
	}
}

// NewActivationFailedError creates a subscription activation error
func NewActivationFailedError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusBadGateway,
		Code:       CodeActivationFailed,
		Message:    "failed to activate subscription",
		Cause:      cause,
	}
}

// NewUpstreamError creates a generic external provider error
func NewUpstreamError(service string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusBadGateway,
		Code:       CodeUpstreamUnavailable,
		Message:    fmt.Sprintf("external service error: %s", service),
		Cause:      cause,
		Details: map[string]interface{}{
			"service": service,
		},
	}
}

// NewInvalidFileTypeError creates an invalid upload content type error
func NewInvalidFileTypeError(contentType string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidFileType,
		Message:    fmt.Sprintf("unsupported file type: %s", contentType),
		Details: map[string]interface{}{
			"contentType": contentType,
		},
	}
}

// NewFileSizeExceededError creates a file size cap error
func NewFileSizeExceededError(maxBytes int64) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeFileSizeExceeded,
		Message:    "file size exceeds the limit",
		Details: map[string]interface{}{
			"maxBytes": maxBytes,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryPlanLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRateLimited,
		Message:    "rate limit exceeded",
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// HasCode reports whether the error carries the given stable code.
func HasCode(err error, code string) bool {
	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr.Code == code
	}
	return false
}

// IsNotFound reports whether the error is a not-found error.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}
