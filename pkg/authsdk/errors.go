package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeValidation       = "validation_error"
	ErrorCodeMaintenance      = "maintenance"
	ErrorCodeAccountLocked    = "account_locked"
	ErrorCodeUserNotFound     = "user_not_found"
	ErrorCodeAccountInactive  = "account_inactive"
	ErrorCodeInvalidPassword  = "invalid_credentials"
	ErrorCodeNotAuthenticated = "not_authenticated"
	ErrorCodeForbidden        = "forbidden"
	ErrorCodeNoTenantAccess   = "no_tenant_access"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeRateLimited      = "rate_limited"
	ErrorCodeServerError      = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body every auth endpoint returns. It implements the
// error interface so the server can return it from handlers and the SDK can
// hand it back to callers unchanged.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the stable machine readable code (e.g. "account_locked")
	Code string `json:"error"`

	// Message is a short, user safe description
	Message string `json:"message"`

	// Detail is an optional truncated diagnostic, never shown to end users
	Detail string `json:"detail,omitempty"`

	// Maintenance is set on maintenance rejections.
	Maintenance *MaintenanceInfo `json:"maintenance,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so callers can use errors.Is against the predefined
// values regardless of message or detail.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WithDetail returns a copy of e carrying detail.
func (e *APIError) WithDetail(detail string) *APIError {
	c := *e
	c.Detail = detail
	return &c
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrValidation is returned when required fields are missing or malformed.
	ErrValidation = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidation,
		Message:    "missing or invalid fields",
	}

	// ErrMaintenance is returned when the tenant or the platform is in
	// maintenance and the identity holds no elevated role.
	ErrMaintenance = &APIError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       ErrorCodeMaintenance,
		Message:    "the system is under maintenance",
	}

	// ErrAccountLocked is returned while a login lock is in force.
	ErrAccountLocked = &APIError{
		StatusCode: http.StatusLocked,
		Code:       ErrorCodeAccountLocked,
		Message:    "account temporarily locked, try again later",
	}

	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeUserNotFound,
		Message:    "user not found",
	}

	ErrAccountInactive = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeAccountInactive,
		Message:    "account is inactive",
	}

	ErrInvalidPassword = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidPassword,
		Message:    "wrong password",
	}

	// ErrNotAuthenticated is returned when the session is missing, expired
	// or fails verification.
	ErrNotAuthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeNotAuthenticated,
		Message:    "not authenticated",
	}

	ErrForbidden = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeForbidden,
		Message:    "forbidden",
	}

	ErrNoTenantAccess = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeNoTenantAccess,
		Message:    "no access to tenant",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "not found",
	}

	ErrRateLimited = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeRateLimited,
		Message:    "too many requests",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "internal server error",
	}
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError, falling back
// to a generic error built from the status code when the body is not ours.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
