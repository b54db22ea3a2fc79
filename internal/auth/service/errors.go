package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/store"
)

var (
	ErrValidation      = errors.New("validation_error")
	ErrMaintenance     = errors.New("maintenance")
	ErrAccountLocked   = errors.New("account_locked")
	ErrUserNotFound    = errors.New("user_not_found")
	ErrAccountInactive = errors.New("account_inactive")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidSession  = errors.New("invalid_session")
	ErrForbidden       = errors.New("forbidden")
	ErrNoTenantAccess  = errors.New("no_tenant_access")

	// ErrUnavailable is returned only where no safe fallback exists.
	ErrUnavailable = store.ErrUnavailable
)

// MaintenanceError rejects a login during a maintenance window.
type MaintenanceError struct {
	Message string
	Until   *time.Time
}

func (e *MaintenanceError) Error() string {
	if e.Message == "" {
		return ErrMaintenance.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMaintenance, e.Message)
}

func (e *MaintenanceError) Is(target error) bool { return target == ErrMaintenance }

// Kind groups errors the way callers react to them.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindAuthentication
	KindRateLimit
	KindMaintenance
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindAuthentication:
		return "authentication"
	case KindRateLimit:
		return "rate_limit"
	case KindMaintenance:
		return "maintenance"
	case KindDependency:
		return "dependency_unavailable"
	}
	return "unknown"
}

// Classify maps an error returned by this package to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNoTenantAccess):
		return KindAuthorization
	case errors.Is(err, ErrInvalidPassword), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrAccountInactive), errors.Is(err, ErrInvalidSession):
		return KindAuthentication
	case errors.Is(err, ErrAccountLocked):
		return KindRateLimit
	case errors.Is(err, ErrMaintenance):
		return KindMaintenance
	case errors.Is(err, ErrUnavailable):
		return KindDependency
	}
	return KindUnknown
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
