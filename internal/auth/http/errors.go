package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

const (
	maxBodyBytes  = 16 << 10
	maxDetailSize = 200
)

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError maps a service error to its APIError. Unmapped errors become a
// 500 with a truncated diagnostic.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var me *service.MaintenanceError
	if errors.As(err, &me) {
		e := *authsdk.ErrMaintenance
		if me.Message != "" {
			e.Message = me.Message
		}
		e.Maintenance = &authsdk.MaintenanceInfo{Active: true, Message: me.Message, Until: me.Until}
		e.WriteError(w)
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
		authsdk.ErrValidation.WithDetail(msg).WriteError(w)
	case errors.Is(err, service.ErrAccountLocked):
		authsdk.ErrAccountLocked.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		authsdk.ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrAccountInactive):
		authsdk.ErrAccountInactive.WriteError(w)
	case errors.Is(err, service.ErrInvalidPassword):
		authsdk.ErrInvalidPassword.WriteError(w)
	case errors.Is(err, service.ErrInvalidSession):
		authsdk.ErrNotAuthenticated.WriteError(w)
	case errors.Is(err, service.ErrNoTenantAccess):
		authsdk.ErrNoTenantAccess.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbidden.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			"kind", service.Classify(err).String(), "error", err)
		authsdk.ErrServerError.WithDetail(slogx.Err(err, maxDetailSize)).WriteError(w)
	}
}
