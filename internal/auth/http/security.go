package http

import (
	"net/http"

	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
)

// SecurityHandler serves the operator tools: unlocking accounts and the
// brute-force report.
type SecurityHandler struct {
	Gateway *service.AuthGateway
}

// HandleUnlock godoc
//
//	@Summary		Unlock an account
//	@Description	Deletes the login lock of an identity in a tenant. tenantSlug defaults to the
//	@Description	operator's current tenant. Tenant admins may only unlock in their own tenant.
//	@Tags			Security
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UnlockRequest	true	"Identity to unlock"
//	@Success		200		{object}	authsdk.UnlockResponse
//	@Failure		400		{object}	authsdk.APIError	"missing identityNumber"
//	@Failure		401		{object}	authsdk.APIError	"not authenticated"
//	@Failure		403		{object}	authsdk.APIError	"not an operator for the tenant"
//	@Failure		500		{object}	authsdk.APIError	"store unavailable"
//	@Security		SessionCookie
//	@Security		BearerAuth
//	@Router			/v1/security/unlock [post].
func (h *SecurityHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	operator, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		authsdk.ErrNotAuthenticated.WriteError(w)
		return
	}

	var req authsdk.UnlockRequest
	if err := decodeBody(w, r, &req); err != nil {
		authsdk.ErrValidation.WithDetail("request body must be valid JSON").WriteError(w)
		return
	}

	slug, err := h.Gateway.Unlock(r.Context(), operator, req.IdentityNumber, req.TenantSlug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UnlockResponse{
		Success:        true,
		IdentityNumber: req.IdentityNumber,
		TenantSlug:     slug,
	})
}

// HandleBruteForce godoc
//
//	@Summary		Brute-force report
//	@Description	Aggregates counted login failures by identity and by IP over the lockout window and a
//	@Description	longer range. Advisory only. Tenant admins always see their own tenant.
//	@Tags			Security
//	@Produce		json
//	@Param			range	query		string	false	"Long window"	Enums(24h, 7d, 30d)
//	@Param			tenant	query		string	false	"Tenant slug (master only)"
//	@Success		200		{object}	authsdk.BruteForceReport
//	@Failure		400		{object}	authsdk.APIError	"unknown range"
//	@Failure		401		{object}	authsdk.APIError	"not authenticated"
//	@Failure		403		{object}	authsdk.APIError	"not an operator for the tenant"
//	@Security		SessionCookie
//	@Security		BearerAuth
//	@Router			/v1/security/bruteforce [get].
func (h *SecurityHandler) HandleBruteForce(w http.ResponseWriter, r *http.Request) {
	operator, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		authsdk.ErrNotAuthenticated.WriteError(w)
		return
	}

	q := r.URL.Query()
	report, err := h.Gateway.BruteForce(r.Context(), operator, q.Get("tenant"), q.Get("range"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}
