package http

import (
	"net/http"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
)

// SessionHandler serves login, logout, the current session and tenant
// switching.
type SessionHandler struct {
	Gateway *service.AuthGateway
	Cookies httpx.CookieOptions
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Authenticates an identity number (or phone) and password against a tenant.
//	@Description	A missing tenantSlug falls back to the tenant-slug cookie, then to the default tenant.
//	@Description	On success the signed session is set in the mv_session cookie.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.APIError	"missing fields"
//	@Failure		401		{object}	authsdk.APIError	"wrong password"
//	@Failure		403		{object}	authsdk.APIError	"inactive account"
//	@Failure		404		{object}	authsdk.APIError	"user not found"
//	@Failure		423		{object}	authsdk.APIError	"account locked"
//	@Failure		429		{object}	authsdk.APIError	"rate limited"
//	@Failure		500		{object}	authsdk.APIError	"unexpected failure"
//	@Failure		503		{object}	authsdk.APIError	"maintenance"
//	@Router			/v1/auth/login [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		authsdk.ErrValidation.WithDetail("request body must be valid JSON").WriteError(w)
		return
	}

	in := service.LoginInput{
		IdentityNumber: req.IdentityNumber,
		Password:       req.Password,
		TenantSlug:     req.TenantSlug,
		IP:             httpx.IPKeyExtractor(r),
	}
	// The cookie is only remembered state, so it must not pin a tenant the
	// master shortcut would refuse.
	if ck, err := r.Cookie(authsdk.TenantCookieName); err == nil {
		in.FallbackTenantSlug = ck.Value
	}

	res, err := h.Gateway.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := res.Session
	httpx.SetSessionCookies(w, h.Cookies, s.Token, s.Claims.CurrentTenant, s.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success:       true,
		User:          s.Claims,
		IsMasterAdmin: res.IsMaster,
		Maintenance:   maintenanceInfo(res.Maintenance),
		Degraded:      res.Degraded,
		ExpiresAt:     s.ExpiresAt,
	})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Expires the session cookies. Sessions are stateless, so a copied token stays valid until it expires.
//	@Tags			Session
//	@Success		204
//	@Router			/v1/auth/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	httpx.ClearSessionCookies(w, h.Cookies)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession godoc
//
//	@Summary		Current session
//	@Description	Returns the claims of the verified session.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse
//	@Failure		401	{object}	authsdk.APIError	"not authenticated"
//	@Security		SessionCookie
//	@Security		BearerAuth
//	@Router			/v1/auth/session [get].
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrNotAuthenticated.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		User:      claims.SessionClaims,
		ExpiresAt: claims.Expiry(),
	})
}

// HandleSwitchTenant godoc
//
//	@Summary		Switch tenant
//	@Description	Reissues the session for another tenant the identity already holds a role in.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SwitchTenantRequest	true	"Target tenant"
//	@Success		200		{object}	authsdk.SwitchTenantResponse
//	@Failure		400		{object}	authsdk.APIError	"missing tenantSlug"
//	@Failure		401		{object}	authsdk.APIError	"not authenticated"
//	@Failure		403		{object}	authsdk.APIError	"no access to tenant"
//	@Security		SessionCookie
//	@Security		BearerAuth
//	@Router			/v1/auth/switch-tenant [post].
func (h *SessionHandler) HandleSwitchTenant(w http.ResponseWriter, r *http.Request) {
	current, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		authsdk.ErrNotAuthenticated.WriteError(w)
		return
	}

	var req authsdk.SwitchTenantRequest
	if err := decodeBody(w, r, &req); err != nil {
		authsdk.ErrValidation.WithDetail("request body must be valid JSON").WriteError(w)
		return
	}

	res, err := h.Gateway.SwitchTenant(r.Context(), current, req.TenantSlug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := res.Session
	httpx.SetSessionCookies(w, h.Cookies, s.Token, s.Claims.CurrentTenant, s.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SwitchTenantResponse{
		Success:   true,
		User:      s.Claims,
		ExpiresAt: s.ExpiresAt,
	})
}

func maintenanceInfo(m *domain.Maintenance) authsdk.MaintenanceInfo {
	if m == nil {
		return authsdk.MaintenanceInfo{}
	}
	return authsdk.MaintenanceInfo{Active: m.Active, Message: m.Message, Until: m.Until}
}
