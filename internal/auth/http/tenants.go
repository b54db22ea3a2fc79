package http

import (
	"net/http"

	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
)

type TenantHandler struct {
	Tenants *service.TenantService
}

// ServeHTTP godoc
//
//	@Summary		Tenant context
//	@Description	Public view of a tenant for the login page, including its maintenance flag.
//	@Description	Unknown tenants, or any tenant while the store is unreachable, are synthesized from the slug.
//	@Tags			Tenants
//	@Produce		json
//	@Param			slug	path		string	true	"Tenant slug"
//	@Success		200		{object}	authsdk.TenantResponse
//	@Router			/v1/tenants/{slug} [get].
func (h *TenantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tc := h.Tenants.Resolve(r.Context(), r.PathValue("slug"))
	t := tc.Tenant

	httpx.WriteJSON(w, http.StatusOK, authsdk.TenantResponse{
		Slug:        t.Slug,
		TenantID:    t.TenantID,
		Name:        t.Name,
		Status:      string(t.Status),
		Maintenance: maintenanceInfo(t.Maintenance),
	})
}
