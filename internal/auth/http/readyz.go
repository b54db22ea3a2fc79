package http

import (
	"net/http"

	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe. A missing signing key is fatal (503). An unreachable
//	@Description	store only degrades the service, since logins fall back to degraded mode.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status and checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status and checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(health *store.Health, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok", "signer": "ok"}
		status, code := "ok", http.StatusOK

		if !health.Available(r.Context()) {
			checks["database"] = "unavailable"
			status = "degraded"
		}

		if !keys.IsReady() {
			checks["signer"] = "error: no keys loaded"
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{Status: status, Checks: checks})
	}
}
