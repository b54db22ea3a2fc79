package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe. Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status: "ok",
			Checks: map[string]string{
				"uptime":  time.Since(startTime).Round(time.Second).String(),
				"version": version,
			},
		})
	}
}
