package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
)

// SessionCheck decides whether a verified session may continue.
type SessionCheck func(ctx context.Context, session *authsdk.SessionClaims) error

// Authorize answers 403 when check rejects the session and 401 when there is
// no session at all. Must run after AuthnMiddleware.
func Authorize(check SessionCheck) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				authsdk.ErrNotAuthenticated.WriteError(w)
				return
			}
			if err := check(r.Context(), &session); err != nil {
				authsdk.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
