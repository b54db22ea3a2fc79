package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

// SessionToken returns the session token carried by r: the session cookie
// when present, otherwise a bearer Authorization header.
func SessionToken(r *http.Request) string {
	if ck, err := r.Cookie(authsdk.SessionCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

// AuthnMiddleware verifies the session token and injects its claims. Any
// verification failure is answered with a uniform 401.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := SessionToken(r)
			if raw == "" {
				authsdk.ErrNotAuthenticated.WriteError(w)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Debug("session verify failed", "err", err)
				authsdk.ErrNotAuthenticated.WriteError(w)
				return
			}

			ctx = ContextWithClaims(ctx, claims)
			ctx = slogx.WithTenant(ctx, claims.CurrentTenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
