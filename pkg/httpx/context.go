package httpx

import (
	"context"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// ContextWithClaims stores verified session claims for downstream handlers.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.UserID)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// ClaimsFromContext returns the verified claims of the request, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// SessionFromContext returns just the session identity of the request.
func SessionFromContext(ctx context.Context) (authsdk.SessionClaims, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return authsdk.SessionClaims{}, false
	}
	return c.SessionClaims, true
}
