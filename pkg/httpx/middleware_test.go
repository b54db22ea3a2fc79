package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const issuer = "https://auth.mealvote.example"

func signSession(t *testing.T, km *jwtx.KeyManager, s authsdk.SessionClaims) string {
	t.Helper()
	token, err := km.Signer.Sign(jwtx.NewSessionClaims(s, time.Hour, issuer, nil, time.Now()))
	require.NoError(t, err)
	return token
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: issuer})
	require.NoError(t, err)

	session := authsdk.SessionClaims{UserID: "u1", CurrentTenant: "acme", CurrentRole: "member"}
	token := signSession(t, km, session)

	var seen authsdk.SessionClaims
	h := httpx.AuthnMiddleware(km.Verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httpx.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: authsdk.SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "u1", seen.UserID)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), authsdk.ErrorCodeNotAuthenticated)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: issuer})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signSession(t, other, session))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorize(t *testing.T) {
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: issuer})
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	kitchenOnly := httpx.Authorize(func(_ context.Context, s *authsdk.SessionClaims) error {
		if !s.Permissions.Has(authsdk.PermKitchenManage) {
			return errors.New("nope")
		}
		return nil
	})
	h := httpx.Chain(ok, httpx.AuthnMiddleware(km.Verifier), kitchenOnly)

	call := func(s authsdk.SessionClaims) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signSession(t, km, s))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	member := authsdk.SessionClaims{UserID: "u1", CurrentRole: "member", Permissions: authsdk.PermissionSet{CanVote: true}}
	admin := authsdk.SessionClaims{UserID: "u2", CurrentRole: "admin", Permissions: authsdk.PermissionSet{IsAdmin: true}}

	rec := call(member)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), authsdk.ErrorCodeForbidden)
	require.Equal(t, http.StatusOK, call(admin).Code)

	// Without authn in front the gate answers 401 and never runs the check.
	ran := false
	gate := httpx.Authorize(func(context.Context, *authsdk.SessionClaims) error { ran = true; return nil })
	rec = httptest.NewRecorder()
	gate(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, ran)
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.SetSessionCookies(rec, httpx.CookieOptions{Secure: true}, "tok", "acme", time.Now().Add(24*time.Hour))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}

	session := byName[authsdk.SessionCookieName]
	require.NotNil(t, session)
	require.Equal(t, "tok", session.Value)
	require.True(t, session.HttpOnly)
	require.True(t, session.Secure)
	require.Equal(t, http.SameSiteLaxMode, session.SameSite)
	require.Equal(t, "/", session.Path)
	require.InDelta(t, 24*3600, session.MaxAge, 5)

	tenant := byName[authsdk.TenantCookieName]
	require.NotNil(t, tenant)
	require.Equal(t, "acme", tenant.Value)
	require.False(t, tenant.HttpOnly)

	cleared := httptest.NewRecorder()
	httpx.ClearSessionCookies(cleared, httpx.CookieOptions{})
	for _, c := range cleared.Result().Cookies() {
		require.Empty(t, c.Value)
		require.True(t, c.MaxAge < 0)
	}
	require.True(t, strings.Contains(cleared.Header().Values("Set-Cookie")[0], "Max-Age=0"))
}
