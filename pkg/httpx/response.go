package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Every response carrying session state needs it.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// CookieOptions controls the attributes of the session cookies.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetSessionCookies hands the client the signed session token and the
// plain tenant marker, both scoped to the whole site.
func SetSessionCookies(w http.ResponseWriter, opts CookieOptions, token, tenantSlug string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.TenantCookieName,
		Value:    tenantSlug,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{authsdk.SessionCookieName, authsdk.TenantCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   opts.Domain,
			MaxAge:   -1,
			HttpOnly: name == authsdk.SessionCookieName,
			Secure:   opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
