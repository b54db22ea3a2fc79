package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Session is an authenticated handle on the auth service. It is safe for
// concurrent use.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	claims    SessionClaims
	expiresAt time.Time
	login     LoginResponse
}

// Token returns the current session token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Claims returns the claims last seen for this session.
func (s *Session) Claims() SessionClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}

// ExpiresAt returns when the session token expires.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Login returns the response of the login that created this session. It is
// the zero value for sessions built with NewSessionFromToken.
func (s *Session) Login() LoginResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.login
}

// Refresh fetches the claims of the current token from the server.
func (s *Session) Refresh(ctx context.Context) (SessionClaims, error) {
	resp, err := s.send(ctx, http.MethodGet, "/v1/auth/session", nil)
	if err != nil {
		return SessionClaims{}, err
	}

	var out SessionResponse
	if err := readJSON(resp, &out); err != nil {
		return SessionClaims{}, err
	}

	s.mu.Lock()
	s.claims = out.User
	s.expiresAt = out.ExpiresAt
	s.mu.Unlock()

	return out.User, nil
}

// SwitchTenant moves the session to another tenant the identity belongs to.
// The server reissues the token; the Session picks up the new one.
func (s *Session) SwitchTenant(ctx context.Context, tenantSlug string) (SessionClaims, error) {
	resp, err := s.send(ctx, http.MethodPost, "/v1/auth/switch-tenant", SwitchTenantRequest{TenantSlug: tenantSlug})
	if err != nil {
		return SessionClaims{}, err
	}
	cookies := resp.Cookies()

	var out SwitchTenantResponse
	if err := readJSON(resp, &out); err != nil {
		return SessionClaims{}, err
	}

	s.mu.Lock()
	if token := cookieValue(cookies, SessionCookieName); token != "" {
		s.token = token
	}
	s.claims = out.User
	s.expiresAt = out.ExpiresAt
	s.mu.Unlock()

	return out.User, nil
}

// Unlock clears a login lock. Requires an operator session.
func (s *Session) Unlock(ctx context.Context, req UnlockRequest) (*UnlockResponse, error) {
	resp, err := s.send(ctx, http.MethodPost, "/v1/security/unlock", req)
	if err != nil {
		return nil, err
	}

	var out UnlockResponse
	if err := readJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BruteForce fetches the brute-force report. rangeName is one of "24h",
// "7d" or "30d"; tenantSlug narrows the report for master sessions.
func (s *Session) BruteForce(ctx context.Context, rangeName, tenantSlug string) (*BruteForceReport, error) {
	q := url.Values{}
	if rangeName != "" {
		q.Set("range", rangeName)
	}
	if tenantSlug != "" {
		q.Set("tenant", tenantSlug)
	}
	path := "/v1/security/bruteforce"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out BruteForceReport
	if err := readJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the session cookies server side. The local token is
// forgotten even when the request fails.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.send(ctx, http.MethodPost, "/v1/auth/logout", nil)

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return expectNoContent(resp)
}
