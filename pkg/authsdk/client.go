package authsdk

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrNoSessionCookie is returned when a successful login response did not
// set the session cookie.
var ErrNoSessionCookie = errors.New("authsdk: response carried no session cookie")

// SDKClient is a client for the MealVote authentication service.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates with an identity number and password and returns a
// Session holding the issued token. The login response (maintenance notice,
// degraded flag) is available from Session.Login.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	resp, err := c.send(ctx, http.MethodPost, "/v1/auth/login", "", req)
	if err != nil {
		return nil, err
	}

	cookies := resp.Cookies()

	var login LoginResponse
	if err := readJSON(resp, &login); err != nil {
		return nil, err
	}

	token := cookieValue(cookies, SessionCookieName)
	if token == "" {
		return nil, ErrNoSessionCookie
	}

	return &Session{
		client:    c,
		token:     token,
		claims:    login.User,
		expiresAt: login.ExpiresAt,
		login:     login,
	}, nil
}

// NewSessionFromToken wraps an existing session token, e.g. one read from a
// browser cookie by another service. Claims are loaded lazily by Refresh.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, token: token}
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
