package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/mealvote/pkg/httpx"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func hit(h http.Handler, addr, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}
	req.RemoteAddr = addr + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func perMinute(n int) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute, Burst: n}
}

func TestLimiterAllow(t *testing.T) {
	l := httpx.NewLimiter(perMinute(2))

	for range 2 {
		ok, _ := l.Allow("a")
		require.True(t, ok)
	}
	ok, wait := l.Allow("a")
	require.False(t, ok)
	require.Greater(t, wait, time.Duration(0))
	require.LessOrEqual(t, wait, 30*time.Second)

	ok, _ = l.Allow("b")
	require.True(t, ok, "keys have separate buckets")
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("throttles after burst", func(t *testing.T) {
		h := httpx.RateLimitByIP(perMinute(3))(okHandler)
		for i := range 3 {
			require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1", "").Code, "request %d", i+1)
		}
		require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1", "").Code)
		require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.2", "").Code)
	})

	t.Run("unkeyed requests pass", func(t *testing.T) {
		none := func(*http.Request) string { return "" }
		h := httpx.RateLimitMiddleware(perMinute(1), none)(okHandler)
		for range 3 {
			require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1", "").Code)
		}
	})

	t.Run("identity gets its own budget", func(t *testing.T) {
		h := httpx.RateLimitByIPAndJSONField(perMinute(2), "identityNumber")(okHandler)
		alice := `{"identityNumber":"alice"}`

		require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1", alice).Code)
		require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1", alice).Code)
		require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1", alice).Code)
		require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1", `{"identityNumber":"bob"}`).Code)
	})

	t.Run("anonymous user falls back to address", func(t *testing.T) {
		h := httpx.RateLimitByUser(perMinute(1))(okHandler)
		require.Equal(t, http.StatusNoContent, hit(h, "10.0.0.1", "").Code)
		require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1", "").Code)
	})
}

func TestRateLimitResponse(t *testing.T) {
	h := httpx.RateLimitByIP(perMinute(1))(okHandler)
	hit(h, "10.0.0.1", "")
	rec := hit(h, "10.0.0.1", "")

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "rate_limited")
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))

	var secs int
	_, err := fmt.Sscan(rec.Header().Get("Retry-After"), &secs)
	require.NoError(t, err)
	require.GreaterOrEqual(t, secs, 1)
}

func TestRateLimitConfigValidate(t *testing.T) {
	for name, cfg := range map[string]httpx.RateLimitConfig{
		"login":   httpx.LoginLimit,
		"session": httpx.SessionLimit,
		"public":  httpx.PublicLimit,
	} {
		require.NoError(t, cfg.Validate(), name)
	}
	require.Less(t, httpx.LoginLimit.RequestsPerWindow, httpx.SessionLimit.RequestsPerWindow)
	require.Less(t, httpx.SessionLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)

	require.Error(t, httpx.RateLimitConfig{RequestsPerWindow: 1, Burst: 1}.Validate())
	require.Error(t, httpx.RateLimitConfig{}.Validate())
}

func BenchmarkRateLimitManyKeys(b *testing.B) {
	cfg := httpx.RateLimitConfig{RequestsPerWindow: 1 << 20, Window: time.Minute, Burst: 1000}
	h := httpx.RateLimitByIP(cfg)(okHandler)

	for i := 0; b.Loop(); i++ {
		hit(h, fmt.Sprintf("10.%d.%d.1", i%250, (i/250)%250), "")
	}
}
