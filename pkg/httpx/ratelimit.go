package httpx

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

// RateLimitConfig is one token bucket profile: RequestsPerWindow refill over
// Window, with up to Burst spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int           `koanf:"requests"`
	Window            time.Duration `koanf:"window"`
	Burst             int           `koanf:"burst"`
}

// Built-in profiles. Deployments override them under ratelimit.*.
var (
	// LoginLimit covers login and unlock. The account lockout still applies
	// underneath; this slows spraying many identities from one address.
	LoginLimit = RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	// SessionLimit covers authenticated session calls.
	SessionLimit = RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 30}

	// PublicLimit covers health, keys and tenant lookups.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func (c RateLimitConfig) Validate() error {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 || c.Burst <= 0 {
		return fmt.Errorf("httpx: rate limit needs positive requests, window and burst (got %d/%s burst %d)",
			c.RequestsPerWindow, c.Window, c.Burst)
	}
	return nil
}

func (c RateLimitConfig) limit() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

const sweepEvery = 5 * time.Minute

// Limiter holds one bucket per key. Buckets that have refilled completely
// carry no state worth keeping and are dropped on the next sweep.
type Limiter struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
}

func NewLimiter(cfg RateLimitConfig) *Limiter {
	return &Limiter{
		cfg:       cfg,
		buckets:   make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}
}

// Allow spends a token for key. When none is left it reports how long until
// the next one.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= sweepEvery {
		for k, b := range l.buckets {
			if b.TokensAt(now) >= float64(l.cfg.Burst) {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.cfg.limit(), l.cfg.Burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	if b.AllowN(now, 1) {
		return true, 0
	}
	res := b.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

// RateLimitMiddleware charges each request to the bucket keyExtractor picks.
// Throttled requests get 429 with Retry-After and the profile in
// X-RateLimit-Limit / X-RateLimit-Window.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	limiter := NewLimiter(config)
	limitHeader := strconv.Itoa(config.RequestsPerWindow)
	windowHeader := config.Window.String()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: request has no key, not throttled",
					"path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := limiter.Allow(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(wait.Round(time.Second)/time.Second), 1)
			h := w.Header()
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("X-RateLimit-Limit", limitHeader)
			h.Set("X-RateLimit-Window", windowHeader)

			slogx.FromContext(r.Context()).Warn("rate limited",
				"key", key,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)
			authsdk.ErrRateLimited.WriteError(w)
		})
	}
}

// RateLimitByIP keys on the client address alone.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByUser keys on session user and address. Anonymous callers fall
// back to the address.
func RateLimitByUser(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndJSONField keys on address plus a body field, so one address
// gets a separate budget per identity it tries.
func RateLimitByIPAndJSONField(config RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":", IPKeyExtractor, JSONFieldKeyExtractor(fieldName)))
}
