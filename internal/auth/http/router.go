package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"

	_ "github.com/aussiebroadwan/mealvote/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-route throttling profiles.
type RateLimits struct {
	Login   httpx.RateLimitConfig `koanf:"login"`
	Session httpx.RateLimitConfig `koanf:"session"`
	Public  httpx.RateLimitConfig `koanf:"public"`
}

var DefaultRateLimits = RateLimits{
	Login:   httpx.LoginLimit,
	Session: httpx.SessionLimit,
	Public:  httpx.PublicLimit,
}

// Validate checks every profile.
func (l RateLimits) Validate() error {
	for _, c := range []httpx.RateLimitConfig{l.Login, l.Session, l.Public} {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Router owns the mux and the dependencies the handlers share. Set the
// exported fields, then call ApplyRoutes once before serving.
type Router struct {
	Mux *http.ServeMux

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	handler      http.Handler

	Gateway *service.AuthGateway
	Health  *store.Health
	Metrics *metrics.Metrics // optional
	Cookies httpx.CookieOptions
	Limits  RateLimits
}

func NewRouter(keys *jwtx.KeySet, buildVersion string, logger *slog.Logger) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Limits:       DefaultRateLimits,
	}
}

// route is one mux entry; mws run outermost first.
type route struct {
	pattern string
	handler http.Handler
	mws     []httpx.Middleware
}

func (r *Router) routes() []route {
	session := &SessionHandler{Gateway: r.Gateway, Cookies: r.Cookies}
	security := &SecurityHandler{Gateway: r.Gateway}

	authn := httpx.AuthnMiddleware(r.Gateway.Sessions)
	admin := httpx.Authorize(func(ctx context.Context, c *authsdk.SessionClaims) error {
		return r.Gateway.Permissions.Authorize(ctx, c, authsdk.PermIsAdmin)
	})
	perUser := httpx.RateLimitByUser(r.Limits.Session)
	public := httpx.RateLimitByIP(r.Limits.Public)

	return []route{
		// Keyed by address and identity so one NAT does not throttle a whole school.
		{"POST /v1/auth/login", http.HandlerFunc(session.HandleLogin),
			[]httpx.Middleware{httpx.RateLimitByIPAndJSONField(r.Limits.Login, "identityNumber")}},
		{"POST /v1/auth/logout", http.HandlerFunc(session.HandleLogout),
			[]httpx.Middleware{httpx.RateLimitByIP(r.Limits.Session)}},
		{"GET /v1/auth/session", http.HandlerFunc(session.HandleSession),
			[]httpx.Middleware{authn, perUser}},
		{"POST /v1/auth/switch-tenant", http.HandlerFunc(session.HandleSwitchTenant),
			[]httpx.Middleware{authn, perUser}},

		// The gateway decides per target tenant; admin only filters early.
		{"POST /v1/security/unlock", http.HandlerFunc(security.HandleUnlock),
			[]httpx.Middleware{authn, admin, httpx.RateLimitByUser(r.Limits.Login)}},
		{"GET /v1/security/bruteforce", http.HandlerFunc(security.HandleBruteForce),
			[]httpx.Middleware{authn, admin, perUser}},

		{"GET /v1/tenants/{slug}", &TenantHandler{Tenants: r.Gateway.Tenants},
			[]httpx.Middleware{public}},

		{"GET /livez", LivezHandler(r.startTime, r.buildVersion), []httpx.Middleware{public}},
		{"GET /readyz", ReadyzHandler(r.Health, r.keys), []httpx.Middleware{public}},
		{"GET /.well-known/jwks.json", JWKSHandler(r.keys), []httpx.Middleware{public}},
		{"GET /metrics", r.Metrics.Handler(), nil},
		{"/swagger/", httpSwagger.Handler(), nil},
	}
}

// ApplyRoutes registers every route and builds the served handler. Metrics
// sit inside the logging middleware and wrap the mux, so they see the
// matched pattern.
func (r *Router) ApplyRoutes() {
	for _, rt := range r.routes() {
		r.Mux.Handle(rt.pattern, httpx.Chain(rt.handler, rt.mws...))
	}
	r.handler = httpx.Chain(r.Metrics.Instrument(r.Mux), slogx.HTTPMiddleware(r.logger))
}

// ServeHTTP serves the handler built by ApplyRoutes.
//
//	@title			MealVote Authentication Service API
//	@version		0.1.0
//	@description	Multi-tenant login, tenant switching and login-security tooling for MealVote.
//	@description
//	@description				Sessions are EdDSA-signed JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/mealvote
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						mv_session
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
