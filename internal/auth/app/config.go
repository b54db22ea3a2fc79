package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aussiebroadwan/mealvote/internal/auth/audit"
	httpapi "github.com/aussiebroadwan/mealvote/internal/auth/http"
	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
)

// EnvPrefix prefixes every environment override.
// MEALVOTE_SECURITY_LOCKDURATION -> security.lockduration
const EnvPrefix = "MEALVOTE_"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env      string                    `koanf:"env"`
	Server   ServerConfig              `koanf:"server"`
	Log      LogConfig                 `koanf:"log"`
	Auth     AuthConfig                `koanf:"auth"`
	Master   service.MasterCredentials `koanf:"master"`
	Tenant   TenantConfig              `koanf:"tenant"`
	Store    StoreConfig               `koanf:"store"`
	Security service.SecurityPolicy    `koanf:"security"`
	Cache    CacheConfig               `koanf:"cache"`
	Monitor  MonitorConfig             `koanf:"monitor"`
	Audit    audit.Config              `koanf:"audit"`
	Limits   httpapi.RateLimits        `koanf:"ratelimit"`
}

type ServerConfig struct {
	Port          int           `koanf:"port"`
	ShutdownGrace time.Duration `koanf:"shutdowngrace"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	Issuer string `koanf:"issuer"`

	// PepperFile holds the password pepper. Created on first start.
	PepperFile string `koanf:"pepperfile"`

	// SigningKeyFile holds the PKCS8 Ed25519 session key. Empty generates an
	// ephemeral key, so sessions do not survive a restart.
	SigningKeyFile string `koanf:"signingkeyfile"`

	CookieSecure bool   `koanf:"cookiesecure"`
	CookieDomain string `koanf:"cookiedomain"`
}

type TenantConfig struct {
	Default      string `koanf:"default"`
	Platform     string `koanf:"platform"`
	PlatformName string `koanf:"platformname"`
}

type StoreConfig struct {
	Driver   string              `koanf:"driver"`
	DSN      string              `koanf:"dsn"`
	Timeout  time.Duration       `koanf:"timeout"`
	Cooldown time.Duration       `koanf:"cooldown"`
	Pool     postgres.PoolConfig `koanf:"pool"`
}

type CacheConfig struct {
	RoleTTL time.Duration `koanf:"rolettl"`
}

type MonitorConfig struct {
	Interval time.Duration `koanf:"interval"`
}

func defaults() map[string]any {
	return map[string]any{
		"env":                  "dev",
		"server.port":          8080,
		"server.shutdowngrace": "10s",
		"log.level":            "info",
		"log.format":           "json",

		"auth.issuer":       "mealvote-auth",
		"auth.pepperfile":   "pepper",
		"auth.cookiesecure": false,

		"tenant.default":      service.DefaultTenantSlug,
		"tenant.platform":     service.DefaultPlatformTenant,
		"tenant.platformname": service.DefaultPlatformName,

		"store.driver":   DriverSQLite,
		"store.dsn":      "file:mealvote.db?_pragma=journal_mode(WAL)",
		"store.timeout":  "2s",
		"store.cooldown": "30s",

		"security.maxfailedattempts": service.DefaultSecurityPolicy.MaxFailedAttempts,
		"security.failedwindow":      service.DefaultSecurityPolicy.FailedWindow.String(),
		"security.lockduration":      service.DefaultSecurityPolicy.LockDuration.String(),

		"cache.rolettl":    service.DefaultRoleTTL.String(),
		"monitor.interval": "5m",

		"audit.buffersize":    1024,
		"audit.batchsize":     50,
		"audit.flushinterval": "500ms",

		"ratelimit.login.requests":   httpx.LoginLimit.RequestsPerWindow,
		"ratelimit.login.window":     httpx.LoginLimit.Window.String(),
		"ratelimit.login.burst":      httpx.LoginLimit.Burst,
		"ratelimit.session.requests": httpx.SessionLimit.RequestsPerWindow,
		"ratelimit.session.window":   httpx.SessionLimit.Window.String(),
		"ratelimit.session.burst":    httpx.SessionLimit.Burst,
		"ratelimit.public.requests":  httpx.PublicLimit.RequestsPerWindow,
		"ratelimit.public.window":    httpx.PublicLimit.Window.String(),
		"ratelimit.public.burst":     httpx.PublicLimit.Burst,
	}
}

// LoadConfig layers defaults, the optional YAML files and MEALVOTE_*
// environment variables, in that order.
func LoadConfig(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	for _, path := range configPaths {
		// Config files are optional
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			continue
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"_", ".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Auth.Issuer) == "" {
		errs = append(errs, errors.New("auth.issuer is required"))
	}
	if c.Auth.PepperFile == "" {
		errs = append(errs, errors.New("auth.pepperfile is required"))
	}
	if c.Master.Identity != "" && c.Master.Password == "" && c.Master.PasswordHash == "" {
		errs = append(errs, errors.New("master.identity is set without master.password or master.passwordhash"))
	}

	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for %s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of sqlite, postgres", c.Store.Driver))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Limits.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ratelimit: %w", err))
	}

	return errors.Join(errs...)
}
