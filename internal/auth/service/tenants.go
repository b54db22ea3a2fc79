package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

const (
	DefaultTenantSlug   = "default-tenant"
	DefaultPlatformName = "MealVote"
	maxSlugLength       = 40
)

// SanitizeSlug lowercases raw, drops everything outside [a-z0-9-] and caps
// the length. An empty result becomes fallback.
func SanitizeSlug(raw, fallback string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if b.Len() == maxSlugLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// TenantContext is a resolved tenant. When the record could not be read the
// tenant is synthesized from the slug.
type TenantContext struct {
	Tenant domain.Tenant

	// Found is false for synthesized tenants.
	Found bool

	// Degraded is set when the store could not be asked at all.
	Degraded bool
}

type TenantService struct {
	Store   store.Store
	Health  *store.Health // optional
	Metrics *metrics.Metrics

	DefaultSlug  string
	PlatformName string
}

func (s *TenantService) defaultSlug() string {
	if s.DefaultSlug == "" {
		return DefaultTenantSlug
	}
	return s.DefaultSlug
}

// Sanitize normalizes raw with this service's default slug.
func (s *TenantService) Sanitize(raw string) string {
	return SanitizeSlug(raw, s.defaultSlug())
}

// Resolve never fails. A missing tenant or an unreachable store yields a
// tenant whose id and name are the slug itself.
func (s *TenantService) Resolve(ctx context.Context, rawSlug string) TenantContext {
	slug := s.Sanitize(rawSlug)
	l := slogx.FromContext(ctx)

	if s.Health != nil && !s.Health.Available(ctx) {
		s.Metrics.Degraded("tenant_resolve")
		l.Warn("store unavailable, synthesizing tenant", "tenant", slug)
		return TenantContext{Tenant: s.synthesize(slug), Degraded: true}
	}

	t, err := s.Store.Tenants().GetBySlug(ctx, slug)
	switch {
	case err == nil:
		return TenantContext{Tenant: t, Found: true}
	case errors.Is(err, store.ErrNotFound):
		return TenantContext{Tenant: s.synthesize(slug)}
	default:
		s.Metrics.Degraded("tenant_resolve")
		l.Warn("tenant lookup failed, synthesizing tenant", "tenant", slug, "error", err)
		return TenantContext{Tenant: s.synthesize(slug), Degraded: true}
	}
}

func (s *TenantService) synthesize(slug string) domain.Tenant {
	name := slug
	if slug == s.defaultSlug() {
		name = s.PlatformName
		if name == "" {
			name = DefaultPlatformName
		}
	}
	return domain.Tenant{
		Slug:     slug,
		TenantID: slug,
		Name:     name,
		Status:   domain.TenantActive,
	}
}
