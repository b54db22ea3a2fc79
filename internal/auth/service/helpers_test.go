package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/audit/audittest"
	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/internal/auth/store/storetest"
	"github.com/aussiebroadwan/mealvote/pkg/cryptox"
	"github.com/aussiebroadwan/mealvote/pkg/idx"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer         = "https://auth.mealvote.test"
	testMasterIdentity = "root"
	testMasterPassword = "correct horse battery staple"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	t       *testing.T
	store   *storetest.Store
	clock   *clock
	audit   *audittest.Memory
	hasher  cryptox.Hasher
	cache   *PermissionCache
	guard   *LoginSecurityGuard
	gateway *AuthGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := storetest.New(t)
	c := newClock()
	sink := &audittest.Memory{}
	hasher := cryptox.Hasher{Pepper: "test-pepper"}

	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Issuer: testIssuer, Now: c.Now})
	require.NoError(t, err)

	cache := NewPermissionCache(DefaultRoleTTL, c.Now)
	tenants := &TenantService{
		Store:        s,
		Health:       &store.Health{Pinger: s, Cooldown: time.Nanosecond},
		PlatformName: "MealVote",
	}
	guard := &LoginSecurityGuard{Store: s, Audit: sink, Policy: DefaultSecurityPolicy, Now: c.Now}

	gw := &AuthGateway{
		Store:       s,
		Tenants:     tenants,
		Permissions: &PermissionResolver{Store: s, Cache: cache},
		Security:    guard,
		Sessions:    &SessionIssuer{KeyManager: km, Issuer: testIssuer, Now: c.Now},
		Hasher:      hasher,
		Audit:       sink,
		Master:      MasterCredentials{Identity: testMasterIdentity, Password: testMasterPassword},
		Now:         c.Now,
	}

	return &fixture{
		t:       t,
		store:   s,
		clock:   c,
		audit:   sink,
		hasher:  hasher,
		cache:   cache,
		guard:   guard,
		gateway: gw,
	}
}

func (f *fixture) seedTenant(slug, tenantID string, m *domain.Maintenance) {
	f.t.Helper()
	now := f.clock.Now()
	require.NoError(f.t, f.store.Tenants().Create(context.Background(), domain.Tenant{
		Slug:        slug,
		TenantID:    tenantID,
		Name:        "Kantin " + slug,
		Status:      domain.TenantActive,
		Maintenance: m,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
}

func (f *fixture) seedUser(tenantID, identity, password, role string, mods ...func(*domain.User)) domain.User {
	f.t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(f.t, err)

	now := f.clock.Now()
	u := domain.User{
		ID:             idx.NewAt(now).String(),
		TenantID:       tenantID,
		IdentityNumber: identity,
		FullName:       "User " + identity,
		Email:          identity + "@example.com",
		PasswordHash:   hash,
		IsActive:       true,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, mod := range mods {
		mod(&u)
	}
	require.NoError(f.t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) seedRole(id, tenantID string, p domain.PermissionSet) domain.Role {
	f.t.Helper()
	now := f.clock.Now()
	r := domain.Role{ID: id, TenantID: tenantID, Name: id, Permissions: p, CreatedAt: now, UpdatedAt: now}
	require.NoError(f.t, f.store.Roles().Create(context.Background(), r))
	return r
}

// login runs the flow and waits for the background attempt writes.
func (f *fixture) login(identity, password, slug string) (LoginResult, error) {
	f.t.Helper()
	res, err := f.gateway.Login(context.Background(), LoginInput{
		IdentityNumber: identity,
		Password:       password,
		TenantSlug:     slug,
		IP:             "203.0.113.7",
	})
	f.guard.Wait()
	return res, err
}

// withHealthCooldown swaps in a health gate on the fixture clock that keeps
// the store marked down for d after one failed ping.
func (f *fixture) withHealthCooldown(d time.Duration) *store.Health {
	h := &store.Health{Pinger: f.store, Cooldown: d, Now: f.clock.Now}
	f.gateway.Tenants.Health = h
	return h
}

// blip fails exactly one ping, leaving the store itself healthy.
func (f *fixture) blip(h *store.Health) {
	f.t.Helper()
	f.store.SetDown(true)
	require.False(f.t, h.Available(context.Background()))
	f.store.SetDown(false)
}
