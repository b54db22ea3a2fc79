package auth_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/internal/auth/app"
	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/cryptox"
	"github.com/aussiebroadwan/mealvote/pkg/idx"
	"github.com/stretchr/testify/require"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * The whole application runs in-process behind an httptest server, with a
 * fresh sqlite file, pepper and signing key per test.
 */

const (
	masterIdentity = "root"
	masterPassword = "Master123!"

	adminIdentity   = "3001"
	kitchenIdentity = "4001"
	memberIdentity  = "1001"
	userPassword    = "Student123!"
)

type authServer struct {
	URL    string
	Client *authsdk.SDKClient
	Store  store.Store

	hasher cryptox.Hasher
}

// setupAuthServer starts the service and returns a client for it. Options
// adjust the config before the application is built.
func setupAuthServer(t *testing.T, opts ...func(*app.Config)) *authServer {
	t.Helper()

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Env = "test"
	cfg.Log.Level = "error"
	cfg.Store.DSN = filepath.Join(dir, "auth.db")
	cfg.Auth.PepperFile = filepath.Join(dir, "pepper")
	cfg.Auth.SigningKeyFile = filepath.Join(dir, "signing.pem")
	cfg.Master.Identity = masterIdentity
	cfg.Master.Password = masterPassword
	for _, opt := range opts {
		opt(cfg)
	}

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = application.Close()
	})

	// Same file the service read, so seeded hashes verify.
	pepper, err := cryptox.LoadOrCreatePepper(cfg.Auth.PepperFile)
	require.NoError(t, err)

	return &authServer{
		URL:    srv.URL,
		Client: authsdk.NewSDKClient(srv.URL),
		Store:  application.Store(),
		hasher: cryptox.Hasher{Pepper: pepper},
	}
}

// seedSchool creates a tenant with an admin, a kitchen operator and a member.
func (s *authServer) seedSchool(t *testing.T, slug string) {
	t.Helper()
	s.seedTenant(t, slug, nil)
	s.seedUser(t, slug, adminIdentity, domain.RoleAdmin)
	s.seedUser(t, slug, kitchenIdentity, domain.RoleKitchen)
	s.seedUser(t, slug, memberIdentity, domain.RoleMember)
}

func (s *authServer) seedTenant(t *testing.T, slug string, m *domain.Maintenance) {
	t.Helper()
	now := time.Now().UTC()
	err := s.Store.Tenants().Create(context.Background(), domain.Tenant{
		Slug:        slug,
		TenantID:    "tenant-" + slug,
		Name:        "Kantin " + slug,
		Status:      domain.TenantActive,
		Maintenance: m,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
}

func (s *authServer) seedUser(t *testing.T, slug, identity, role string) {
	t.Helper()
	hash, err := s.hasher.Hash(userPassword)
	require.NoError(t, err)

	now := time.Now().UTC()
	err = s.Store.Users().Create(context.Background(), domain.User{
		ID:             idx.New().String(),
		TenantID:       "tenant-" + slug,
		IdentityNumber: identity,
		FullName:       "User " + identity,
		PasswordHash:   hash,
		IsActive:       true,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
}

// login performs a login that is expected to succeed.
func (s *authServer) login(t *testing.T, identity, password, slug string) *authsdk.Session {
	t.Helper()
	session, err := s.Client.Login(t.Context(), authsdk.LoginRequest{
		IdentityNumber: identity,
		Password:       password,
		TenantSlug:     slug,
	})
	require.NoError(t, err, "login of %s in %q", identity, slug)
	return session
}

// attempt performs a login and returns only the error.
func (s *authServer) attempt(t *testing.T, identity, password, slug string) error {
	t.Helper()
	_, err := s.Client.Login(t.Context(), authsdk.LoginRequest{
		IdentityNumber: identity,
		Password:       password,
		TenantSlug:     slug,
	})
	return err
}

// assertAPIError checks that err is the API error want, returning it for
// further inspection.
func assertAPIError(t *testing.T, err error, want *authsdk.APIError) *authsdk.APIError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, want)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, want.StatusCode, apiErr.StatusCode)
	return apiErr
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
