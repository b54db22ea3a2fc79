package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Log.Level = "error"
	cfg.Store.DSN = filepath.Join(dir, "auth.db")
	cfg.Auth.PepperFile = filepath.Join(dir, "pepper")
	cfg.Auth.SigningKeyFile = filepath.Join(dir, "signing.pem")
	cfg.Master.Identity = "root"
	cfg.Master.Password = "hunter2hunter2"
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mongo"

	_, err := New(context.Background(), cfg)
	require.ErrorContains(t, err, "store.driver")
}

func TestApplicationServesAndShutsDown(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json",
		strings.NewReader(`{"identityNumber":"root","password":"hunter2hunter2"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	app.monitor.Start()
	require.NoError(t, app.Shutdown())

	// The master login audit entry was flushed on shutdown.
	reopened, err := New(context.Background(), cfg)
	require.NoError(t, err)
	entries, err := reopened.Store().Audit().ListRecent(context.Background(), "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	require.NoError(t, reopened.Close())
}

func TestSigningKeySurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	second, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	require.Equal(t, first.keyManager.KeySet.PublicJWKS(), second.keyManager.KeySet.PublicJWKS())
}
