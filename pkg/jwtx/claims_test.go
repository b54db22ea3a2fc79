package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "https://auth.mealvote.example"

func TestNewSessionClaims(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	session := authsdk.SessionClaims{UserID: "u1", Username: "0912345678", CurrentTenant: "acme"}

	c := jwtx.NewSessionClaims(session, time.Hour, exampleIssuer, []string{"mealvote"}, now)
	require.Equal(t, "u1", c.Subject)
	require.Equal(t, exampleIssuer, c.Issuer)
	require.Equal(t, now.Add(time.Hour), c.Expiry())
	require.NotEmpty(t, c.ID)
	require.Equal(t, session, c.SessionClaims)

	other := jwtx.NewSessionClaims(session, time.Hour, exampleIssuer, nil, now)
	require.NotEqual(t, c.ID, other.ID)
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "auth-service",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("auth-service"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("menu-service"), jwtx.ErrIssuer)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: []string{"voting", "kitchen"},
		},
	}

	t.Run("contains match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"voting"}))
	})

	t.Run("multiple match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"foo", "kitchen"}))
	})

	t.Run("no match", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateAudience([]string{"admin"}), jwtx.ErrAudience)
	})

	t.Run("empty expected list", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.NoError(t, claims.ValidateExpiry())
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		}}
		require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrNotYetValid)
	})

	t.Run("no exp or nbf", func(t *testing.T) {
		require.NoError(t, (&jwtx.Claims{}).ValidateExpiry())
	})

	t.Run("within leeway", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		}}
		require.NoError(t, claims.ValidateExpiryAt(now, 30*time.Second))
		require.ErrorIs(t, claims.ValidateExpiryAt(now.Add(time.Minute), 30*time.Second), jwtx.ErrExpired)
	})
}
