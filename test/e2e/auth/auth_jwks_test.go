package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func fetchJWKS(t *testing.T, baseURL string) jwtx.JWKS {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/.well-known/jwks.json", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jwks jwtx.JWKS
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
	return jwks
}

// TestJWKSVerifiesIssuedSession checks that a session token issued at login
// verifies against nothing but the published key set.
func TestJWKSVerifiesIssuedSession(t *testing.T) {
	s := setupAuthServer(t)
	s.seedSchool(t, "sman1")

	jwks := fetchJWKS(t, s.URL)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "EdDSA", jwks.Keys[0].Alg)
	require.NotEmpty(t, jwks.Keys[0].Kid)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.ResetFromJWKS(jwks))
	verifier := jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{Issuer: "mealvote-auth"})

	session := s.login(t, memberIdentity, userPassword, "sman1")
	claims, err := verifier.Verify(session.Token())
	require.NoError(t, err)
	require.Equal(t, session.Claims().UserID, claims.Subject)
	require.Equal(t, "sman1", claims.CurrentTenant)
	require.True(t, claims.Permissions.CanVote)

	t.Logf("session for %s verified with kid %s", claims.Username, jwks.Keys[0].Kid)
}
