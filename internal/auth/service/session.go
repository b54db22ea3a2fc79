package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
)

const (
	MasterSessionTTL = 24 * time.Hour
	UserSessionTTL   = 7 * 24 * time.Hour
)

// IssuedSession is a signed token and the claims inside it.
type IssuedSession struct {
	Token     string
	Claims    authsdk.SessionClaims
	ExpiresAt time.Time
}

type SessionIssuer struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	Now        func() time.Time
}

// TTL is the lifetime of a session for the identity class.
func (s *SessionIssuer) TTL(isMaster bool) time.Duration {
	if isMaster {
		return MasterSessionTTL
	}
	return UserSessionTTL
}

// Issue signs claims. Master sessions live a day, everyone else a week.
func (s *SessionIssuer) Issue(claims authsdk.SessionClaims) (IssuedSession, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	c := jwtx.NewSessionClaims(claims, s.TTL(claims.IsMaster), s.Issuer, s.Audience, now)
	token, err := s.KeyManager.Signer.Sign(c)
	if err != nil {
		return IssuedSession{}, fmt.Errorf("sign session: %w", err)
	}
	return IssuedSession{Token: token, Claims: claims, ExpiresAt: c.Expiry()}, nil
}

// Verify checks signature, issuer and expiry. Every failure is reported as
// ErrInvalidSession.
func (s *SessionIssuer) Verify(token string) (jwtx.Claims, error) {
	if token == "" {
		return jwtx.Claims{}, ErrInvalidSession
	}
	c, err := s.KeyManager.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return c, nil
}
