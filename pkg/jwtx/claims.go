package jwtx

import (
	"slices"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/authsdk"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are session-token claims: the registered JWT claims plus the
// MealVote session identity, flattened into one JSON object.
type Claims struct {
	jwt.RegisteredClaims
	authsdk.SessionClaims
}

// NewSessionClaims builds claims for session with the subject set to the
// user id and an expiry ttl after now.
func NewSessionClaims(
	session authsdk.SessionClaims,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.UserID,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SessionClaims: session,
	}
}

// NewJTI returns a random identifier for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// Expiry returns the expiry time, or the zero time when unset.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryAt ensures the token hasn't expired (exp) and isn't used
// before nbf, measured at now with leeway for clock skew.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiry is ValidateExpiryAt with the current time and no leeway.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now().UTC(), 0)
}
