package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/mealvote/pkg/cryptox"
)

// AlgorithmEdDSA is the only algorithm sessions are signed with.
const AlgorithmEdDSA = "EdDSA"

// KeyManager wires a signing key, the KeySet publishing its public half and
// a verifier trusting that KeySet.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier
	KeySet   *KeySet
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// PrivateKeyPEM is a PKCS8 Ed25519 key. Empty generates an ephemeral key
	// that only lives as long as the process.
	PrivateKeyPEM []byte

	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// Audience is the list of audience values (aud) that will be validated.
	// Empty slice means no audience validation.
	Audience []string

	// Leeway tolerates clock skew between services.
	Leeway time.Duration

	// Now overrides the verifier clock, mostly for tests.
	Now func() time.Time
}

// NewKeyManager builds a KeyManager around the configured key.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	pemKey := opts.PrivateKeyPEM
	if len(pemKey) == 0 {
		var err error
		if pemKey, err = cryptox.GenerateEd25519Key(); err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate ephemeral key: %w", err)
		}
	}

	signer, err := NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, err
	}
	if err := signer.Validate(); err != nil {
		return nil, err
	}

	keyset := NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}

	return &KeyManager{
		Signer: signer,
		Verifier: NewVerifierEdDSA(keyset, VerifyOptions{
			Issuer:   opts.Issuer,
			Audience: opts.Audience,
			Leeway:   opts.Leeway,
			Now:      opts.Now,
		}),
		KeySet: keyset,
	}, nil
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.Signer.Alg()
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}
