package jwtx

import (
	"crypto/ed25519"
	"errors"
	"slices"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

type keyEntry struct {
	jwk JWK
	pub ed25519.PublicKey
}

// KeySet is the set of keys sessions are verified against. The auth service
// publishes it as JWKS; other services rebuild it from that document.
type KeySet struct {
	mu   sync.RWMutex
	keys []keyEntry // publication order
}

func NewKeySet() *KeySet { return &KeySet{} }

func (k *KeySet) AddSigner(s Signer) error { return k.AddJWK(s.PublicJWK()) }

// AddJWK adds j, replacing any key published under the same kid.
func (k *KeySet) AddJWK(j JWK) error {
	pub, err := j.PublicKey()
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if i := k.index(j.Kid); i >= 0 {
		k.keys[i] = keyEntry{jwk: j, pub: pub}
		return nil
	}
	k.keys = append(k.keys, keyEntry{jwk: j, pub: pub})
	return nil
}

func (k *KeySet) index(kid string) int {
	return slices.IndexFunc(k.keys, func(e keyEntry) bool { return e.jwk.Kid == kid })
}

func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if i := k.index(kid); i >= 0 {
		return k.keys[i].pub, nil
	}
	return nil, ErrNoKey
}

// PublicJWKS is a copy safe to serialize while keys change.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := JWKS{Keys: make([]JWK, 0, len(k.keys))}
	for _, e := range k.keys {
		out.Keys = append(out.Keys, e.jwk)
	}
	return out
}

func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}

// ResetFromJWKS swaps in a fetched document. Nothing changes if any key is
// malformed.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	keys := make([]keyEntry, 0, len(jwks.Keys))
	for _, j := range jwks.Keys {
		pub, err := j.PublicKey()
		if err != nil {
			return err
		}
		keys = append(keys, keyEntry{jwk: j, pub: pub})
	}

	k.mu.Lock()
	k.keys = keys
	k.mu.Unlock()
	return nil
}
