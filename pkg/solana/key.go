package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// PublicKeyFromString decodes a base58 encoded 32 byte public key.
func PublicKeyFromString(s string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base58 public key %q", s)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid public key length: got %d, want %d", len(decoded), ed25519.PublicKeySize)
	}
	return decoded, nil
}

// MustPublicKeyFromString is PublicKeyFromString for well-known addresses and
// panics on invalid input.
func MustPublicKeyFromString(s string) ed25519.PublicKey {
	pub, err := PublicKeyFromString(s)
	if err != nil {
		panic(err)
	}
	return pub
}

// KeyString renders a public key as base58.
func KeyString(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}
