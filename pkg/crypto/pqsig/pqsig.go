// Package pqsig wraps a post-quantum signature scheme (CIRCL's Dilithium2).
// pkg/keys derives a wallet's signature key pair with it; SCP envelopes
// (pkg/scpmsg) are signed with Ed25519 alone and carry no pqsig signature.
package pqsig

import (
	"errors"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"
)

// SchemeName selects Dilithium2 (NIST security level 2), CIRCL's round-3
// Dilithium parameter set.
const SchemeName = "Dilithium2"

var scheme = schemes.ByName(SchemeName)

// ErrSchemeUnavailable mirrors pqkem's guard for an unregistered scheme name.
var ErrSchemeUnavailable = errors.New("pqsig: scheme not available")

// PublicKey and PrivateKey are opaque CIRCL signature keys.
type PublicKey struct{ inner sign.PublicKey }
type PrivateKey struct{ inner sign.PrivateKey }

// GenerateKeyPair produces a fresh Dilithium2 key pair.
func GenerateKeyPair() (*PublicKey, *PrivateKey, error) {
	if scheme == nil {
		return nil, nil, ErrSchemeUnavailable
	}
	pk, sk, err := scheme.GenerateKey()
	if err != nil {
		return nil, nil, err
	}
	return &PublicKey{inner: pk}, &PrivateKey{inner: sk}, nil
}

// DeriveKeyPair deterministically derives a key pair from a caller-supplied
// seed (exactly scheme.SeedSize() bytes), so a wallet's post-quantum
// identity key can be reconstructed from its mnemonic.
func DeriveKeyPair(seed []byte) (*PublicKey, *PrivateKey, error) {
	if scheme == nil {
		return nil, nil, ErrSchemeUnavailable
	}
	pk, sk := scheme.DeriveKey(seed)
	return &PublicKey{inner: pk}, &PrivateKey{inner: sk}, nil
}

// SeedSize reports the seed length DeriveKeyPair expects.
func SeedSize() int {
	if scheme == nil {
		return 0
	}
	return scheme.SeedSize()
}

// Sign produces a detached signature over msg.
func Sign(priv *PrivateKey, msg []byte) []byte {
	return scheme.Sign(priv.inner, msg, nil)
}

// Verify reports whether sig is a valid Dilithium2 signature over msg under
// pub.
func Verify(pub *PublicKey, msg, sig []byte) bool {
	if scheme == nil {
		return false
	}
	return scheme.Verify(pub.inner, msg, sig, nil)
}

// MarshalBinary encodes the public key for inclusion in a node's identity
// announcement.
func (p *PublicKey) MarshalBinary() ([]byte, error) {
	return p.inner.MarshalBinary()
}

// PublicKeyFromBytes decodes a public key previously produced by
// MarshalBinary.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if scheme == nil {
		return nil, ErrSchemeUnavailable
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{inner: pk}, nil
}

// MarshalBinary encodes the private key. Callers must wrap the result in a
// secretbox.Secret once decoded.
func (p *PrivateKey) MarshalBinary() ([]byte, error) {
	return p.inner.MarshalBinary()
}

// PrivateKeyFromBytes decodes a private key previously produced by
// MarshalBinary.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if scheme == nil {
		return nil, ErrSchemeUnavailable
	}
	sk, err := scheme.UnmarshalBinaryPrivateKey(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{inner: sk}, nil
}
