// Package pqkem wraps a post-quantum key encapsulation mechanism (CIRCL's
// Kyber768, the round-3 Kyber parameter set at the 768 level). pkg/keys
// derives a wallet's KEM key pair with it; no transport code in this
// repository performs a KEM exchange.
package pqkem

import (
	"crypto/rand"
	"errors"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/schemes"
)

// SchemeName is the CIRCL scheme identifier this package wraps. Kyber768 targets NIST security level 3, matching the 128-bit
// classical strength botho's other primitives are built to.
const SchemeName = "Kyber768"

var scheme = schemes.ByName(SchemeName)

// ErrSchemeUnavailable is returned if the requested KEM is not registered in
// this CIRCL build (it always is for Kyber768, but callers that parameterize
// SchemeName should still handle this).
var ErrSchemeUnavailable = errors.New("pqkem: scheme not available")

// PublicKey and PrivateKey are opaque CIRCL KEM keys, serialized with
// MarshalBinary for storage and wire transport.
type PublicKey struct{ inner kem.PublicKey }
type PrivateKey struct{ inner kem.PrivateKey }

// GenerateKeyPair produces a fresh Kyber768 key pair.
func GenerateKeyPair() (*PublicKey, *PrivateKey, error) {
	if scheme == nil {
		return nil, nil, ErrSchemeUnavailable
	}
	pk, sk, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	return &PublicKey{inner: pk}, &PrivateKey{inner: sk}, nil
}

// DeriveKeyPair deterministically derives a key pair from a caller-supplied
// seed (exactly scheme.SeedSize() bytes), used so a wallet's post-quantum
// transport identity can be reconstructed from its mnemonic rather than
// stored separately.
func DeriveKeyPair(seed []byte) (*PublicKey, *PrivateKey, error) {
	if scheme == nil {
		return nil, nil, ErrSchemeUnavailable
	}
	pk, sk := scheme.DeriveKeyPair(seed)
	return &PublicKey{inner: pk}, &PrivateKey{inner: sk}, nil
}

// SeedSize reports the seed length DeriveKeyPair expects.
func SeedSize() int {
	if scheme == nil {
		return 0
	}
	return scheme.SeedSize()
}

// Encapsulate generates a fresh shared secret and the ciphertext that
// delivers it to the holder of pub's matching private key.
func Encapsulate(pub *PublicKey) (ciphertext, sharedSecret []byte, err error) {
	if scheme == nil {
		return nil, nil, ErrSchemeUnavailable
	}
	ct := make([]byte, scheme.CiphertextSize())
	ss := make([]byte, scheme.SharedKeySize())
	seed := make([]byte, scheme.EncapsulationSeedSize())
	if _, err := rand.Read(seed); err != nil {
		return nil, nil, err
	}
	scheme.EncapsulateDeterministically(pub.inner, seed, ct, ss)
	return ct, ss, nil
}

// Decapsulate recovers the shared secret from a ciphertext addressed to priv.
func Decapsulate(priv *PrivateKey, ciphertext []byte) ([]byte, error) {
	if scheme == nil {
		return nil, ErrSchemeUnavailable
	}
	return scheme.Decapsulate(priv.inner, ciphertext)
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

// MarshalBinary encodes the private key for local encrypted storage. Callers
// must wrap the result in a secretbox.Secret rather than leaving it in a bare
// slice once decoded.
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
