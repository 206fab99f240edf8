// Package keys implements wallet key derivation: a BIP-39 mnemonic seeds a
// SLIP-10-style hardened derivation tree, whose leaf seeds HKDF-SHA512 into
// domain-separated view, spend, and post-quantum identity scalars.
package keys

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"io"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"

	"github.com/botho-project/botho/pkg/curve"
)

// BothoCoinType is the (unregistered, private-use) SLIP-44 coin type botho
// derives wallet keys under.
const BothoCoinType = 866

// PurposeIndex fixes the BIP-43 purpose field for botho's derivation path.
const PurposeIndex = 44

// ErrWeakEntropy is returned when GenerateMnemonic is asked for fewer bits
// of entropy than BIP-39 supports safely.
var ErrWeakEntropy = errors.New("keys: mnemonic entropy must be at least 128 bits")

// ErrInvalidMnemonic is returned when a wallet is derived from a mnemonic
// that fails the BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("keys: invalid BIP-39 mnemonic")

// ErrMalformedAddress is returned when decoding a botho address whose byte
// encoding is the wrong length or fails point validation.
var ErrMalformedAddress = errors.New("keys: malformed address encoding")

// GenerateMnemonic returns a fresh BIP-39 mnemonic carrying entropyBits of
// randomness (128 for a 12-word phrase, 256 for 24 words).
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits < 128 {
		return "", ErrWeakEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic reports whether m is a well-formed BIP-39 phrase.
func ValidateMnemonic(m string) bool {
	return bip39.IsMnemonicValid(m)
}

type chainNode struct {
	key       [32]byte
	chainCode [32]byte
}

func slip10Master(seed []byte) chainNode {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)
	var n chainNode
	copy(n.key[:], sum[:32])
	copy(n.chainCode[:], sum[32:])
	return n
}

// deriveHardened computes the SLIP-10 ed25519 hardened child at index;
// ed25519 curve derivation is hardened-only, so the caller never supplies a
// non-hardened index.
func (n chainNode) deriveHardened(index uint32) chainNode {
	hardened := index | 0x80000000
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, n.key[:]...)
	var idxBuf [4]byte
	binary.BigEndian.PutUint32(idxBuf[:], hardened)
	data = append(data, idxBuf[:]...)

	mac := hmac.New(sha512.New, n.chainCode[:])
	mac.Write(data)
	sum := mac.Sum(nil)

	var out chainNode
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:])
	return out
}

// accountNode derives m/44'/866'/account' from a BIP-39 seed.
func accountNode(seed []byte, account uint32) chainNode {
	n := slip10Master(seed)
	n = n.deriveHardened(PurposeIndex)
	n = n.deriveHardened(BothoCoinType)
	n = n.deriveHardened(account)
	return n
}

// roleScalar expands an account node's key into a uniform curve scalar for a
// single domain-separated role ("view" or "spend"), via HKDF-SHA512 so that
// compromising one role's scalar leaks nothing about any other role's, even
// though every role descends from the same chain node. The post-quantum
// roles ("pq-kem", "pq-sig") take byte seeds from roleSeed instead.
func roleScalar(n chainNode, role string) (*curve.Scalar, error) {
	kdf := hkdf.New(sha512.New, n.key[:], n.chainCode[:], []byte("botho-keys-"+role))
	wide := make([]byte, 64)
	if _, err := io.ReadFull(kdf, wide); err != nil {
		return nil, err
	}
	return curve.ScalarFromWide(wide), nil
}

// roleSeed expands an account node into length bytes of domain-separated key
// material for roles that are not curve scalars (e.g. the post-quantum
// signature/KEM seeds, each of which has its own CIRCL-defined seed size).
func roleSeed(n chainNode, role string, length int) ([]byte, error) {
	kdf := hkdf.New(sha512.New, n.key[:], n.chainCode[:], []byte("botho-keys-"+role))
	seed := make([]byte, length)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return nil, err
	}
	return seed, nil
}
