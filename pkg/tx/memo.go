package tx

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"io"

	"github.com/botho-project/botho/pkg/curve"
	"golang.org/x/crypto/hkdf"
)

// ErrMemoTooShort is returned when an encrypted memo is missing its IV
// prefix.
var ErrMemoTooShort = errors.New("tx: encrypted memo shorter than IV")

// memoKey derives a 32-byte AES-256 key from the stealth shared secret via
// HKDF-SHA512 under the "botho-memo" domain label, the same shared point
// both sender and recipient can independently recompute.
func memoKey(shared *curve.Point) []byte {
	r := hkdf.New(sha512.New, shared.Bytes(), nil, []byte("botho-memo"))
	out := make([]byte, 32)
	if _, err := io.ReadFull(r, out); err != nil {
		panic("tx: hkdf expansion failed: " + err.Error())
	}
	return out
}

// EncryptMemo encrypts plaintext under AES-256-CTR keyed by the stealth
// shared secret, prefixing the ciphertext with a fresh random IV so the
// same shared secret can be reused safely across outputs in one
// transaction.
func EncryptMemo(shared *curve.Point, plaintext []byte) ([]byte, error) {
	key := memoKey(shared)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(out, plaintext)
	return append(iv, out...), nil
}

// DecryptMemo reverses EncryptMemo given the same shared secret.
func DecryptMemo(shared *curve.Point, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < aes.BlockSize {
		return nil, ErrMemoTooShort
	}
	key := memoKey(shared)
	iv, body := ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:]
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(body))
	cipher.NewCTR(block, iv).XORKeyStream(out, body)
	return out, nil
}
