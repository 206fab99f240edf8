package keys

import (
	"github.com/botho-project/botho/pkg/curve"
)

// StealthOutput is the public material a sender attaches to a transaction
// output: a one-time destination key and the ephemeral public key the
// recipient needs to recognize and later spend it.
type StealthOutput struct {
	OneTimeKey  *curve.Point // P = Hs(r*A || idx)*G + B
	TxPublicKey *curve.Point // R = r*G, or r*D_i when addressed to a subaddress
	OutputIndex uint64
}

// NewStealthOutput builds a one-time destination for addr, the way
// GenerateStealthAddress did in the scheme this replaces, but over real
// curve arithmetic (shared secret via scalar multiplication, not a
// placeholder hash of raw key bytes) and with the output index folded into
// the shared-secret hash so that two outputs to the same address in the
// same transaction still derive distinct one-time keys.
//
// The ephemeral public key transmitted alongside the output depends on
// whether addr is a subaddress. A primary address's view key is A=a*G, so
// R=r*G lets the recipient recover shared=a*R=a*r*G, which the sender
// computed as r*A. A subaddress's view key is C_i=a*D_i (D_i the
// subaddress spend key), so the same R=r*G recovery would require
// (b+m)=1 to hold, which it does for no subaddress index. Sending R=r*D_i
// instead keeps the recipient's a*R=a*r*D_i equal to the sender's
// r*C_i=r*a*D_i regardless of index, matching Subaddress's C_i=a*D_i
// derivation.
func NewStealthOutput(addr Address, outputIndex uint64) (*StealthOutput, *curve.Scalar, error) {
	r, err := curve.RandomScalar()
	if err != nil {
		return nil, nil, err
	}
	shared := addr.ViewPub.ScalarMult(r) // r*A, or r*C_i for a subaddress
	h := sharedSecretScalar(shared, outputIndex)
	oneTime := curve.ScalarBaseMult(h).Add(addr.SpendPub)

	var txPub *curve.Point
	if addr.IsSubaddress {
		txPub = addr.SpendPub.ScalarMult(r) // r*D_i
	} else {
		txPub = curve.ScalarBaseMult(r) // r*G
	}

	return &StealthOutput{
		OneTimeKey:  oneTime,
		TxPublicKey: txPub,
		OutputIndex: outputIndex,
	}, r, nil
}

// sharedSecretScalar derives Hs(sharedPoint || index), the scalar every
// stealth-address computation (generation, scanning, spend-key recovery)
// must agree on.
func sharedSecretScalar(shared *curve.Point, outputIndex uint64) *curve.Scalar {
	var idx [8]byte
	for i := 0; i < 8; i++ {
		idx[i] = byte(outputIndex >> (8 * i))
	}
	return curve.HashToScalar("botho-stealth", shared.Bytes(), idx[:])
}

// Owns reports whether output belongs to this wallet: the view private key
// lets anyone holding it recompute the shared secret from the sender's
// published ephemeral key and check it against the one-time key, without
// needing the spend private key at all (the scanning/spending split that
// makes view-only wallets possible).
func (w *WalletKeys) Owns(out *StealthOutput) bool {
	shared := out.TxPublicKey.ScalarMult(w.ViewPriv) // a*R
	h := sharedSecretScalar(shared, out.OutputIndex)
	expected := curve.ScalarBaseMult(h).Add(curve.ScalarBaseMult(w.SpendPriv))
	return expected.Equal(out.OneTimeKey)
}

// OwnsSubaddress reports whether output was sent to the given subaddress
// index, returning the index's derived address alongside the bool so a
// scanner doesn't have to re-derive it on a hit.
func (w *WalletKeys) OwnsSubaddress(out *StealthOutput, idx Index) (Address, bool) {
	addr := w.Subaddress(idx)
	shared := out.TxPublicKey.ScalarMult(w.ViewPriv)
	h := sharedSecretScalar(shared, out.OutputIndex)
	expected := curve.ScalarBaseMult(h).Add(addr.SpendPub)
	return addr, expected.Equal(out.OneTimeKey)
}

// ErrNotOwned is returned by DeriveSpendKey when the output does not belong
// to the wallet it was asked to open.
var ErrNotOwned = errNotOwned{}

type errNotOwned struct{}

func (errNotOwned) Error() string { return "keys: output does not belong to this wallet" }

// DeriveSpendKey recovers the one-time private key x' = Hs(a*R||idx) + b
// needed to spend out, the private-side counterpart of Owns.
func (w *WalletKeys) DeriveSpendKey(out *StealthOutput) (*curve.Scalar, error) {
	if !w.Owns(out) {
		return nil, ErrNotOwned
	}
	shared := out.TxPublicKey.ScalarMult(w.ViewPriv)
	h := sharedSecretScalar(shared, out.OutputIndex)
	return h.Add(w.SpendPriv), nil
}

// BurnAddress returns the canonical address whose spend key has no known
// discrete log, so outputs sent there are provably unspendable. Both keys
// are HashToPoint outputs under their own labels ("botho-burn-view" and
// "botho-burn-spend"), so the view key has no known secret either and
// burned outputs cannot be scanned with a published view key.
func BurnAddress() Address {
	return Address{
		ViewPub:  curve.HashToPoint("botho-burn-view"),
		SpendPub: curve.HashToPoint("botho-burn-spend"),
	}
}
