package tx

import (
	"github.com/botho-project/botho/pkg/crypto/bulletproof"
	"github.com/botho-project/botho/pkg/crypto/clsag"
	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
)

// KeyImageSet reports whether a key image has already been spent,
// satisfied by the ledger's key-image index. Verify and VerifyBatch take
// this as a parameter instead of importing pkg/ledger to avoid an import
// cycle (the ledger itself depends on pkg/tx for its transaction type).
type KeyImageSet interface {
	Seen(keyImage *curve.Point) bool
}

// VerifyResult carries a Verify failure's classification alongside a plain
// bool, so callers (mempool admission, block application) can distinguish
// a validation rejection from nothing worth retrying.
type VerifyResult struct {
	OK     bool
	Reason string
}

func reject(reason string) VerifyResult { return VerifyResult{OK: false, Reason: reason} }

var accept = VerifyResult{OK: true}

// Verify runs the full verification pipeline against a private transaction:
// canonical shape checks, duplicate/seen key images, per-input CLSAG
// verification, aggregated range-proof verification, and the balance
// equation. It is idempotent and mutates no state beyond its own scratch
// space.
func Verify(t *PrivateTransaction, seen KeyImageSet) VerifyResult {
	if t == nil {
		return reject("nil transaction")
	}
	if t.Version != Version {
		return reject("unsupported version")
	}
	if len(t.Inputs) == 0 {
		return reject("no inputs")
	}
	if len(t.Outputs) == 0 {
		return reject("no outputs")
	}

	keyImages := make(map[string]bool, len(t.Inputs))
	for _, in := range t.Inputs {
		if in.Ring == nil || len(in.Ring.Pubkeys) != clsag.RingSize {
			return reject("ring size must be exactly 20")
		}
		if in.KeyImage == nil || in.KeyImage.IsIdentity() {
			return reject("malformed key image")
		}
		k := string(in.KeyImage.Bytes())
		if keyImages[k] {
			return reject("duplicate key image within transaction")
		}
		keyImages[k] = true
		if seen != nil && seen.Seen(in.KeyImage) {
			return reject("key image already spent")
		}
	}

	commitments := make([]*commitment.Commitment, len(t.Outputs))
	for i, out := range t.Outputs {
		if out.Commitment == nil || out.OneTimeKey == nil || out.TxPublicKey == nil {
			return reject("malformed output")
		}
		commitments[i] = out.Commitment
	}
	if !bulletproof.Verify(t.RangeProof, commitments) {
		return reject("range proof failed")
	}

	message := t.SigningBytes()
	for i, in := range t.Inputs {
		if !clsag.Verify(in.Signature, in.Ring, in.PseudoOut.Point(), message) {
			return reject("ring signature failed")
		}
		if in.Signature.KeyImage == nil || !in.Signature.KeyImage.Equal(in.KeyImage) {
			return reject("signature key image mismatch")
		}
	}

	if !balances(t) {
		return reject("value conservation failed")
	}

	return accept
}

// balances checks that the sum of input pseudo-output commitments equals
// the sum of output commitments plus fee*H.
func balances(t *PrivateTransaction) bool {
	lhs := t.Inputs[0].PseudoOut
	for _, in := range t.Inputs[1:] {
		lhs = lhs.Add(in.PseudoOut)
	}
	rhs := t.Outputs[0].Commitment
	for _, out := range t.Outputs[1:] {
		rhs = rhs.Add(out.Commitment)
	}
	rhs = rhs.Add(commitment.FeeCommitment(t.Fee))
	return lhs.Equal(rhs)
}
