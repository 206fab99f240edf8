package tx

import (
	"crypto/sha256"
	"math/big"

	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/keys"
)

// ClusterID computes the freshly-minted cluster_id a minting transaction's
// single output belongs to: H(height || minter_pubkeys || nonce).
func ClusterID(height uint64, minterView, minterSpend *curve.Point, nonce uint64) [32]byte {
	e := newEncoder()
	e.writeU64(height)
	e.writeBytes(minterView.Bytes())
	e.writeBytes(minterSpend.Bytes())
	e.writeU64(nonce)
	sum := sha256.Sum256(e.bytes())
	return sum
}

// BuildMinting assembles a minting transaction for height, paying reward to
// minterAddr, with the given nonce. Callers are responsible for finding a
// nonce that satisfies the PoW predicate against headerBytes before
// including the transaction in a block; BuildMinting itself does no mining.
func BuildMinting(height uint64, reward uint64, minterAddr keys.Address, nonce uint64) (*MintingTransaction, error) {
	stealth, _, err := keys.NewStealthOutput(minterAddr, 0)
	if err != nil {
		return nil, err
	}
	return &MintingTransaction{
		Version:        Version,
		Height:         height,
		Nonce:          nonce,
		MinterViewPub:  minterAddr.ViewPub,
		MinterSpendPub: minterAddr.SpendPub,
		Output: &MintingOutput{
			Amount:      reward,
			OneTimeKey:  stealth.OneTimeKey,
			TxPublicKey: stealth.TxPublicKey,
			ClusterID:   ClusterID(height, minterAddr.ViewPub, minterAddr.SpendPub, nonce),
		},
	}, nil
}

// VerifyMinting checks a minting transaction against the scheduled reward
// for its height and recomputes its cluster_id; it does not check the
// block-level proof-of-work predicate, which is over the full header, not
// the transaction alone (see pkg/tx's header/PoW helpers used by pkg/ledger).
func VerifyMinting(t *MintingTransaction, expectedReward func(height uint64) uint64) VerifyResult {
	if t == nil || t.Output == nil {
		return reject("nil minting transaction")
	}
	if t.Version != Version {
		return reject("unsupported version")
	}
	want := expectedReward(t.Height)
	if t.Output.Amount != want {
		return reject("minting reward does not match schedule")
	}
	wantID := ClusterID(t.Height, t.MinterViewPub, t.MinterSpendPub, t.Nonce)
	if wantID != t.Output.ClusterID {
		return reject("cluster_id does not match height/minter/nonce")
	}
	return accept
}

// PowTarget computes 2^256 / difficulty, the threshold a header hash must
// fall under to satisfy the proof-of-work predicate.
func PowTarget(difficulty uint64) *big.Int {
	if difficulty == 0 {
		difficulty = 1
	}
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return new(big.Int).Div(max, new(big.Int).SetUint64(difficulty))
}

// SatisfiesPow reports whether headerBytes' SHA-256, read as a big-endian
// 256-bit integer, is below the difficulty target.
func SatisfiesPow(headerBytes []byte, difficulty uint64) bool {
	sum := sha256.Sum256(headerBytes)
	hashInt := new(big.Int).SetBytes(sum[:])
	return hashInt.Cmp(PowTarget(difficulty)) < 0
}
