// Package tx implements botho's two transaction variants (Minting and
// Private), their canonical wire encoding, and the build/verify pipelines
// described for the transaction model: ring-signed, commitment-hidden
// spends with blended cluster tags, and proof-of-work-gated minting.
package tx

import (
	"github.com/botho-project/botho/pkg/crypto/bulletproof"
	"github.com/botho-project/botho/pkg/crypto/clsag"
	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
)

// Version is the only wire version this node emits or accepts.
const Version uint8 = 1

// Input is one ring-signed spend: the full ring of candidate spenders (real
// output plus 19 decoys), the CLSAG signature proving one of them authorized
// the spend without revealing which, the key image that prevents the same
// output from being spent twice, and the pseudo-output commitment the
// signature was made against.
type Input struct {
	Ring      *clsag.Ring
	Signature *clsag.Signature
	KeyImage  *curve.Point
	PseudoOut *commitment.Commitment
}

// Output is a one-time destination: a stealth one-time key, the ephemeral
// public key the recipient needs to recognize it, a hidden amount
// commitment, an encrypted memo, and the cluster tag vector the builder
// computed for it.
type Output struct {
	OneTimeKey    *curve.Point
	TxPublicKey   *curve.Point
	Commitment    *commitment.Commitment
	EncryptedMemo []byte
	Tags          TagVector
}

// PrivateTransaction is a ring-signed, commitment-hidden spend: inputs
// reference previous outputs only by key image and ring membership, outputs
// carry hidden amounts, and an aggregated range proof attests every output
// commitment opens to a value in [0, 2^64).
type PrivateTransaction struct {
	Version    uint8
	Inputs     []*Input
	Outputs    []*Output
	Fee        uint64
	RangeProof *bulletproof.Proof
}

// MintingOutput is the single freshly-minted output a Minting transaction
// carries. Unlike a Private output its amount is public (it must match the
// emission schedule exactly), so it carries a plain amount rather than a
// commitment; the stealth-address construction around it is identical to a
// Private output's.
type MintingOutput struct {
	Amount      uint64
	OneTimeKey  *curve.Point
	TxPublicKey *curve.Point
	ClusterID   [32]byte
}

// MintingTransaction is the proof-of-work-gated coinbase of a block: no
// inputs, one output, a nonce whose header hash must satisfy the difficulty
// predicate, and the minter's declared public keys (used both to address
// the output and to derive the fresh cluster_id).
type MintingTransaction struct {
	Version         uint8
	Height          uint64
	Nonce           uint64
	MinterViewPub   *curve.Point
	MinterSpendPub  *curve.Point
	Output          *MintingOutput
}
