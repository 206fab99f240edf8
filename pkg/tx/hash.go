package tx

import (
	"crypto/sha256"

	"github.com/botho-project/botho/pkg/crypto/bulletproof"
	"github.com/botho-project/botho/pkg/crypto/clsag"
	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
)

// Hash is a transaction or block identifier: the output of a domain
// separated SHA-256.
type Hash [32]byte

func writeLabel(h interface{ Write([]byte) (int, error) }, label string) {
	e := newEncoder()
	e.writeBytes([]byte(label))
	h.Write(e.bytes())
}

// domainHash256 computes SHA-256 of a length-prefixed ASCII label followed
// by each part, itself length-prefixed, so no label or part boundary can be
// confused with another. Mirrors the scheme pkg/curve uses for its own
// domain-separated hashes, at SHA-256 width instead of SHA-512.
func domainHash256(label string, parts ...[]byte) Hash {
	h := sha256.New()
	writeLabel(h, label)
	for _, p := range parts {
		e := newEncoder()
		e.writeBytes(p)
		h.Write(e.bytes())
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func encodePoint(e *encoder, p *curve.Point) { e.writeBytes(p.Bytes()) }

func encodeScalar(e *encoder, s *curve.Scalar) { e.writeBytes(s.Bytes()) }

func encodeCommitment(e *encoder, c *commitment.Commitment) { e.writeBytes(c.Bytes()) }

func encodeRing(e *encoder, ring *clsag.Ring) {
	e.writeUvarint(uint64(len(ring.Pubkeys)))
	for _, p := range ring.Pubkeys {
		encodePoint(e, p)
	}
	e.writeUvarint(uint64(len(ring.Commitments)))
	for _, c := range ring.Commitments {
		encodePoint(e, c)
	}
}

func encodeCLSAGSignature(e *encoder, sig *clsag.Signature) {
	encodeScalar(e, sig.C0)
	e.writeUvarint(uint64(len(sig.Responses)))
	for _, r := range sig.Responses {
		encodeScalar(e, r)
	}
	encodePoint(e, sig.KeyImage)
	encodePoint(e, sig.D)
}

func encodeIPAProof(e *encoder, p *bulletproof.IPAProof) {
	e.writeUvarint(uint64(len(p.L)))
	for i := range p.L {
		encodePoint(e, p.L[i])
		encodePoint(e, p.R[i])
	}
	encodeScalar(e, p.A)
	encodeScalar(e, p.B)
}

func encodeRangeProof(e *encoder, p *bulletproof.Proof) {
	e.writeUvarint(uint64(p.NumOutputs))
	encodePoint(e, p.A)
	encodePoint(e, p.S)
	encodePoint(e, p.T1)
	encodePoint(e, p.T2)
	encodeScalar(e, p.TauX)
	encodeScalar(e, p.Mu)
	encodeScalar(e, p.THat)
	encodeIPAProof(e, p.IPA)
}

// encodeInputsMeta encodes, for each input, (key_image, ring member
// references): the key image plus the full embedded ring (pubkeys and
// commitments), since the ring itself is the only reference form the wire
// transaction carries.
func encodeInputsMeta(e *encoder, inputs []*Input) {
	e.writeUvarint(uint64(len(inputs)))
	for _, in := range inputs {
		encodePoint(e, in.KeyImage)
		encodeRing(e, in.Ring)
		encodeCommitment(e, in.PseudoOut)
	}
}

func encodeOutputs(e *encoder, outputs []*Output) {
	e.writeUvarint(uint64(len(outputs)))
	for _, out := range outputs {
		encodePoint(e, out.OneTimeKey)
		encodePoint(e, out.TxPublicKey)
		encodeCommitment(e, out.Commitment)
		e.writeBytes(out.EncryptedMemo)
		e.writeUvarint(uint64(len(out.Tags.Entries)))
		for _, tag := range out.Tags.Entries {
			e.writeRaw(tag.ClusterID[:])
			e.writeU32(tag.WeightPPM)
		}
	}
}

// CanonicalEncode produces the full wire encoding of a private transaction,
// signatures included. CLSAG signatures and the txid are computed over
// SigningBytes instead, which leaves the signatures out.
func (t *PrivateTransaction) CanonicalEncode() []byte {
	e := newEncoder()
	e.writeU8(t.Version)
	encodeInputsMeta(e, t.Inputs)
	encodeOutputs(e, t.Outputs)
	e.writeU64(t.Fee)
	encodeRangeProof(e, t.RangeProof)
	for _, in := range t.Inputs {
		encodeCLSAGSignature(e, in.Signature)
	}
	return e.bytes()
}

// SigningBytes returns the canonical hash input each CLSAG signature is
// made over: version || inputs_meta || outputs || fee || range_proof
// commitment, per the canonical transaction hash definition.
func (t *PrivateTransaction) SigningBytes() []byte {
	e := newEncoder()
	e.writeU32(uint32(t.Version))
	encodeInputsMeta(e, t.Inputs)
	encodeOutputs(e, t.Outputs)
	e.writeU64(t.Fee)
	encodeRangeProof(e, t.RangeProof)
	return e.bytes()
}

// ID computes the transaction's txid: the domain-separated SHA-256 of
// SigningBytes under label "botho-txid-v1".
func (t *PrivateTransaction) ID() Hash {
	return domainHash256("botho-txid-v1", t.SigningBytes())
}

// CanonicalEncode produces the wire encoding of a minting transaction.
func (t *MintingTransaction) CanonicalEncode() []byte {
	e := newEncoder()
	e.writeU8(t.Version)
	e.writeU64(t.Height)
	e.writeU64(t.Nonce)
	encodePoint(e, t.MinterViewPub)
	encodePoint(e, t.MinterSpendPub)
	e.writeU64(t.Output.Amount)
	encodePoint(e, t.Output.OneTimeKey)
	encodePoint(e, t.Output.TxPublicKey)
	e.writeRaw(t.Output.ClusterID[:])
	return e.bytes()
}

// ID computes the minting transaction's txid the same way a private
// transaction's is computed, over its own canonical encoding.
func (t *MintingTransaction) ID() Hash {
	return domainHash256("botho-txid-v1", t.CanonicalEncode())
}

// MerkleRoot computes the transaction-root over leaves by in-order
// pairwise SHA-256, duplicating the last entry when the level has odd
// length, per the canonical encoding's merkle root definition.
func MerkleRoot(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return Hash{}
	}
	level := make([]Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			h := sha256.New()
			h.Write(level[2*i][:])
			h.Write(level[2*i+1][:])
			copy(next[i][:], h.Sum(nil))
		}
		level = next
	}
	return level[0]
}
