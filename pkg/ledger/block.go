// Package ledger holds the UTXO set, key-image set, and cluster-wealth
// index that make up a node's chain state, and applies blocks to them
// atomically under a single-writer/many-reader discipline.
package ledger

import (
	"time"

	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/tx"
)

// Header carries a block's metadata: the fields whose canonical encoding
// the proof-of-work predicate and block hash are computed over.
type Header struct {
	Version        uint8
	PreviousHash   tx.Hash
	MerkleRoot     tx.Hash
	Timestamp      int64
	Height         uint64
	Difficulty     uint64
	Nonce          uint64
	MinterViewPub  *curve.Point
	MinterSpendPub *curve.Point
	Slot           uint64
}

// CanonicalBytes encodes the header the same way pkg/tx encodes
// transactions: fixed fields little-endian, no length ambiguity, so the
// PoW predicate and the block hash are both computed over an unambiguous
// byte string.
func (h Header) CanonicalBytes() []byte {
	e := newEncoder()
	e.writeU8(h.Version)
	e.writeRaw(h.PreviousHash[:])
	e.writeRaw(h.MerkleRoot[:])
	e.writeI64(h.Timestamp)
	e.writeU64(h.Height)
	e.writeU64(h.Difficulty)
	e.writeU64(h.Nonce)
	e.writeRaw(h.MinterViewPub.Bytes())
	e.writeRaw(h.MinterSpendPub.Bytes())
	e.writeU64(h.Slot)
	return e.buf
}

// Hash computes the canonical block hash: SHA-256("botho-block-v1" ||
// canonical header bytes).
func (h Header) Hash() tx.Hash {
	return domainHash256("botho-block-v1", h.CanonicalBytes())
}

// Block is a finalized slot: the minting transaction paying the block
// reward plus an ordered list of private transactions, under one header.
type Block struct {
	Header     Header
	MintingTx  *tx.MintingTransaction
	PrivateTxs []*tx.PrivateTransaction
}

// TxRoot computes the block's merkle root over every transaction's txid,
// minting transaction first.
func (b *Block) TxRoot() tx.Hash {
	leaves := make([]tx.Hash, 0, len(b.PrivateTxs)+1)
	leaves = append(leaves, b.MintingTx.ID())
	for _, t := range b.PrivateTxs {
		leaves = append(leaves, t.ID())
	}
	return tx.MerkleRoot(leaves)
}

// ValidateHeader checks the structural invariants every header must
// satisfy relative to its parent: height succession, previous-hash
// linkage, a timestamp not too far in the future, and proof-of-work.
func ValidateHeader(h Header, parent Header, now time.Time) error {
	if h.Height != parent.Height+1 {
		return errInvalidHeight
	}
	if h.PreviousHash != parent.Hash() {
		return errInvalidPrevHash
	}
	if h.Timestamp < parent.Timestamp {
		return errTimestampNotMonotonic
	}
	if h.Timestamp > now.Add(2*time.Hour).Unix() {
		return errTimestampTooFarInFuture
	}
	if !tx.SatisfiesPow(h.CanonicalBytes(), h.Difficulty) {
		return errPowNotSatisfied
	}
	return nil
}
