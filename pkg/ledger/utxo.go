package ledger

import (
	"encoding/binary"

	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/tx"
)

// UTXOKey is the ledger's on-disk and in-memory key for one output: txid
// concatenated with its little-endian output index, per the external
// on-disk layout.
type UTXOKey [40]byte

// MakeUTXOKey builds the key a UTXO is stored and looked up under.
func MakeUTXOKey(txHash tx.Hash, index uint32) UTXOKey {
	var k UTXOKey
	copy(k[:32], txHash[:])
	binary.LittleEndian.PutUint32(k[32:], index)
	return k
}

// UTXO is one unspent (or, for a decoy, still-live) output: its one-time
// public key, hidden amount commitment, cluster tag vector, the height it
// was created at, and an optional encrypted memo.
type UTXO struct {
	TxHash           tx.Hash
	OutputIndex      uint32
	OneTimePublicKey *curve.Point
	Commitment       *commitment.Commitment
	Tags             tx.TagVector
	CreationHeight   uint64
	EncryptedMemo    []byte
}

// AgeAt reports a UTXO's age in blocks as of tip height currentHeight.
func (u *UTXO) AgeAt(currentHeight uint64) uint64 {
	if currentHeight < u.CreationHeight {
		return 0
	}
	return currentHeight - u.CreationHeight
}
