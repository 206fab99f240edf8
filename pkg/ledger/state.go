package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/tx"
)

// Tip describes the chain's current head.
type Tip struct {
	Height         uint64
	Hash           tx.Hash
	Timestamp      int64
	CumulativeWork *big.Int
	SupplyMinted   uint64
	SupplyBurned   uint64
}

// State is the node's chain state: the UTXO set, the key-image set, the
// cluster-wealth index, and the append-only header chain, all guarded by a
// single writer / many readers discipline. A read of GetUTXO/KeyImageSeen/
// ClusterWealth/Tip observes a consistent snapshot at the tip it's called
// under; ApplyBlock takes the exclusive commit lock for its whole
// validate-then-apply pass so two blocks never interleave.
type State struct {
	mu sync.RWMutex

	utxos         map[UTXOKey]*UTXO
	keyImages     map[string]bool
	clusterWealth map[[32]byte]uint64
	headers       map[uint64]Header

	tip Tip
}

// New creates an empty ledger state at height 0 with no genesis
// allocation; call ApplyBlock with a genesis block to populate it.
func New() *State {
	return &State{
		utxos:         make(map[UTXOKey]*UTXO),
		keyImages:     make(map[string]bool),
		clusterWealth: make(map[[32]byte]uint64),
		headers:       make(map[uint64]Header),
		tip:           Tip{CumulativeWork: big.NewInt(0)},
	}
}

// Tip returns the current chain head.
func (s *State) Tip() Tip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip
}

// GetUTXO looks up a live output by key.
func (s *State) GetUTXO(key UTXOKey) (*UTXO, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.utxos[key]
	return u, ok
}

// AllUTXOs returns every live output, for decoy-pool construction. Callers
// must not mutate the returned UTXOs.
func (s *State) AllUTXOs() []*UTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*UTXO, 0, len(s.utxos))
	for _, u := range s.utxos {
		out = append(out, u)
	}
	return out
}

// keyImageRef maps a key image point to the map key Seen uses.
func keyImageRef(k *curve.Point) string { return string(k.Bytes()) }

// KeyImageSeen implements tx.KeyImageSet: reports whether a key image has
// already been committed to the ledger.
func (s *State) KeyImageSeen(k *curve.Point) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keyImages[keyImageRef(k)]
}

// ClusterWealth returns the ledger's tracked wealth for a cluster_id: the
// sum of minting rewards that created it minus every fee burned by a
// transaction whose dominant tag was this cluster. Transaction amounts
// themselves are hidden by Pedersen commitments and so cannot contribute to
// this index directly; only the two explicit, public value flows
// (emission and burn) can.
func (s *State) ClusterWealth(id [32]byte) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusterWealth[id]
}

// Header returns the header at height, if the ledger has committed it.
func (s *State) Header(height uint64) (Header, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.headers[height]
	return h, ok
}

// stagedCommit accumulates every mutation ApplyBlock will make, so the
// whole block either commits as a unit under one lock or nothing changes.
type stagedCommit struct {
	newUTXOs      map[UTXOKey]*UTXO
	newKeyImages  []string
	clusterDeltas map[[32]byte]int64
	header        Header
	supplyMinted  uint64
	supplyBurned  uint64
}

// ExpectedReward resolves the emission schedule for a height; pkg/monetary
// supplies the real implementation, ApplyBlock just needs the callback.
type ExpectedReward func(height uint64) uint64

// ApplyBlock validates block against the current tip and, if it passes,
// commits every mutation (new UTXOs, new key images, cluster-wealth
// deltas, tip advance) as a single atomic write. No mutation is visible to
// readers until the whole block has been validated.
func (s *State) ApplyBlock(block *Block, reward ExpectedReward, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if block.Header.Height != s.tip.Height+1 {
		return errWrongHeight
	}
	parent, hasParent := s.headers[s.tip.Height]
	if s.tip.Height > 0 && !hasParent {
		return errUTXONotFound
	}
	if s.tip.Height > 0 {
		if err := ValidateHeader(block.Header, parent, now); err != nil {
			return err
		}
	}
	if block.TxRoot() != block.Header.MerkleRoot {
		return errInvalidPrevHash
	}

	if result := tx.VerifyMinting(block.MintingTx, reward); !result.OK {
		return errMintingVerifyFailed
	}

	staged := &stagedCommit{
		newUTXOs:      make(map[UTXOKey]*UTXO),
		clusterDeltas: make(map[[32]byte]int64),
		header:        block.Header,
	}

	seenThisBlock := make(map[string]bool)
	pendingNewKeys := make(map[string]bool)

	mintOut := block.MintingTx.Output
	mintTxHash := block.MintingTx.ID()
	staged.newUTXOs[MakeUTXOKey(mintTxHash, 0)] = &UTXO{
		TxHash:           mintTxHash,
		OutputIndex:      0,
		OneTimePublicKey: mintOut.OneTimeKey,
		CreationHeight:   block.Header.Height,
	}
	staged.clusterDeltas[mintOut.ClusterID] += int64(mintOut.Amount)
	staged.supplyMinted = mintOut.Amount
	pendingNewKeys[string(mintOut.OneTimeKey.Bytes())] = true

	for _, t := range block.PrivateTxs {
		if err := rejectSameBlockReferences(t, pendingNewKeys); err != nil {
			return err
		}

		result := tx.Verify(t, combinedKeyImageSet{ledger: s, withinBlock: seenThisBlock})
		if !result.OK {
			return errPrivateTxVerifyFailed
		}

		for _, in := range t.Inputs {
			ref := keyImageRef(in.KeyImage)
			if seenThisBlock[ref] {
				return errDuplicateKeyImageTx
			}
			seenThisBlock[ref] = true
			staged.newKeyImages = append(staged.newKeyImages, ref)
		}

		if dominant, ok := t.Outputs[0].Tags.DominantCluster(); ok {
			staged.clusterDeltas[dominant] -= int64(t.Fee)
		}
		staged.supplyBurned += t.Fee

		txHash := t.ID()
		for i, out := range t.Outputs {
			key := MakeUTXOKey(txHash, uint32(i))
			staged.newUTXOs[key] = &UTXO{
				TxHash:           txHash,
				OutputIndex:      uint32(i),
				OneTimePublicKey: out.OneTimeKey,
				Commitment:       out.Commitment,
				Tags:             out.Tags,
				CreationHeight:   block.Header.Height,
				EncryptedMemo:    out.EncryptedMemo,
			}
			pendingNewKeys[string(out.OneTimeKey.Bytes())] = true
		}
	}

	s.commit(staged)
	return nil
}

// rejectSameBlockReferences rejects a transaction whose ring references an
// output created earlier in the same block, which the ledger forbids to
// keep within-block ordering simple.
func rejectSameBlockReferences(t *tx.PrivateTransaction, pendingNewKeys map[string]bool) error {
	for _, in := range t.Inputs {
		for _, p := range in.Ring.Pubkeys {
			if pendingNewKeys[string(p.Bytes())] {
				return errSameBlockUTXORef
			}
		}
	}
	return nil
}

// combinedKeyImageSet lets tx.Verify check both the committed ledger state
// and the key images already staged earlier in the same block being
// applied, so within-block double-spends are caught during verification
// itself rather than only by the post-verification duplicate check.
type combinedKeyImageSet struct {
	ledger      *State
	withinBlock map[string]bool
}

func (c combinedKeyImageSet) Seen(p *curve.Point) bool {
	if c.withinBlock[keyImageRef(p)] {
		return true
	}
	return c.ledger.keyImages[keyImageRef(p)]
}

// commit applies every staged mutation under the already-held write lock.
func (s *State) commit(staged *stagedCommit) {
	for k, u := range staged.newUTXOs {
		s.utxos[k] = u
	}
	for _, ref := range staged.newKeyImages {
		s.keyImages[ref] = true
	}
	for id, delta := range staged.clusterDeltas {
		current := int64(s.clusterWealth[id])
		current += delta
		if current < 0 {
			current = 0
		}
		s.clusterWealth[id] = uint64(current)
	}
	s.headers[staged.header.Height] = staged.header

	s.tip.Height = staged.header.Height
	s.tip.Hash = staged.header.Hash()
	s.tip.Timestamp = staged.header.Timestamp
	s.tip.SupplyMinted += staged.supplyMinted
	s.tip.SupplyBurned += staged.supplyBurned
	work := new(big.Int).SetUint64(staged.header.Difficulty)
	s.tip.CumulativeWork = new(big.Int).Add(s.tip.CumulativeWork, work)
}
