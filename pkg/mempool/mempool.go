// Package mempool holds pending Private transactions between admission and
// inclusion in a block: it runs the admission pipeline (size, ledger
// verification, within-mempool double-spend, progressive fee curve), keeps
// the pool bounded by count and age with lowest-fee-rate eviction, and
// exposes decoy selection against a live UTXO snapshot for wallets building
// new rings.
package mempool

import (
	"container/heap"
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/ledger"
	"github.com/botho-project/botho/pkg/tx"
	"github.com/botho-project/botho/pkg/tx/ospead"
	"github.com/botho-project/botho/pkg/verifypool"
)

const maxSizeBytes = 100 * 1024
const maxAge = 3600 * time.Second

// maxEntries bounds pool size; a var rather than a const so tests can
// shrink it without building a thousand real transactions.
var maxEntries = 1000

// LedgerView is the slice of ledger.State the mempool needs: key-image
// membership for verification, and cluster wealth for the fee curve and
// decoy candidate enumeration for SelectDecoys.
type LedgerView interface {
	KeyImageSeen(k *curve.Point) bool
	ClusterWealth(id [32]byte) uint64
	UTXOSnapshot() []ledger.UTXORef
	TipHeight() uint64
}

// Mempool is the node's pending-transaction pool.
type Mempool struct {
	mu         sync.Mutex
	byTxID     map[tx.Hash]*Entry
	byKeyImage map[string]tx.Hash
	heap       evictionHeap
	seq        uint64

	ledger LedgerView
	pool   *verifypool.Pool
	policy Policy
}

// New creates an empty mempool backed by view for verification and
// cluster-wealth lookups, running cryptographic verification through pool.
func New(view LedgerView, pool *verifypool.Pool, policy Policy) *Mempool {
	return &Mempool{
		byTxID:     make(map[tx.Hash]*Entry),
		byKeyImage: make(map[string]tx.Hash),
		ledger:     view,
		pool:       pool,
		policy:     policy,
	}
}

func keyImageRef(k *curve.Point) string { return string(k.Bytes()) }

// ledgerKeyImageSet adapts Mempool to tx.KeyImageSet so Verify also sees
// key images already admitted into the pool, catching a second spend of
// the same input before it reaches the ledger.
type ledgerKeyImageSet struct {
	m *Mempool
	l LedgerView
}

func (s ledgerKeyImageSet) Seen(k *curve.Point) bool {
	ref := keyImageRef(k)
	s.m.mu.Lock()
	_, inPool := s.m.byKeyImage[ref]
	s.m.mu.Unlock()
	if inPool {
		return true
	}
	return s.l.KeyImageSeen(k)
}

// Submit runs the admission pipeline for transaction and, if accepted,
// inserts it into the pool, evicting the current lowest fee-rate entry if
// the pool is already at capacity and transaction's rate is higher.
func (m *Mempool) Submit(ctx context.Context, transaction *tx.PrivateTransaction) error {
	encoded := transaction.CanonicalEncode()
	if len(encoded) > maxSizeBytes {
		return errTooLarge
	}

	for _, in := range transaction.Inputs {
		ref := keyImageRef(in.KeyImage)
		m.mu.Lock()
		_, exists := m.byKeyImage[ref]
		m.mu.Unlock()
		if exists {
			return errAlreadyInMempool
		}
	}

	results := m.pool.Run(ctx, []verifypool.Job{func(ctx context.Context) error {
		result := tx.Verify(transaction, ledgerKeyImageSet{m: m, l: m.ledger})
		if !result.OK {
			return errFailedVerify
		}
		return nil
	}})
	if !verifypool.AllOK(results) {
		return results[0]
	}

	sourceWealth, dominantWealth := m.sourceAndDominantWealth(transaction)
	required := m.policy.RequiredFee(len(encoded), sourceWealth, dominantWealth)
	if transaction.Fee < required {
		return errFeeBelowRequired
	}

	entry := &Entry{
		Tx:        transaction,
		TxID:      transaction.ID(),
		FeeRate:   float64(transaction.Fee) / float64(len(encoded)),
		SizeBytes: len(encoded),
		ArrivedAt: time.Now().Unix(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, in := range transaction.Inputs {
		if _, exists := m.byKeyImage[keyImageRef(in.KeyImage)]; exists {
			return errAlreadyInMempool
		}
	}

	if len(m.byTxID) >= maxEntries {
		if len(m.heap) == 0 || m.heap[0].FeeRate >= entry.FeeRate {
			return errPoolFull
		}
		m.evictLocked(m.heap[0].TxID)
	}

	m.seq++
	entry.ArrivalSeq = m.seq
	m.byTxID[entry.TxID] = entry
	for _, in := range transaction.Inputs {
		m.byKeyImage[keyImageRef(in.KeyImage)] = entry.TxID
	}
	heap.Push(&m.heap, entry)
	return nil
}

// evictLocked removes id from the pool; caller must hold mu.
func (m *Mempool) evictLocked(id tx.Hash) {
	entry, ok := m.byTxID[id]
	if !ok {
		return
	}
	delete(m.byTxID, id)
	for _, in := range entry.Tx.Inputs {
		delete(m.byKeyImage, keyImageRef(in.KeyImage))
	}
	if entry.index >= 0 && entry.index < len(m.heap) && m.heap[entry.index] == entry {
		heap.Remove(&m.heap, entry.index)
	}
}

// PruneExpired evicts every entry older than the 3600s age bound.
func (m *Mempool) PruneExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-maxAge).Unix()
	var expired []tx.Hash
	for id, e := range m.byTxID {
		if e.ArrivedAt < cutoff {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.evictLocked(id)
	}
}

// Len returns the number of pending transactions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byTxID)
}

// Get returns the pending entry for a txid, if present.
func (m *Mempool) Get(id tx.Hash) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byTxID[id]
	return e, ok
}

// SelectForBlock returns up to maxCount pending transactions ordered by
// fee rate descending, for the block builder to fill a slot's size budget.
func (m *Mempool) SelectForBlock(maxCount int) []*tx.PrivateTransaction {
	m.mu.Lock()
	entries := make([]*Entry, 0, len(m.byTxID))
	for _, e := range m.byTxID {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FeeRate != entries[j].FeeRate {
			return entries[i].FeeRate > entries[j].FeeRate
		}
		return entries[i].ArrivalSeq < entries[j].ArrivalSeq
	})
	if maxCount > 0 && len(entries) > maxCount {
		entries = entries[:maxCount]
	}
	out := make([]*tx.PrivateTransaction, len(entries))
	for i, e := range entries {
		out[i] = e.Tx
	}
	return out
}

// Remove drops every entry in block from the pool, called after a block
// externalizes.
func (m *Mempool) Remove(ids []tx.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.evictLocked(id)
	}
}

// sourceAndDominantWealth derives the two wealth figures the fee curve
// needs from transaction's own (public) output tag vector: source_wealth
// is the maximum cluster_wealth over non-background entries weighted by
// the entry's share, and dominant wealth is the ledger's wealth for the
// single heaviest entry, matching the attribution the ledger itself uses
// to burn fees against a cluster.
func (m *Mempool) sourceAndDominantWealth(transaction *tx.PrivateTransaction) (uint64, uint64) {
	if len(transaction.Outputs) == 0 {
		return 0, 0
	}
	tags := transaction.Outputs[0].Tags
	var maxWeighted uint64
	var dominantWealth uint64
	var dominantWeight uint32
	for _, entry := range tags.Entries {
		wealth := m.ledger.ClusterWealth(entry.ClusterID)
		weighted := wealth * uint64(entry.WeightPPM) / 1_000_000
		if weighted > maxWeighted {
			maxWeighted = weighted
		}
		if entry.WeightPPM > dominantWeight {
			dominantWeight = entry.WeightPPM
			dominantWealth = wealth
		}
	}
	return maxWeighted, dominantWealth
}

// SelectDecoys draws ospead.DecoyCount decoys from the live UTXO set for a
// wallet building a ring around realKey, excluding the real output itself.
func (m *Mempool) SelectDecoys(realKey [40]byte) ([]ospead.Candidate, error) {
	height := m.ledger.TipHeight()
	refs := m.ledger.UTXOSnapshot()
	pool := make([]ospead.Candidate, 0, len(refs))
	for _, ref := range refs {
		key := [40]byte(ref.Key)
		if key == realKey {
			continue
		}
		age := uint64(0)
		if height > ref.CreationHeight {
			age = height - ref.CreationHeight
		}
		pool = append(pool, ospead.Candidate{AgeBlocks: age, Ref: key})
	}
	decoys, err := ospead.Select(pool, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return nil, errInsufficientCandidates
	}
	return decoys, nil
}
