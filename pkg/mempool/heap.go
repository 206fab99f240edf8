package mempool

import (
	"container/heap"

	"github.com/botho-project/botho/pkg/tx"
)

// Entry wraps a pending transaction with the bookkeeping the eviction heap
// and age-based pruning need: its size, its fee rate (fee/byte), and its
// arrival order for tie-breaking.
type Entry struct {
	Tx         *tx.PrivateTransaction
	TxID       tx.Hash
	FeeRate    float64
	ArrivalSeq uint64
	SizeBytes  int
	ArrivedAt  int64 // unix seconds
	index      int   // heap position, maintained by container/heap
}

// evictionHeap is a min-heap by fee rate, lowest first, with arrival order
// as the tiebreaker (earlier arrival evicted first on an exact tie) —
// the same index-tracking min-heap shape used for price-ordered eviction
// in the pack's other mempool implementation, adapted from gas price to
// fee-per-byte.
type evictionHeap []*Entry

func (h evictionHeap) Len() int { return len(h) }

func (h evictionHeap) Less(i, j int) bool {
	if h[i].FeeRate != h[j].FeeRate {
		return h[i].FeeRate < h[j].FeeRate
	}
	return h[i].ArrivalSeq < h[j].ArrivalSeq
}

func (h evictionHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *evictionHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *evictionHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

var _ heap.Interface = (*evictionHeap)(nil)
