package ledger

// UTXORef is the minimal view of a live output the mempool's decoy
// selection needs: its UTXOKey and the height it was created at. Returning
// a concrete slice of this (rather than a slice of *UTXO or of an
// interface) keeps pkg/mempool decoupled from pkg/ledger's full UTXO
// representation.
type UTXORef struct {
	Key            UTXOKey
	CreationHeight uint64
}

// UTXOSnapshot returns a reference to every live output, for decoy-pool
// construction against the current tip.
func (s *State) UTXOSnapshot() []UTXORef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UTXORef, 0, len(s.utxos))
	for k, u := range s.utxos {
		out = append(out, UTXORef{Key: k, CreationHeight: u.CreationHeight})
	}
	return out
}

// TipHeight returns the current tip height.
func (s *State) TipHeight() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip.Height
}
