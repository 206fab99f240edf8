package ledger

// The Restore* methods rebuild an in-memory State directly from
// already-validated on-disk records (pkg/storage's job at node startup),
// bypassing ApplyBlock's verification entirely: that data was verified
// once, when it was first committed, and re-verifying every block on every
// restart would make startup time grow without bound as the chain grows.

// RestoreUTXO inserts u as-is, keyed by its (txid, output_index).
func (s *State) RestoreUTXO(u *UTXO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.utxos[MakeUTXOKey(u.TxHash, u.OutputIndex)] = u
}

// RestoreKeyImageRef marks a key image as seen, taking the same
// string(point.Bytes()) ref form keyImageRef produces.
func (s *State) RestoreKeyImageRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyImages[ref] = true
}

// RestoreClusterWealth sets a cluster's wealth to an absolute value, as
// opposed to commit's incremental deltas.
func (s *State) RestoreClusterWealth(id [32]byte, wealth uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterWealth[id] = wealth
}

// RestoreHeader records a historical header by height, for ancestors of
// the tip that ApplyBlock may still need to look up (e.g. for a future
// reorg within the permitted depth).
func (s *State) RestoreHeader(height uint64, h Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers[height] = h
}

// RestoreTip sets the chain tip directly.
func (s *State) RestoreTip(tip Tip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tip = tip
}
