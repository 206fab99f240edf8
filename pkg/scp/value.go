package scp

import "bytes"

// Value is a ConsensusValue: the canonical hash of a candidate minting
// transaction plus a PoW-priority tag used only to produce a deterministic
// total order across values within a ballot, never as a safety property.
type Value struct {
	MintingTxID [32]byte
	PowPriority uint64
}

// Less orders values by PowPriority first (lower wins, mirroring "more
// proof-of-work priority" intuition is left to the caller's tag
// convention), then by MintingTxID as a final tiebreak so the order is
// total even between equal-priority values.
func (v Value) Less(o Value) bool {
	if v.PowPriority != o.PowPriority {
		return v.PowPriority < o.PowPriority
	}
	return bytes.Compare(v.MintingTxID[:], o.MintingTxID[:]) < 0
}

// Ballot is (counter, values): values MUST be kept sorted by Value.Less,
// and any message whose ballot values are not sorted must be rejected.
type Ballot struct {
	Counter uint32
	Values  []Value
}

// Sorted reports whether b's values satisfy the ascending-order invariant
// every SCP message must carry.
func (b Ballot) Sorted() bool {
	for i := 1; i < len(b.Values); i++ {
		if !b.Values[i-1].Less(b.Values[i]) {
			return false
		}
	}
	return true
}

// Compare orders ballots by counter first, then by their (already sorted)
// value sequences lexicographically.
func (b Ballot) Compare(o Ballot) int {
	if b.Counter != o.Counter {
		if b.Counter < o.Counter {
			return -1
		}
		return 1
	}
	n := len(b.Values)
	if len(o.Values) < n {
		n = len(o.Values)
	}
	for i := 0; i < n; i++ {
		if b.Values[i].Less(o.Values[i]) {
			return -1
		}
		if o.Values[i].Less(b.Values[i]) {
			return 1
		}
	}
	switch {
	case len(b.Values) < len(o.Values):
		return -1
	case len(b.Values) > len(o.Values):
		return 1
	default:
		return 0
	}
}

// Incompatible reports whether two ballots' value sets are disjoint, the
// relation the prepare phase's p/p' tracking needs to find the
// second-highest prepared ballot incompatible with the first.
func (b Ballot) Incompatible(o Ballot) bool {
	set := make(map[Value]bool, len(b.Values))
	for _, v := range b.Values {
		set[v] = true
	}
	for _, v := range o.Values {
		if set[v] {
			return false
		}
	}
	return true
}
