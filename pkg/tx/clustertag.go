package tx

import "sort"

// totalPPM is the full weight, in parts per million, of a TagVector. The
// background mass held by no named cluster is never stored explicitly:
// TagVector invariant is that the sum of its entries plus background equals
// totalPPM.
const totalPPM = 1_000_000

// minEntryPPM is the pruning floor: an entry below this weight is folded
// into the background instead of carried forward explicitly.
const minEntryPPM = 1_000

// maxTagEntries bounds how many named clusters a single output can carry.
const maxTagEntries = 16

// decayFactor is applied once per hop when the spent UTXO is old enough
// (ageGateBlocks) to qualify for wash-cycling resistance.
const decayFactor = 0.95

// ageGateBlocks is the minimum UTXO age, in blocks, for decay to apply on
// the hop spending it. Younger UTXOs carry tags forward unchanged.
const ageGateBlocks = 720

// ClusterTag is one entry of a TagVector: a cluster identity and its weight
// in parts per million.
type ClusterTag struct {
	ClusterID [32]byte
	WeightPPM uint32
}

// TagVector is a sparse cluster_id -> weight_ppm mapping, sorted by
// ClusterID for canonical encoding. Entries plus the implicit background
// always sum to totalPPM.
type TagVector struct {
	Entries []ClusterTag
}

func (tv TagVector) sum() uint64 {
	var total uint64
	for _, e := range tv.Entries {
		total += uint64(e.WeightPPM)
	}
	return total
}

// Normalize sorts entries by ClusterID, merges duplicates, prunes anything
// below minEntryPPM into background, and truncates to the maxTagEntries
// largest remaining entries.
func (tv TagVector) Normalize() TagVector {
	merged := make(map[[32]byte]uint64, len(tv.Entries))
	for _, e := range tv.Entries {
		merged[e.ClusterID] += uint64(e.WeightPPM)
	}
	out := make([]ClusterTag, 0, len(merged))
	for id, w := range merged {
		if w < minEntryPPM {
			continue
		}
		out = append(out, ClusterTag{ClusterID: id, WeightPPM: uint32(w)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeightPPM != out[j].WeightPPM {
			return out[i].WeightPPM > out[j].WeightPPM
		}
		return lessBytes(out[i].ClusterID[:], out[j].ClusterID[:])
	})
	if len(out) > maxTagEntries {
		out = out[:maxTagEntries]
	}
	sort.Slice(out, func(i, j int) bool { return lessBytes(out[i].ClusterID[:], out[j].ClusterID[:]) })
	return TagVector{Entries: out}
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Blend computes the value-weighted average cluster tag vector of a set of
// spent input tags (weighted by each input's amount), then applies the 5%
// decay if decay reports true, per the builder step in the transaction
// model: "Blend cluster tags of inputs by value-weighted average; apply 5%
// multiplicative decay ... only if every input UTXO is at least 720 blocks
// old."
func Blend(inputs []TaggedValue, decay bool) TagVector {
	var totalValue uint64
	for _, in := range inputs {
		totalValue += in.Amount
	}
	if totalValue == 0 {
		return TagVector{}
	}
	weighted := make(map[[32]byte]float64)
	for _, in := range inputs {
		share := float64(in.Amount) / float64(totalValue)
		for _, e := range in.Tags.Entries {
			weighted[e.ClusterID] += share * float64(e.WeightPPM)
		}
	}
	if decay {
		for id := range weighted {
			weighted[id] *= decayFactor
		}
	}
	entries := make([]ClusterTag, 0, len(weighted))
	for id, w := range weighted {
		if w < 0 {
			w = 0
		}
		entries = append(entries, ClusterTag{ClusterID: id, WeightPPM: uint32(w)})
	}
	return TagVector{Entries: entries}.Normalize()
}

// TaggedValue pairs an amount with the tag vector of the UTXO that carries
// it, and whether that UTXO is old enough to gate decay on the hop that
// spends it.
type TaggedValue struct {
	Amount  uint64
	Tags    TagVector
	AgeGood bool // true once the spending input's UTXO is >= ageGateBlocks old
}

// AllAged reports whether every input qualifies for decay: all of them are
// at least ageGateBlocks old.
func AllAged(inputs []TaggedValue) bool {
	for _, in := range inputs {
		if !in.AgeGood {
			return false
		}
	}
	return true
}

// DominantCluster returns the cluster_id with the greatest weight in tv, and
// reports false if tv carries no named clusters (all mass is background).
func (tv TagVector) DominantCluster() ([32]byte, bool) {
	var best ClusterTag
	found := false
	for _, e := range tv.Entries {
		if !found || e.WeightPPM > best.WeightPPM {
			best = e
			found = true
		}
	}
	return best.ClusterID, found
}
