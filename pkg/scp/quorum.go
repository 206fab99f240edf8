// Package scp implements the federated-voting consensus core: nomination,
// the ballot protocol (prepare/commit/externalize), quorum-set evaluation,
// and the quorum-intersection safety check the configuration layer must
// run at startup and on any quorum-set change.
package scp

import (
	"github.com/botho-project/botho/pkg/scpmsg"
)

// NodeID is re-exported from pkg/scpmsg so callers building a QuorumSet
// don't need to import both packages for one type.
type NodeID = scpmsg.NodeID

// QuorumSet is a threshold tree: the slice is satisfied when at least
// Threshold of (Validators ++ InnerSets) are present/satisfied in a
// candidate member set.
type QuorumSet struct {
	Threshold  int
	Validators []NodeID
	InnerSets  []QuorumSet
}

// Satisfies reports whether members contains a slice of qs: the number of
// qs's direct validators in members plus the number of qs's inner sets
// satisfied by members is at least qs.Threshold.
func (qs QuorumSet) Satisfies(members map[NodeID]bool) bool {
	if qs.Threshold <= 0 {
		return true
	}
	count := 0
	for _, v := range qs.Validators {
		if members[v] {
			count++
		}
	}
	for _, inner := range qs.InnerSets {
		if inner.Satisfies(members) {
			count++
		}
	}
	return count >= qs.Threshold
}

// allNodes collects every validator named anywhere in the tree, including
// nested inner sets.
func (qs QuorumSet) allNodes() []NodeID {
	out := append([]NodeID{}, qs.Validators...)
	for _, inner := range qs.InnerSets {
		out = append(out, inner.allNodes()...)
	}
	return out
}

// IsQuorum reports whether members is a quorum: nonempty, and every member
// has its own quorum slice satisfied by members. This is the FBAS
// definition of "quorum" (a self-contained, slice-closed set) — it is not
// anchored to any particular node.
func IsQuorum(members map[NodeID]bool, quorumSets map[NodeID]QuorumSet) bool {
	if len(members) == 0 {
		return false
	}
	for id := range members {
		qs, ok := quorumSets[id]
		if !ok {
			return false
		}
		if !qs.Satisfies(members) {
			return false
		}
	}
	return true
}

// IsBlocking reports whether blockers is a v-blocking set for selfQS: the
// complement of blockers within universe cannot satisfy selfQS under any
// circumstance, i.e. even every non-blocked node voting together fails to
// reach a slice.
func IsBlocking(selfQS QuorumSet, blockers map[NodeID]bool, universe []NodeID) bool {
	remaining := make(map[NodeID]bool, len(universe))
	for _, n := range universe {
		if !blockers[n] {
			remaining[n] = true
		}
	}
	return !selfQS.Satisfies(remaining)
}

// FederatedAccept implements the shared "accept" rule used by nomination,
// prepare, and commit: v accepts statement X when either a quorum has
// voted-or-accepted X, or a v-blocking set has accepted X.
func FederatedAccept(votedOrAccepted, acceptedOnly map[NodeID]bool, selfQS QuorumSet, quorumSets map[NodeID]QuorumSet, universe []NodeID) bool {
	if IsQuorum(votedOrAccepted, quorumSets) {
		return true
	}
	return IsBlocking(selfQS, acceptedOnly, universe)
}

// FederatedConfirm implements the shared "confirm" rule: v confirms
// statement X when a quorum has accepted X.
func FederatedConfirm(accepted map[NodeID]bool, quorumSets map[NodeID]QuorumSet) bool {
	return IsQuorum(accepted, quorumSets)
}
