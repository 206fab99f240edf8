package scp

import "github.com/botho-project/botho/pkg/bothoerr"

// errQuorumIntersectionFailed is fatal: the safety of federated voting
// depends on every pair of quorums sharing a node, so a failed check must
// stop the node rather than let it run unsafely.
var errQuorumIntersectionFailed = bothoerr.New(bothoerr.KindFatal, "scp.CheckIntersection", "found two disjoint quorums in the configured quorum sets")

// CheckIntersection verifies that every pair of quorums derivable from
// quorumSets shares at least one node, the safety precondition federated
// voting depends on. It must run at startup and again on any quorum-set
// reconfiguration.
//
// This enumerates subsets of the validator universe directly, which is
// exponential in the number of distinct validators; it is only practical
// for the validator-set sizes a single SCP deployment actually runs with
// (tens of nodes, not thousands). A production deployment at larger scale
// would want the minimal-quorum enumeration from the literature instead.
func CheckIntersection(quorumSets map[NodeID]QuorumSet) error {
	universe := universeOf(quorumSets)
	quorums := enumerateQuorums(universe, quorumSets)

	for i := 0; i < len(quorums); i++ {
		for j := i + 1; j < len(quorums); j++ {
			if !intersects(quorums[i], quorums[j]) {
				return errQuorumIntersectionFailed
			}
		}
	}
	return nil
}

func universeOf(quorumSets map[NodeID]QuorumSet) []NodeID {
	seen := make(map[NodeID]bool)
	var out []NodeID
	for id, qs := range quorumSets {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
		for _, n := range qs.allNodes() {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// enumerateQuorums returns every nonempty subset of universe that is a
// quorum under quorumSets.
func enumerateQuorums(universe []NodeID, quorumSets map[NodeID]QuorumSet) []map[NodeID]bool {
	n := len(universe)
	var quorums []map[NodeID]bool
	for mask := 1; mask < (1 << n); mask++ {
		members := make(map[NodeID]bool)
		for i, id := range universe {
			if mask&(1<<i) != 0 {
				members[id] = true
			}
		}
		if IsQuorum(members, quorumSets) {
			quorums = append(quorums, members)
		}
	}
	return quorums
}

func intersects(a, b map[NodeID]bool) bool {
	for id := range a {
		if b[id] {
			return true
		}
	}
	return false
}
