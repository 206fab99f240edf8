package scp

import (
	"errors"
	"testing"

	"github.com/botho-project/botho/pkg/bothoerr"
)

func TestCheckIntersectionPassesForOverlappingSymmetricQuorums(t *testing.T) {
	ids := []NodeID{nodeID(1), nodeID(2), nodeID(3), nodeID(4)}
	qsets := symmetricQuorumSets(ids, 3)

	if err := CheckIntersection(qsets); err != nil {
		t.Fatalf("expected a symmetric threshold-3-of-4 configuration to intersect, got: %v", err)
	}
}

func TestCheckIntersectionFailsForTwoDisjointCliques(t *testing.T) {
	a, b, c, d := nodeID(1), nodeID(2), nodeID(3), nodeID(4)
	// Two independent 2-of-2 cliques that never need to agree with each
	// other: {a,b} and {c,d} are each quorums on their own.
	qsets := map[NodeID]QuorumSet{
		a: {Threshold: 2, Validators: []NodeID{a, b}},
		b: {Threshold: 2, Validators: []NodeID{a, b}},
		c: {Threshold: 2, Validators: []NodeID{c, d}},
		d: {Threshold: 2, Validators: []NodeID{c, d}},
	}

	err := CheckIntersection(qsets)
	if err == nil {
		t.Fatal("expected disjoint cliques to fail the intersection check")
	}
	if !bothoerr.Is(err, bothoerr.KindFatal) {
		t.Fatalf("expected a fatal error kind, got %v", err)
	}
	if !errors.Is(err, errQuorumIntersectionFailed) {
		t.Fatal("expected the sentinel intersection-failure error")
	}
}
