package scp

import "testing"

func valueWithPriority(id byte, priority uint64) Value {
	var v Value
	v.MintingTxID[0] = id
	v.PowPriority = priority
	return v
}

func TestValueLessOrdersByPriorityThenTxID(t *testing.T) {
	low := valueWithPriority(2, 1)
	high := valueWithPriority(1, 2)
	if !low.Less(high) {
		t.Fatal("lower PowPriority should sort first regardless of txid")
	}

	tie1 := valueWithPriority(1, 5)
	tie2 := valueWithPriority(2, 5)
	if !tie1.Less(tie2) {
		t.Fatal("equal priority should tiebreak on MintingTxID")
	}
}

func TestBallotSorted(t *testing.T) {
	v1, v2 := valueWithPriority(1, 1), valueWithPriority(2, 2)
	ascending := Ballot{Counter: 1, Values: []Value{v1, v2}}
	if !ascending.Sorted() {
		t.Fatal("expected ascending values to report sorted")
	}
	descending := Ballot{Counter: 1, Values: []Value{v2, v1}}
	if descending.Sorted() {
		t.Fatal("expected descending values to report unsorted")
	}
}

func TestBallotCompare(t *testing.T) {
	v1, v2 := valueWithPriority(1, 1), valueWithPriority(2, 2)
	low := Ballot{Counter: 1, Values: []Value{v1}}
	high := Ballot{Counter: 2, Values: []Value{v1}}
	if low.Compare(high) >= 0 {
		t.Fatal("a lower counter must compare less regardless of values")
	}
	sameCounterLow := Ballot{Counter: 1, Values: []Value{v1}}
	sameCounterHigh := Ballot{Counter: 1, Values: []Value{v2}}
	if sameCounterLow.Compare(sameCounterHigh) >= 0 {
		t.Fatal("with equal counters, values break the tie lexicographically")
	}
	if low.Compare(low) != 0 {
		t.Fatal("a ballot must compare equal to itself")
	}
}

func TestBallotIncompatible(t *testing.T) {
	v1, v2, v3 := valueWithPriority(1, 1), valueWithPriority(2, 2), valueWithPriority(3, 3)
	a := Ballot{Counter: 1, Values: []Value{v1, v2}}
	b := Ballot{Counter: 2, Values: []Value{v2, v3}}
	if a.Incompatible(b) {
		t.Fatal("ballots sharing v2 are not incompatible")
	}
	c := Ballot{Counter: 3, Values: []Value{v3}}
	if !a.Incompatible(c) {
		t.Fatal("ballots with disjoint value sets should be incompatible")
	}
}
