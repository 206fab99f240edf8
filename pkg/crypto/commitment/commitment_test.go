package commitment

import (
	"testing"

	"github.com/botho-project/botho/pkg/curve"
)

func TestHomomorphicSum(t *testing.T) {
	b1, _ := curve.RandomScalar()
	b2, _ := curve.RandomScalar()
	c1 := Commit(10, b1)
	c2 := Commit(20, b2)
	sum := c1.Add(c2)

	bSum := b1.Add(b2)
	want := Commit(30, bSum)
	if !sum.Equal(want) {
		t.Fatal("homomorphic sum mismatch")
	}
}

func TestBalanceEquation(t *testing.T) {
	bIn, _ := curve.RandomScalar()
	bOut, _ := curve.RandomScalar()
	in := Commit(1000, bIn)
	out := Commit(900, bOut)
	fee := FeeCommitment(100)

	// in == out + fee iff blinding factors also balance.
	lhs := in
	rhs := out.Add(fee)
	if lhs.Equal(rhs) {
		t.Fatal("commitments should not match with unrelated blindings")
	}

	// Now force blinding conservation: bIn == bOut (fee carries no blinding).
	out2 := Commit(900, bIn)
	rhs2 := out2.Add(fee)
	if !lhs.Equal(rhs2) {
		t.Fatal("balance equation should hold when blindings conserve")
	}
}

func TestRoundTripBytes(t *testing.T) {
	b, _ := curve.RandomScalar()
	c := Commit(42, b)
	enc := c.Bytes()
	c2, err := FromBytes(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equal(c2) {
		t.Fatal("round trip mismatch")
	}
}
