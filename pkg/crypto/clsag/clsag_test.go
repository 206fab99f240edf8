package clsag

import (
	"testing"

	"github.com/botho-project/botho/pkg/curve"
)

func buildRing(t *testing.T, realIndex int) (*Ring, *curve.Point, *curve.Scalar, *curve.Scalar, []*curve.Scalar) {
	t.Helper()
	n := RingSize
	pubkeys := make([]*curve.Point, n)
	commitments := make([]*curve.Point, n)
	privkeys := make([]*curve.Scalar, n)
	blindings := make([]*curve.Scalar, n)

	for i := 0; i < n; i++ {
		sk, err := curve.RandomScalar()
		if err != nil {
			t.Fatal(err)
		}
		privkeys[i] = sk
		pubkeys[i] = curve.ScalarBaseMult(sk)

		b, err := curve.RandomScalar()
		if err != nil {
			t.Fatal(err)
		}
		blindings[i] = b
		commitments[i] = curve.ScalarBaseMult(b) // toy commitment, only the diff matters
	}

	pseudoBlinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	pseudoOut := curve.ScalarBaseMult(pseudoBlinding)

	// z = blinding[real] - pseudoBlinding, so V_real - pseudoOut = z*G
	z := blindings[realIndex].Sub(pseudoBlinding)

	ring := &Ring{Pubkeys: pubkeys, Commitments: commitments}
	return ring, pseudoOut, privkeys[realIndex], z, privkeys
}

func TestSignVerifyRoundTrip(t *testing.T) {
	realIndex := 7
	ring, pseudoOut, x, z, _ := buildRing(t, realIndex)
	msg := []byte("spend 10 botho to alice")

	sig, err := Sign(ring, pseudoOut, realIndex, x, z, msg)
	if err != nil {
		t.Fatal(err)
	}
	if !Verify(sig, ring, pseudoOut, msg) {
		t.Fatal("valid signature failed to verify")
	}
}

func TestKeyImageStableAcrossSignatures(t *testing.T) {
	realIndex := 3
	ring, pseudoOut, x, z, _ := buildRing(t, realIndex)

	sig1, err := Sign(ring, pseudoOut, realIndex, x, z, []byte("msg1"))
	if err != nil {
		t.Fatal(err)
	}
	sig2, err := Sign(ring, pseudoOut, realIndex, x, z, []byte("msg2"))
	if err != nil {
		t.Fatal(err)
	}
	if !sig1.KeyImage.Equal(sig2.KeyImage) {
		t.Fatal("key image must be identical across signatures by the same spender")
	}
}

func TestKeyImageDiffersAcrossSpenders(t *testing.T) {
	ring1, pseudoOut1, x1, z1, _ := buildRing(t, 0)
	ring2, pseudoOut2, x2, z2, _ := buildRing(t, 0)

	sig1, _ := Sign(ring1, pseudoOut1, 0, x1, z1, []byte("m"))
	sig2, _ := Sign(ring2, pseudoOut2, 0, x2, z2, []byte("m"))
	if sig1.KeyImage.Equal(sig2.KeyImage) {
		t.Fatal("key images for different spenders must differ")
	}
}

func TestTamperedMessageRejected(t *testing.T) {
	realIndex := 1
	ring, pseudoOut, x, z, _ := buildRing(t, realIndex)
	sig, err := Sign(ring, pseudoOut, realIndex, x, z, []byte("original"))
	if err != nil {
		t.Fatal(err)
	}
	if Verify(sig, ring, pseudoOut, []byte("tampered")) {
		t.Fatal("tampered message must not verify")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	realIndex := 2
	ring, pseudoOut, _, z, _ := buildRing(t, realIndex)
	wrongSecret, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	sig, err := Sign(ring, pseudoOut, realIndex, wrongSecret, z, []byte("m"))
	if err != nil {
		t.Fatal(err)
	}
	if Verify(sig, ring, pseudoOut, []byte("m")) {
		t.Fatal("signature with wrong secret must not verify")
	}
}

func TestSwappedRingMemberRejected(t *testing.T) {
	realIndex := 5
	ring, pseudoOut, x, z, _ := buildRing(t, realIndex)
	sig, err := Sign(ring, pseudoOut, realIndex, x, z, []byte("m"))
	if err != nil {
		t.Fatal(err)
	}
	other, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	ring.Pubkeys[0] = curve.ScalarBaseMult(other)
	if Verify(sig, ring, pseudoOut, []byte("m")) {
		t.Fatal("swapped ring member must not verify")
	}
}

func TestWrongRingSizeRejected(t *testing.T) {
	realIndex := 0
	ring, pseudoOut, x, z, _ := buildRing(t, realIndex)
	ring.Pubkeys = ring.Pubkeys[:10]
	ring.Commitments = ring.Commitments[:10]
	if _, err := Sign(ring, pseudoOut, realIndex, x, z, []byte("m")); err != ErrWrongRingSize {
		t.Fatalf("expected ErrWrongRingSize, got %v", err)
	}
}

func TestDuplicateRingMemberRejected(t *testing.T) {
	realIndex := 0
	ring, pseudoOut, x, z, _ := buildRing(t, realIndex)
	ring.Pubkeys[1] = ring.Pubkeys[0]
	if _, err := Sign(ring, pseudoOut, realIndex, x, z, []byte("m")); err != ErrDuplicateMember {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}
}
