package curve

import "testing"

func TestScalarRoundTrip(t *testing.T) {
	s, err := RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	b := s.Bytes()
	s2, err := ScalarFromCanonicalBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(s2) {
		t.Fatal("round trip mismatch")
	}
}

func TestScalarNonCanonicalRejected(t *testing.T) {
	// l itself (the group order) is not a canonical scalar encoding.
	l := []byte{
		0xed, 0xd3, 0xf5, 0x5c, 0x1a, 0x63, 0x12, 0x58,
		0xd6, 0x9c, 0xf7, 0xa2, 0xde, 0xf9, 0xde, 0x14,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10,
	}
	if _, err := ScalarFromCanonicalBytes(l); err == nil {
		t.Fatal("expected non-canonical rejection")
	}
}

func TestPointRejectsSmallOrder(t *testing.T) {
	var identity [32]byte
	identity[0] = 1
	if _, err := PointFromCanonicalBytes(identity[:]); err == nil {
		t.Fatal("expected small-order rejection of identity encoding")
	}
}

func TestPointRoundTrip(t *testing.T) {
	s, err := RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	p := ScalarBaseMult(s)
	b := p.Bytes()
	p2, err := PointFromCanonicalBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Equal(p2) {
		t.Fatal("point round trip mismatch")
	}
}

func TestHashToPointDeterministicAndOnCurve(t *testing.T) {
	p1 := HashToPoint("botho-test-label", []byte("abc"))
	p2 := HashToPoint("botho-test-label", []byte("abc"))
	if !p1.Equal(p2) {
		t.Fatal("HashToPoint not deterministic")
	}
	if _, err := PointFromCanonicalBytes(p1.Bytes()); err != nil {
		t.Fatalf("HashToPoint produced an invalid encoding: %v", err)
	}
}

func TestHashToPointDomainSeparation(t *testing.T) {
	p1 := HashToPoint("botho-hs", []byte("x"))
	p2 := HashToPoint("botho-keyimage", []byte("x"))
	if p1.Equal(p2) {
		t.Fatal("distinct labels collided")
	}
}

func TestHGeneratorNotBasePoint(t *testing.T) {
	h := HGenerator()
	g := BasePoint()
	if h.Equal(g) {
		t.Fatal("H must differ from G")
	}
}

func TestMultiScalarMultMatchesSequential(t *testing.T) {
	a, _ := RandomScalar()
	b, _ := RandomScalar()
	pa := ScalarBaseMult(a)
	pb := HGenerator()
	got := MultiScalarMult([]*Scalar{a, b}, []*Point{pa, pb})
	want := pa.ScalarMult(a).Add(pb.ScalarMult(b))
	if !got.Equal(want) {
		t.Fatal("multi-scalar mult mismatch")
	}
}
