package curve

import (
	"bytes"

	"filippo.io/edwards25519"
)

// Point is a group element of the prime-order subgroup of edwards25519,
// addressed throughout botho with Ristretto-style semantics: every
// canonical 32-byte encoding decodes to exactly one logical point, and
// decoding rejects both non-canonical byte strings and points of small
// order (the cofactor-8 torsion subgroup).
type Point struct {
	p *edwards25519.Point
}

// smallOrderEncodings is the fixed set of canonical 32-byte encodings of the
// eight points whose order divides the curve's cofactor (8). Rejecting them
// on decode is the standard hardening technique used by libsodium's
// crypto_core_ed25519 and carried here for the same reason: a small-order
// point smuggled into a scalar multiplication can otherwise leak key
// material through its algebraic periodicity.
var smallOrderEncodings = [][32]byte{
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0x26, 0xe8, 0x95, 0x8f, 0xc2, 0xb2, 0x27, 0xb0, 0x45, 0xc3, 0xf4, 0x89, 0xf2, 0xef, 0x98, 0xf0,
		0xd5, 0xdf, 0xac, 0x05, 0xd3, 0xc6, 0x33, 0x39, 0xb1, 0x38, 0x02, 0x88, 0x6d, 0x53, 0xfc, 0x05},
	{0xc7, 0x17, 0x6a, 0x70, 0x3d, 0x4d, 0xd8, 0x4f, 0xba, 0x3c, 0x0b, 0x76, 0x0d, 0x10, 0x67, 0x0f,
		0x2a, 0x20, 0x53, 0xfa, 0x2c, 0x39, 0xcc, 0xc6, 0x4e, 0xc7, 0xfd, 0x77, 0x92, 0xac, 0x03, 0x7a},
	{0xec, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80},
	{0x26, 0xe8, 0x95, 0x8f, 0xc2, 0xb2, 0x27, 0xb0, 0x45, 0xc3, 0xf4, 0x89, 0xf2, 0xef, 0x98, 0xf0,
		0xd5, 0xdf, 0xac, 0x05, 0xd3, 0xc6, 0x33, 0x39, 0xb1, 0x38, 0x02, 0x88, 0x6d, 0x53, 0xfc, 0x85},
	{0xc7, 0x17, 0x6a, 0x70, 0x3d, 0x4d, 0xd8, 0x4f, 0xba, 0x3c, 0x0b, 0x76, 0x0d, 0x10, 0x67, 0x0f,
		0x2a, 0x20, 0x53, 0xfa, 0x2c, 0x39, 0xcc, 0xc6, 0x4e, 0xc7, 0xfd, 0x77, 0x92, 0xac, 0x03, 0xfa},
}

func isSmallOrderEncoding(b []byte) bool {
	for _, enc := range smallOrderEncodings {
		if bytes.Equal(b, enc[:]) {
			return true
		}
	}
	return false
}

// BasePoint returns the standard basepoint G.
func BasePoint() *Point {
	return &Point{p: edwards25519.NewGeneratorPoint()}
}

// Identity returns the group identity element.
func Identity() *Point {
	return &Point{p: edwards25519.NewIdentityPoint()}
}

// PointFromCanonicalBytes decodes a 32-byte point, rejecting non-canonical
// encodings and points of small order.
func PointFromCanonicalBytes(b []byte) (*Point, error) {
	if len(b) != 32 {
		return nil, ErrNonCanonical
	}
	if isSmallOrderEncoding(b) {
		return nil, ErrNonCanonical
	}
	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, ErrNonCanonical
	}
	// Reject non-canonical encodings: re-encoding must round-trip exactly.
	if !bytes.Equal(p.Bytes(), b) {
		return nil, ErrNonCanonical
	}
	return &Point{p: p}, nil
}

// Bytes returns the canonical 32-byte encoding.
func (pt *Point) Bytes() []byte {
	return pt.p.Bytes()
}

// Equal reports constant-time equality.
func (pt *Point) Equal(o *Point) bool {
	return pt.p.Equal(o.p) == 1
}

// Add returns pt + o.
func (pt *Point) Add(o *Point) *Point {
	return &Point{p: edwards25519.NewIdentityPoint().Add(pt.p, o.p)}
}

// Sub returns pt - o.
func (pt *Point) Sub(o *Point) *Point {
	return &Point{p: edwards25519.NewIdentityPoint().Subtract(pt.p, o.p)}
}

// Negate returns -pt.
func (pt *Point) Negate() *Point {
	return &Point{p: edwards25519.NewIdentityPoint().Negate(pt.p)}
}

// ScalarMult returns s*pt.
func (pt *Point) ScalarMult(s *Scalar) *Point {
	return &Point{p: edwards25519.NewIdentityPoint().ScalarMult(s.s, pt.p)}
}

// ScalarBaseMult returns s*G.
func ScalarBaseMult(s *Scalar) *Point {
	return &Point{p: edwards25519.NewIdentityPoint().ScalarBaseMult(s.s)}
}

// MultiScalarMult returns the sum of scalars[i]*points[i].
func MultiScalarMult(scalars []*Scalar, points []*Point) *Point {
	ss := make([]*edwards25519.Scalar, len(scalars))
	ps := make([]*edwards25519.Point, len(points))
	for i, s := range scalars {
		ss[i] = s.s
	}
	for i, p := range points {
		ps[i] = p.p
	}
	return &Point{p: edwards25519.NewIdentityPoint().MultiScalarMult(ss, ps)}
}

// IsIdentity reports whether pt is the group identity.
func (pt *Point) IsIdentity() bool {
	return pt.Equal(Identity())
}

// HGenerator is the second Pedersen generator H, derived by hash-to-curve
// from a fixed nothing-up-my-sleeve label so nobody knows log_G(H).
func HGenerator() *Point {
	return HashToPoint("botho-pedersen-H")
}

// HashToPoint maps label||parts to a point whose discrete log relative to G
// is computationally unknown to everyone, using try-and-increment: hash to a
// 32-byte candidate, attempt to decode it as a compressed point, and on
// failure (non-canonical encoding, or a point outside the curve) increment a
// counter and rehash. The accepted candidate is then cleared of cofactor by
// multiplying by 8, landing it in the prime-order subgroup, exactly as
// CryptoNote-family hash_to_ec implementations do. Unlike HashToScalar (used
// for Hs, where a public discrete log is fine because Hs's output is always
// consumed as a scalar, never as "the" generator), this is the primitive
// behind the Pedersen H generator and the key-image map H_p, both of which
// require an unknown discrete log to be sound.
func HashToPoint(label string, parts ...[]byte) *Point {
	counter := uint32(0)
	for {
		var ctrBytes [4]byte
		ctrBytes[0] = byte(counter)
		ctrBytes[1] = byte(counter >> 8)
		ctrBytes[2] = byte(counter >> 16)
		ctrBytes[3] = byte(counter >> 24)
		digest := hashWide(label, append(append([][]byte{}, parts...), ctrBytes[:])...)
		candidate := digest[:32]
		if !isSmallOrderEncoding(candidate) {
			if p, err := edwards25519.NewIdentityPoint().SetBytes(candidate); err == nil {
				cleared := clearCofactor(p)
				return &Point{p: cleared}
			}
		}
		counter++
	}
}

// clearCofactor multiplies p by the curve's cofactor (8), projecting any
// point into the prime-order subgroup regardless of its original torsion
// component.
func clearCofactor(p *edwards25519.Point) *edwards25519.Point {
	eight := edwards25519.NewScalar()
	eightBytes := make([]byte, 64)
	eightBytes[0] = 8
	eight.SetUniformBytes(eightBytes)
	return edwards25519.NewIdentityPoint().ScalarMult(eight, p)
}
