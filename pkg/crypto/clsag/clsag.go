// Package clsag implements the CLSAG (Compact Linkable Spontaneous
// Anonymous Group) ring signature used by botho's Private transactions to
// hide which ring member is the real spender, per spec section 4.1.
package clsag

import (
	"errors"

	"github.com/botho-project/botho/pkg/curve"
)

// RingSize is the mandatory ring cardinality for a botho CLSAG signature.
const RingSize = 20

var (
	ErrEmptyRing        = errors.New("clsag: empty ring")
	ErrWrongRingSize     = errors.New("clsag: ring size must be exactly 20")
	ErrDuplicateMember   = errors.New("clsag: duplicate ring member")
	ErrRingClosureFailed = errors.New("clsag: ring closure check failed")
)

// Signature is the CLSAG output: a starting challenge, one response scalar
// per ring member, the key image, and the auxiliary commitment-difference
// image D.
type Signature struct {
	C0        *curve.Scalar
	Responses []*curve.Scalar
	KeyImage  *curve.Point // I = x_j * Hp(P_j)
	D         *curve.Point // D = z_j * Hp(P_j)
}

// Ring bundles the public data every ring member contributes: one-time
// output public key P_i and its commitment V_i.
type Ring struct {
	Pubkeys     []*curve.Point
	Commitments []*commitmentPoint
}

// commitmentPoint avoids importing pkg/crypto/commitment to prevent an
// import cycle (commitment composes atop curve only; clsag stays at the
// same layer and takes raw points).
type commitmentPoint = curve.Point

// GenerateKeyImage computes I = x * Hp(P) for one-time secret x and public
// key P, per spec section 3's Key image definition.
func GenerateKeyImage(x *curve.Scalar, p *curve.Point) *curve.Point {
	hp := curve.HashToPoint("botho-keyimage", p.Bytes())
	return hp.ScalarMult(x)
}

func hp(p *curve.Point) *curve.Point {
	return curve.HashToPoint("botho-keyimage", p.Bytes())
}

func aggregationCoefficients(ring *Ring, pseudoOut *curve.Point, I, D *curve.Point) (muP, muC *curve.Scalar) {
	parts := make([][]byte, 0, 2*len(ring.Pubkeys)+3)
	for _, p := range ring.Pubkeys {
		parts = append(parts, p.Bytes())
	}
	for _, v := range ring.Commitments {
		parts = append(parts, v.Bytes())
	}
	parts = append(parts, pseudoOut.Bytes(), I.Bytes(), D.Bytes())
	muP = curve.HashToScalar("CLSAG_agg_0", parts...)
	muC = curve.HashToScalar("CLSAG_agg_1", parts...)
	return
}

func aggregateRing(ring *Ring, pseudoOut *curve.Point, muP, muC *curve.Scalar) []*curve.Point {
	w := make([]*curve.Point, len(ring.Pubkeys))
	for i := range ring.Pubkeys {
		diff := ring.Commitments[i].Sub(pseudoOut)
		w[i] = ring.Pubkeys[i].ScalarMult(muP).Add(diff.ScalarMult(muC))
	}
	return w
}

func roundChallenge(message []byte, l, r *curve.Point) *curve.Scalar {
	return curve.HashToScalar("CLSAG_round", message, l.Bytes(), r.Bytes())
}

func validateRingShape(ring *Ring) error {
	n := len(ring.Pubkeys)
	if n == 0 {
		return ErrEmptyRing
	}
	if n != RingSize {
		return ErrWrongRingSize
	}
	if len(ring.Commitments) != n {
		return ErrWrongRingSize
	}
	seen := make(map[string]bool, n)
	for _, p := range ring.Pubkeys {
		key := string(p.Bytes())
		if seen[key] {
			return ErrDuplicateMember
		}
		seen[key] = true
	}
	return nil
}

// Sign produces a CLSAG signature over message, given the full ring, the
// index of the real signer, the real one-time secret x (with P_real = x*G)
// and the blinding difference secret z (with V_real - pseudoOut = z*G).
func Sign(ring *Ring, pseudoOut *curve.Point, realIndex int, x, z *curve.Scalar, message []byte) (*Signature, error) {
	if err := validateRingShape(ring); err != nil {
		return nil, err
	}
	n := len(ring.Pubkeys)
	if realIndex < 0 || realIndex >= n {
		return nil, errors.New("clsag: real index out of range")
	}
	realHp := hp(ring.Pubkeys[realIndex])
	I := realHp.ScalarMult(x)
	D := realHp.ScalarMult(z)

	muP, muC := aggregationCoefficients(ring, pseudoOut, I, D)
	w := aggregateRing(ring, pseudoOut, muP, muC)
	wl := muP.Mul(x).Add(muC.Mul(z))
	iAgg := I.ScalarMult(muP).Add(D.ScalarMult(muC))

	alpha, err := curve.RandomScalar()
	if err != nil {
		return nil, err
	}
	defer alpha.Zero()
	defer wl.Zero()

	challenges := make([]*curve.Scalar, n)
	responses := make([]*curve.Scalar, n)

	aG := curve.ScalarBaseMult(alpha)
	aHp := realHp.ScalarMult(alpha)
	c := roundChallenge(message, aG, aHp)

	idx := (realIndex + 1) % n
	for step := 0; step < n-1; step++ {
		challenges[idx] = c
		s, err := curve.RandomScalar()
		if err != nil {
			return nil, err
		}
		responses[idx] = s

		l := curve.ScalarBaseMult(s).Add(w[idx].ScalarMult(c))
		r := hp(ring.Pubkeys[idx]).ScalarMult(s).Add(iAgg.ScalarMult(c))
		c = roundChallenge(message, l, r)
		idx = (idx + 1) % n
	}
	challenges[realIndex] = c
	responses[realIndex] = alpha.Sub(c.Mul(wl))

	return &Signature{
		C0:        challenges[0],
		Responses: responses,
		KeyImage:  I,
		D:         D,
	}, nil
}

// Verify checks a CLSAG signature against message and the public ring data.
// It never mutates state and never panics on malformed input; all failure
// modes return false.
func Verify(sig *Signature, ring *Ring, pseudoOut *curve.Point, message []byte) bool {
	if sig == nil || ring == nil || pseudoOut == nil {
		return false
	}
	if err := validateRingShape(ring); err != nil {
		return false
	}
	n := len(ring.Pubkeys)
	if len(sig.Responses) != n {
		return false
	}
	if sig.KeyImage == nil || sig.D == nil || sig.C0 == nil {
		return false
	}
	if sig.KeyImage.IsIdentity() {
		return false
	}

	muP, muC := aggregationCoefficients(ring, pseudoOut, sig.KeyImage, sig.D)
	w := aggregateRing(ring, pseudoOut, muP, muC)
	iAgg := sig.KeyImage.ScalarMult(muP).Add(sig.D.ScalarMult(muC))

	c := sig.C0
	for i := 0; i < n; i++ {
		s := sig.Responses[i]
		if s == nil {
			return false
		}
		l := curve.ScalarBaseMult(s).Add(w[i].ScalarMult(c))
		r := hp(ring.Pubkeys[i]).ScalarMult(s).Add(iAgg.ScalarMult(c))
		c = roundChallenge(message, l, r)
	}
	return c.Equal(sig.C0)
}
