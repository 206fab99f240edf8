// Package commitment implements Pedersen amount commitments: V = v*H + b*G.
package commitment

import (
	"encoding/binary"

	"github.com/botho-project/botho/pkg/curve"
)

// Commitment is an additively-homomorphic, computationally-binding,
// perfectly-hiding encoding of an amount.
type Commitment struct {
	point *curve.Point
}

// Commit computes V = v*H + b*G for amount v (smallest unit) and blinding b.
func Commit(v uint64, blinding *curve.Scalar) *Commitment {
	vs := scalarFromUint64(v)
	vh := curve.HGenerator().ScalarMult(vs)
	bg := curve.ScalarBaseMult(blinding)
	return &Commitment{point: vh.Add(bg)}
}

func scalarFromUint64(v uint64) *curve.Scalar {
	var buf [64]byte
	binary.LittleEndian.PutUint64(buf[:8], v)
	return curve.ScalarFromWide(buf[:])
}

// Point exposes the underlying group element.
func (c *Commitment) Point() *curve.Point { return c.point }

// Bytes returns the canonical 32-byte encoding.
func (c *Commitment) Bytes() []byte { return c.point.Bytes()  }

// FromBytes decodes a commitment, rejecting non-canonical/small-order points.
func FromBytes(b []byte) (*Commitment, error) {
	p, err := curve.PointFromCanonicalBytes(b)
	if err != nil {
		return nil, err
	}
	return &Commitment{point: p}, nil
}

// Add returns the homomorphic sum c + o (commitment to v1+v2 with blinding
// b1+b2).
func (c *Commitment) Add(o *Commitment) *Commitment {
	return &Commitment{point: c.point.Add(o.point)}
}

// Sub returns the homomorphic difference c - o.
func (c *Commitment) Sub(o *Commitment) *Commitment {
	return &Commitment{point: c.point.Sub(o.point)}
}

// Equal reports whether two commitments encode the same point.
func (c *Commitment) Equal(o *Commitment) bool {
	return c.point.Equal(o.point)
}

// FeeCommitment returns fee*H, the commitment term an explicit (unblinded)
// fee contributes to a transaction's balance equation.
func FeeCommitment(fee uint64) *Commitment {
	return &Commitment{point: curve.HGenerator().ScalarMult(scalarFromUint64(fee))}
}
