// Package curve implements scalar and point arithmetic over a Ristretto-style
// encoding of edwards25519, plus the domain-separated hash-to-scalar and
// hash-to-point primitives the rest of botho is built on.
package curve

import (
	"crypto/sha512"
	"errors"

	"filippo.io/edwards25519"
)

// Scalar is a field element mod the curve's prime order l. The zero scalar
// is never a valid secret; callers that derive secrets must check IsZero.
type Scalar struct {
	s *edwards25519.Scalar
}

// ErrNonCanonical is returned when decoding a scalar or point whose wire
// encoding is not in canonical reduced form.
var ErrNonCanonical = errors.New("curve: non-canonical encoding")

// ErrZeroScalar is returned wherever a secret scalar turns out to be zero.
var ErrZeroScalar = errors.New("curve: zero secret scalar")

// NewScalar returns the additive identity (zero) scalar.
func NewScalar() *Scalar {
	return &Scalar{s: edwards25519.NewScalar()}
}

// ScalarFromWide reduces a 64-byte uniform input mod l (used to turn hash
// output into a scalar without bias).
func ScalarFromWide(wide []byte) *Scalar {
	s, err := edwards25519.NewScalar().SetUniformBytes(padTo64(wide))
	if err != nil {
		panic("curve: SetUniformBytes rejected a 64-byte input: " + err.Error())
	}
	return &Scalar{s: s}
}

func padTo64(b []byte) []byte {
	if len(b) == 64 {
		return b
	}
	out := make([]byte, 64)
	copy(out, b)
	return out
}

// ScalarFromCanonicalBytes decodes a 32-byte little-endian scalar, rejecting
// non-canonical (unreduced) encodings.
func ScalarFromCanonicalBytes(b []byte) (*Scalar, error) {
	if len(b) != 32 {
		return nil, ErrNonCanonical
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, ErrNonCanonical
	}
	return &Scalar{s: s}, nil
}

// RandomScalar draws a uniformly random non-zero scalar from a CSPRNG.
func RandomScalar() (*Scalar, error) {
	var buf [64]byte
	for i := 0; i < 8; i++ {
		if _, err := cryptoRandRead(buf[:]); err != nil {
			return nil, err
		}
		sc := ScalarFromWide(buf[:])
		if !sc.IsZero() {
			return sc, nil
		}
	}
	return nil, ErrZeroScalar
}

// Bytes returns the canonical little-endian 32-byte encoding.
func (sc *Scalar) Bytes() []byte {
	return sc.s.Bytes()
}

// IsZero reports whether the scalar is the additive identity.
func (sc *Scalar) IsZero() bool {
	return sc.s.Equal(edwards25519.NewScalar()) == 1
}

// Equal reports constant-time equality.
func (sc *Scalar) Equal(o *Scalar) bool {
	return sc.s.Equal(o.s) == 1
}

// Add returns sc + o.
func (sc *Scalar) Add(o *Scalar) *Scalar {
	return &Scalar{s: edwards25519.NewScalar().Add(sc.s, o.s)}
}

// Sub returns sc - o.
func (sc *Scalar) Sub(o *Scalar) *Scalar {
	return &Scalar{s: edwards25519.NewScalar().Subtract(sc.s, o.s)}
}

// Negate returns -sc.
func (sc *Scalar) Negate() *Scalar {
	return &Scalar{s: edwards25519.NewScalar().Negate(sc.s)}
}

// Mul returns sc * o.
func (sc *Scalar) Mul(o *Scalar) *Scalar {
	return &Scalar{s: edwards25519.NewScalar().Multiply(sc.s, o.s)}
}

// MulAdd returns sc*a + b.
func (sc *Scalar) MulAdd(a, b *Scalar) *Scalar {
	return &Scalar{s: edwards25519.NewScalar().MultiplyAdd(sc.s, a.s, b.s)}
}

// Invert returns sc^-1 mod l. Panics on the zero scalar, matching the
// invariant that zero secret scalars are forbidden upstream.
func (sc *Scalar) Invert() *Scalar {
	if sc.IsZero() {
		panic("curve: cannot invert the zero scalar")
	}
	return &Scalar{s: edwards25519.NewScalar().Invert(sc.s)}
}

// Zero destroys the scalar's contents in place, for use by zero-on-drop
// secret wrappers.
func (sc *Scalar) Zero() {
	zero := make([]byte, 64)
	sc.s.SetUniformBytes(zero)
}

func hashWide(label string, parts ...[]byte) []byte {
	h := sha512.New()
	writeLabeled(h, label, parts...)
	return h.Sum(nil)
}

// writeLabeled writes a length-prefixed ASCII domain label followed by each
// part, each itself length-prefixed, so that no two labels or part
// boundaries can be confused with each other (per botho's domain-separation
// requirement).
func writeLabeled(h interface{ Write([]byte) (int, error) }, label string, parts ...[]byte) {
	writeUvarint(h, uint64(len(label)))
	h.Write([]byte(label))
	for _, p := range parts {
		writeUvarint(h, uint64(len(p)))
		h.Write(p)
	}
}

func writeUvarint(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [10]byte
	n := 0
	for v >= 0x80 {
		buf[n] = byte(v) | 0x80
		v >>= 7
		n++
	}
	buf[n] = byte(v)
	n++
	h.Write(buf[:n])
}

// HashToScalar computes a domain-separated, uniformly distributed scalar
// from label and parts, per the hash labels enumerated in spec section 6.
func HashToScalar(label string, parts ...[]byte) *Scalar {
	return ScalarFromWide(hashWide(label, parts...))
}
