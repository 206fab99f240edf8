package bulletproof

import "github.com/botho-project/botho/pkg/curve"

func scalarFromUint64(v uint64) *curve.Scalar {
	var buf [64]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return curve.ScalarFromWide(buf[:])
}

func oneScalar() *curve.Scalar {
	return scalarFromUint64(1)
}

func zeroScalar() *curve.Scalar {
	return curve.NewScalar()
}

// bitDecompose returns the n-bit little-endian binary decomposition of v.
func bitDecompose(v uint64, n int) []*curve.Scalar {
	out := make([]*curve.Scalar, n)
	for i := 0; i < n; i++ {
		if (v>>uint(i))&1 == 1 {
			out[i] = oneScalar()
		} else {
			out[i] = zeroScalar()
		}
	}
	return out
}

// powersOf2 returns (1, 2, 4, ..., 2^(n-1)) as scalars.
func powersOf2(n int) []*curve.Scalar {
	out := make([]*curve.Scalar, n)
	cur := oneScalar()
	two := scalarFromUint64(2)
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = cur.Mul(two)
	}
	return out
}

// powers returns (1, x, x^2, ..., x^(n-1)).
func powers(x *curve.Scalar, n int) []*curve.Scalar {
	out := make([]*curve.Scalar, n)
	cur := oneScalar()
	for i := 0; i < n; i++ {
		out[i] = cur
		cur = cur.Mul(x)
	}
	return out
}

func vecSubScalar(v []*curve.Scalar, s *curve.Scalar) []*curve.Scalar {
	out := make([]*curve.Scalar, len(v))
	for i := range v {
		out[i] = v[i].Sub(s)
	}
	return out
}

func vecAddScalar(v []*curve.Scalar, s *curve.Scalar) []*curve.Scalar {
	out := make([]*curve.Scalar, len(v))
	for i := range v {
		out[i] = v[i].Add(s)
	}
	return out
}

func vecAdd(a, b []*curve.Scalar) []*curve.Scalar {
	out := make([]*curve.Scalar, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

func vecSub(a, b []*curve.Scalar) []*curve.Scalar {
	out := make([]*curve.Scalar, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i])
	}
	return out
}

func hadamard(a, b []*curve.Scalar) []*curve.Scalar {
	out := make([]*curve.Scalar, len(a))
	for i := range a {
		out[i] = a[i].Mul(b[i])
	}
	return out
}

func scaleVec(v []*curve.Scalar, s *curve.Scalar) []*curve.Scalar {
	out := make([]*curve.Scalar, len(v))
	for i := range v {
		out[i] = v[i].Mul(s)
	}
	return out
}

func innerProduct(a, b []*curve.Scalar) *curve.Scalar {
	sum := zeroScalar()
	for i := range a {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}

// addAt adds src element-wise into dst[offset:offset+len(src)]; the caller
// sizes dst so the range fits.
func addAt(dst []*curve.Scalar, offset int, src []*curve.Scalar) {
	for i, s := range src {
		dst[offset+i] = dst[offset+i].Add(s)
	}
}
