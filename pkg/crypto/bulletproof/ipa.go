package bulletproof

import "github.com/botho-project/botho/pkg/curve"

// IPAProof is a logarithmic-size proof that <a,b> was computed honestly
// relative to a folded commitment, the compression step that keeps the
// aggregated range proof's size O(log N) instead of O(N).
type IPAProof struct {
	L, R []*curve.Point
	A, B *curve.Scalar
}

func multiScalarMultPoints(scalars []*curve.Scalar, points []*curve.Point) *curve.Point {
	return curve.MultiScalarMult(scalars, points)
}

// ipaProve recursively halves (g,h,a,b) until a single element remains,
// emitting one (L,R) cross-term pair per round. u is the fixed generator
// binding the inner-product value into the commitment so the folding
// equation cannot be satisfied by an inconsistent <a,b>.
func ipaProve(tr *transcript, g, h []*curve.Point, u *curve.Point, a, b []*curve.Scalar) *IPAProof {
	var ls, rs []*curve.Point
	for len(a) > 1 {
		half := len(a) / 2
		aLo, aHi := a[:half], a[half:]
		bLo, bHi := b[:half], b[half:]
		gLo, gHi := g[:half], g[half:]
		hLo, hHi := h[:half], h[half:]

		cL := innerProduct(aLo, bHi)
		cR := innerProduct(aHi, bLo)

		L := multiScalarMultPoints(aLo, gHi).Add(multiScalarMultPoints(bHi, hLo)).Add(u.ScalarMult(cL))
		R := multiScalarMultPoints(aHi, gLo).Add(multiScalarMultPoints(bLo, hHi)).Add(u.ScalarMult(cR))
		ls = append(ls, L)
		rs = append(rs, R)

		tr.appendPoint("ipa-L", L)
		tr.appendPoint("ipa-R", R)
		x := tr.challenge("ipa-x")
		xInv := x.Invert()

		newA := make([]*curve.Scalar, half)
		newB := make([]*curve.Scalar, half)
		newG := make([]*curve.Point, half)
		newH := make([]*curve.Point, half)
		for i := 0; i < half; i++ {
			newA[i] = aLo[i].Mul(x).Add(aHi[i].Mul(xInv))
			newB[i] = bLo[i].Mul(xInv).Add(bHi[i].Mul(x))
			newG[i] = gLo[i].ScalarMult(xInv).Add(gHi[i].ScalarMult(x))
			newH[i] = hLo[i].ScalarMult(x).Add(hHi[i].ScalarMult(xInv))
		}
		a, b, g, h = newA, newB, newG, newH
	}
	return &IPAProof{L: ls, R: rs, A: a[0], B: b[0]}
}

// ipaVerify folds the public generators and the starting commitment P using
// the same challenges the prover derived, then checks the final single-pair
// equation.
func ipaVerify(tr *transcript, g, h []*curve.Point, u *curve.Point, p *curve.Point, proof *IPAProof) bool {
	if len(proof.L) != len(proof.R) {
		return false
	}
	rounds := len(proof.L)
	xs := make([]*curve.Scalar, rounds)
	for i := 0; i < rounds; i++ {
		tr.appendPoint("ipa-L", proof.L[i])
		tr.appendPoint("ipa-R", proof.R[i])
		xs[i] = tr.challenge("ipa-x")
	}

	curG, curH, curP := g, h, p
	for i := 0; i < rounds; i++ {
		if len(curG)%2 != 0 {
			return false
		}
		half := len(curG) / 2
		x := xs[i]
		xInv := x.Invert()
		xSq := x.Mul(x)
		xInvSq := xInv.Mul(xInv)

		curP = proof.L[i].ScalarMult(xSq).Add(curP).Add(proof.R[i].ScalarMult(xInvSq))

		newG := make([]*curve.Point, half)
		newH := make([]*curve.Point, half)
		for j := 0; j < half; j++ {
			newG[j] = curG[j].ScalarMult(xInv).Add(curG[half+j].ScalarMult(x))
			newH[j] = curH[j].ScalarMult(x).Add(curH[half+j].ScalarMult(xInv))
		}
		curG, curH = newG, newH
	}
	if len(curG) != 1 || len(curH) != 1 {
		return false
	}
	lhs := curG[0].ScalarMult(proof.A).Add(curH[0].ScalarMult(proof.B)).Add(u.ScalarMult(proof.A.Mul(proof.B)))
	return lhs.Equal(curP)
}
