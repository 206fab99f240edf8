package bulletproof

import (
	"encoding/binary"

	"github.com/botho-project/botho/pkg/curve"
)

// BitsPerValue is the range width proved per output: 0 <= v < 2^64.
const BitsPerValue = 64

// vectorGenerators derives n independent, nothing-up-my-sleeve vector
// generators via domain-separated hash-to-curve. Generator i depends only on
// label and i, so proofs over different numbers of aggregated outputs share
// the same generator at each index.
func vectorGenerators(n int, label string) []*curve.Point {
	out := make([]*curve.Point, n)
	for i := 0; i < n; i++ {
		var idx [8]byte
		binary.LittleEndian.PutUint64(idx[:], uint64(i))
		out[i] = curve.HashToPoint("botho-bulletproof-"+label, idx[:])
	}
	return out
}
