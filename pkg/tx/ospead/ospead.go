// Package ospead implements the OSPEAD (Outlier-Sensitive Private-Entity
// Anonymity Distribution) decoy-selection policy: choosing the 19 ring
// decoys accompanying a real spend from the ledger's UTXO set so that the
// ring's age distribution mimics real spend timing rather than sampling
// uniformly, which would make the real (usually-recent) output stand out
// as an outlier against uniformly-old decoys.
package ospead

import (
	"errors"
	"math"
	"math/rand"
)

// DecoyCount is the number of decoys selected per ring input; together
// with the real output this makes the mandatory ring size of 20.
const DecoyCount = 19

// Candidate is one eligible decoy: its age in blocks (0 = created at the
// current tip) and an opaque reference the caller resolves back to a UTXO.
type Candidate struct {
	AgeBlocks uint64
	Ref       [40]byte // txid(32) || output_index LE(8), the UTXO's reference key
}

// ErrInsufficientCandidates is returned when the pool has fewer eligible
// candidates than DecoyCount.
var ErrInsufficientCandidates = errors.New("ospead: fewer than 19 eligible decoy candidates")

// shape/scale parameterize the gamma distribution over decoy age in
// blocks, calibrated so recent blocks are over-represented relative to a
// uniform draw (most real spends are of relatively young outputs) while the
// tail still reaches arbitrarily old outputs, so an attacker profiling ring
// composition can't distinguish "real is old" from "real is young" cases.
const (
	gammaShape = 2.0
	gammaScale = 1440.0 // roughly one day of blocks at a 1-minute block time
)

// Select draws DecoyCount distinct candidates from pool using a
// gamma age-biased weighting: each candidate's sampling weight is the
// gamma(shape, scale) density evaluated at its age, so candidates near the
// distribution's mode are preferred without ever fully excluding outliers
// (every candidate has nonzero weight).
func Select(pool []Candidate, rng *rand.Rand) ([]Candidate, error) {
	if len(pool) < DecoyCount {
		return nil, ErrInsufficientCandidates
	}
	weights := make([]float64, len(pool))
	var total float64
	for i, c := range pool {
		w := gammaDensity(float64(c.AgeBlocks), gammaShape, gammaScale)
		if w <= 0 {
			w = 1e-12
		}
		weights[i] = w
		total += w
	}

	chosen := make(map[int]bool, DecoyCount)
	out := make([]Candidate, 0, DecoyCount)
	for len(out) < DecoyCount {
		target := rng.Float64() * total
		var acc float64
		pick := -1
		for i, w := range weights {
			if chosen[i] {
				continue
			}
			acc += w
			if target <= acc {
				pick = i
				break
			}
		}
		if pick == -1 {
			// Floating point rounding left the loop without a pick;
			// take the first unchosen candidate instead of looping forever.
			for i := range pool {
				if !chosen[i] {
					pick = i
					break
				}
			}
		}
		chosen[pick] = true
		total -= weights[pick]
		out = append(out, pool[pick])
	}
	return out, nil
}

// gammaDensity evaluates the gamma(shape, scale) probability density at x,
// unnormalized by the reciprocal-Gamma(shape) constant since Select only
// needs relative weights, not a true density.
func gammaDensity(x, shape, scale float64) float64 {
	if x < 0 {
		return 0
	}
	if x == 0 {
		x = 1e-9
	}
	return math.Pow(x, shape-1) * math.Exp(-x/scale)
}
