package mempool

import "math"

// Policy carries the calibration constants the progressive fee curve and
// cluster factor are evaluated against; these are policy, not protocol,
// and may move with a future monetary epoch (see pkg/monetary).
type Policy struct {
	FeePerByte float64 // base rate, smallest unit per byte, before the curve's percentage scaling
	WMax       uint64  // calibrated maximum source wealth
	Midpoint   uint64  // cluster_factor logistic midpoint, in smallest unit of cluster wealth
	Steepness  float64 // cluster_factor logistic steepness
}

// DefaultPolicy returns the genesis-epoch fee policy, the one cmd/botho-node
// passes to New. pkg/monetary's EpochPolicy carries no fee-curve fields, so
// nothing in this repository changes WMax/Midpoint/Steepness at a later
// epoch.
func DefaultPolicy() Policy {
	return Policy{
		FeePerByte: 1,
		WMax:       1_000_000_000_000_000,
		Midpoint:   500_000_000_000_000,
		Steepness:  100_000_000_000_000,
	}
}

// feeCurveRate returns the 3-segment piecewise-linear percentage rate for
// a spend of source wealth w against the policy's calibrated w_max:
// flat 1% below 15%·w_max, linear 2%→10% through the middle band, flat
// 15% at or above 70%·w_max.
func feeCurveRate(w uint64, wMax uint64) float64 {
	if wMax == 0 {
		return 0.15
	}
	frac := float64(w) / float64(wMax)
	switch {
	case frac < 0.15:
		return 0.01
	case frac < 0.70:
		lo, hi := 0.15, 0.70
		t := (frac - lo) / (hi - lo)
		return 0.02 + t*(0.10-0.02)
	default:
		return 0.15
	}
}

// clusterFactor implements `1 + 5*sigma((W - midpoint)/steepness)`, the
// logistic scaling applied on top of the base fee curve for the dominant
// cluster's current wealth W. Range: [1, 6].
func clusterFactor(w uint64, midpoint uint64, steepness float64) float64 {
	if steepness == 0 {
		steepness = 1
	}
	x := (float64(w) - float64(midpoint)) / steepness
	sigma := 1 / (1 + math.Exp(-x))
	return 1 + 5*sigma
}

// RequiredFee computes required_fee = fee_per_byte * size *
// fee_curve_rate(sourceWealth) * cluster_factor, rounded up, for a transaction of sizeBytes whose spending source wealth is
// sourceWealth and whose dominant cluster currently holds
// dominantClusterWealth.
func (p Policy) RequiredFee(sizeBytes int, sourceWealth uint64, dominantClusterWealth uint64) uint64 {
	rate := feeCurveRate(sourceWealth, p.WMax)
	factor := clusterFactor(dominantClusterWealth, p.Midpoint, p.Steepness)
	required := p.FeePerByte * float64(sizeBytes) * rate * factor
	if required < 0 {
		return 0
	}
	return uint64(math.Ceil(required))
}
