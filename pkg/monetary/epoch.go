package monetary

import "time"

// EpochTxLimit and EpochBlockLimit are the two epoch-boundary triggers: an
// epoch ends at 1000 externalized transactions or 1440 blocks, whichever
// comes first.
const (
	EpochTxLimit    = 1000
	EpochBlockLimit = 1440
)

// EpochBoundaryReached reports whether an epoch that has seen txCount
// externalized transactions and blockCount blocks has ended.
func EpochBoundaryReached(txCount, blockCount uint64) bool {
	return txCount >= EpochTxLimit || blockCount >= EpochBlockLimit
}

// EpochPolicy is the set of monetary/difficulty parameters active from
// ActivationHeight onward, until superseded by a later-activating policy.
// Fork upgrades add a new EpochPolicy rather than mutate an existing one.
type EpochPolicy struct {
	ActivationHeight   uint64
	ExpectedBlockTime  time.Duration
	ExpectedEpochTime  time.Duration
	FeeFloor           uint64
	TailTargetAnnual   float64
	Weights            Weights
	BlendWindowBlocks  uint64
	PreForkBurnPerBlk  float64 // observed burn rate just before this policy activates, for blending
	PostForkBurnPerBlk float64 // expected burn rate once this policy is fully in effect
}

// Schedule is a height-ordered list of EpochPolicy activations. The caller
// is responsible for keeping it sorted ascending by ActivationHeight; At
// does a linear scan since schedules are expected to hold a handful of
// fork entries, not thousands.
type Schedule []EpochPolicy

// At returns the policy in effect at height h: the last entry whose
// ActivationHeight is <= h.
func (s Schedule) At(h uint64) EpochPolicy {
	active := s[0]
	for _, p := range s {
		if p.ActivationHeight > h {
			break
		}
		active = p
	}
	return active
}

// InBlendWindow reports whether height h falls within p's post-activation
// blend window, during which the monetary loop should use
// BlendedExpectedBurn instead of the epoch's actually-observed burn rate.
func (p EpochPolicy) InBlendWindow(h uint64) bool {
	return h >= p.ActivationHeight && h-p.ActivationHeight < p.BlendWindowBlocks
}

// BlendedExpectedBurn returns the blend-window-adjusted expected burn rate
// at height h under policy p: a linear interpolation from p's pre-fork
// observation to its post-fork expectation across BlendWindowBlocks blocks
// starting at ActivationHeight, used so the monetary loop doesn't see a
// step discontinuity the instant a fork activates. Before ActivationHeight,
// or when BlendWindowBlocks is 0, it returns the pre-fork rate; once the
// window has fully elapsed it returns the post-fork rate.
func (p EpochPolicy) BlendedExpectedBurn(h uint64) float64 {
	if h < p.ActivationHeight || p.BlendWindowBlocks == 0 {
		return p.PreForkBurnPerBlk
	}
	elapsed := h - p.ActivationHeight
	if elapsed >= p.BlendWindowBlocks {
		return p.PostForkBurnPerBlk
	}
	t := float64(elapsed) / float64(p.BlendWindowBlocks)
	return p.PreForkBurnPerBlk*(1-t) + p.PostForkBurnPerBlk*t
}
