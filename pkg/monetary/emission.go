// Package monetary implements the block-reward emission schedule and the
// dual timing/monetary difficulty-adjustment loop, combined per epoch
// policy. It is pure computation over observed chain statistics: it has no
// dependency on pkg/ledger and no mutable state of its own, so it can be
// unit tested against literal heights/ratios and wired into the block
// builder and validator as a plain function call.
package monetary

// EmissionParams pins the Phase 1 halving schedule and the Phase 2 tail
// target, the two phases spec'd for block_reward(h).
type EmissionParams struct {
	InitialReward          uint64
	HalvingInterval        uint64
	TailTargetAnnualInflow float64 // target net inflation rate, e.g. 0.02 for 2%/year
	BlocksPerYear          uint64
}

// Phase1HalvingCount is the number of halvings after which Phase 1 ends and
// Phase 2 tail emission begins.
const Phase1HalvingCount = 5

// phase reports which emission phase height h falls in.
func (p EmissionParams) phase(h uint64) int {
	if p.HalvingInterval == 0 {
		return 2
	}
	if h/p.HalvingInterval < Phase1HalvingCount {
		return 1
	}
	return 2
}

// BlockReward computes the gross reward to mint at height h. In Phase 1
// this is the pure halving schedule; in Phase 2 it targets a net inflation
// rate given the circulating supply and the burn rate actually observed
// over the current epoch, per "reward computed to target net inflation of
// 2%/year given observed burn rate."
func (p EmissionParams) BlockReward(h uint64, circulatingSupply uint64, observedBurnPerBlock float64) uint64 {
	if p.phase(h) == 1 {
		halvings := h / p.HalvingInterval
		return p.InitialReward >> halvings
	}
	return p.tailReward(circulatingSupply, observedBurnPerBlock)
}

// tailReward is the Phase 2 gross reward: the net emission needed to reach
// the target annual inflation rate, plus whatever is being burned, since
// net = gross - burn and we're solving for gross given a net target.
func (p EmissionParams) tailReward(circulatingSupply uint64, observedBurnPerBlock float64) uint64 {
	if p.BlocksPerYear == 0 {
		return 0
	}
	targetNetPerBlock := p.TailTargetAnnualInflow * float64(circulatingSupply) / float64(p.BlocksPerYear)
	gross := targetNetPerBlock + observedBurnPerBlock
	if gross < 0 {
		return 0
	}
	return uint64(gross)
}

// TargetNetEmission returns the Phase 2 target net emission over an epoch
// of epochBlocks length, the quantity the monetary difficulty loop
// compares its observed counterpart against.
func (p EmissionParams) TargetNetEmission(circulatingSupply uint64, epochBlocks uint64) float64 {
	if p.BlocksPerYear == 0 {
		return 0
	}
	perBlock := p.TailTargetAnnualInflow * float64(circulatingSupply) / float64(p.BlocksPerYear)
	return perBlock * float64(epochBlocks)
}
