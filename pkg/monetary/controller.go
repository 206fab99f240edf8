package monetary

import "time"

// EpochStats is what the ledger/block-builder measures over a just-closed
// epoch, the raw input the controller turns into a new difficulty.
type EpochStats struct {
	Height            uint64
	ActualEpochTime   time.Duration
	GrossReward       uint64
	BurnedFees        uint64
	CirculatingSupply uint64
	EpochBlocks       uint64
}

// ActualNetEmission is gross reward minus burns over the epoch, the
// monetary loop's observed counterpart to TargetNetEmission.
func (s EpochStats) ActualNetEmission() float64 {
	return float64(s.GrossReward) - float64(s.BurnedFees)
}

// Controller ties an emission schedule and a policy schedule together to
// produce the next block's reward and the next epoch's difficulty.
type Controller struct {
	Emission EmissionParams
	Policies Schedule
}

// NewController builds a Controller; Policies must be non-empty and sorted
// ascending by ActivationHeight (the genesis policy's ActivationHeight is
// conventionally 0).
func NewController(emission EmissionParams, policies Schedule) *Controller {
	return &Controller{Emission: emission, Policies: policies}
}

// BlockReward computes the reward to mint at height h given the
// circulating supply and the burn rate observed so far.
func (c *Controller) BlockReward(h uint64, circulatingSupply uint64, observedBurnPerBlock float64) uint64 {
	return c.Emission.BlockReward(h, circulatingSupply, observedBurnPerBlock)
}

// NextDifficulty computes the next epoch's difficulty from the previous
// one and the stats observed over the epoch that just closed, applying the
// policy active at the closing height.
func (c *Controller) NextDifficulty(oldDifficulty uint64, stats EpochStats) uint64 {
	policy := c.Policies.At(stats.Height)

	timing := TimingRatio(float64(policy.ExpectedEpochTime), float64(stats.ActualEpochTime))

	phase := c.Emission.phase(stats.Height)
	weights := Phase1Weights
	monetaryRatio := 1.0
	if phase == 2 {
		weights = Phase2Weights
		target := c.Emission.TargetNetEmission(stats.CirculatingSupply, stats.EpochBlocks)
		actual := stats.ActualNetEmission()
		if policy.InBlendWindow(stats.Height) {
			blendedBurn := policy.BlendedExpectedBurn(stats.Height) * float64(stats.EpochBlocks)
			actual = float64(stats.GrossReward) - blendedBurn
		}
		monetaryRatio = MonetaryRatio(target, actual)
	}
	if policy.Weights != (Weights{}) {
		weights = policy.Weights
	}

	combined := CombinedRatio(timing, monetaryRatio, weights)
	return NextDifficulty(oldDifficulty, combined)
}
