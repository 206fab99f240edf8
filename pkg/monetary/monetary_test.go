package monetary

import (
	"math"
	"testing"
	"time"
)

func closeEnough(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBlockRewardHalvesEachIntervalInPhase1(t *testing.T) {
	p := EmissionParams{InitialReward: 50_000_000_000_000, HalvingInterval: 1_051_200, BlocksPerYear: 6_307_200}

	if got := p.BlockReward(0, 0, 0); got != p.InitialReward {
		t.Fatalf("expected genesis reward %d, got %d", p.InitialReward, got)
	}
	if got := p.BlockReward(1_051_200, 0, 0); got != p.InitialReward/2 {
		t.Fatalf("expected one halving at the interval boundary, got %d", got)
	}
	if got := p.BlockReward(1_051_200*4, 0, 0); got != p.InitialReward/16 {
		t.Fatalf("expected four halvings, got %d", got)
	}
}

func TestBlockRewardEntersTailEmissionAfterFiveHalvings(t *testing.T) {
	p := EmissionParams{
		InitialReward:          50_000_000_000_000,
		HalvingInterval:        1_000,
		TailTargetAnnualInflow: 0.02,
		BlocksPerYear:          100_000,
	}
	h := p.HalvingInterval * Phase1HalvingCount
	supply := uint64(1_000_000_000)
	reward := p.BlockReward(h, supply, 0)

	wantNetPerBlock := 0.02 * float64(supply) / float64(p.BlocksPerYear)
	if !closeEnough(float64(reward), wantNetPerBlock, 1) {
		t.Fatalf("expected tail reward near %.4f with zero burn, got %d", wantNetPerBlock, reward)
	}
}

func TestTailRewardOffsetsObservedBurn(t *testing.T) {
	p := EmissionParams{HalvingInterval: 1, TailTargetAnnualInflow: 0.02, BlocksPerYear: 100_000}
	supply := uint64(1_000_000)
	burn := 50.0
	reward := p.tailReward(supply, burn)

	netTarget := 0.02 * float64(supply) / float64(p.BlocksPerYear)
	wantGross := netTarget + burn
	if !closeEnough(float64(reward), wantGross, 1) {
		t.Fatalf("expected gross reward %.4f (net target + burn), got %d", wantGross, reward)
	}
}

func TestTimingRatioClampedToBounds(t *testing.T) {
	if r := TimingRatio(100, 10); r != ratioCeil {
		t.Fatalf("expected a huge speed-up to clamp at %.2f, got %.4f", ratioCeil, r)
	}
	if r := TimingRatio(10, 100); r != ratioFloor {
		t.Fatalf("expected a huge slow-down to clamp at %.2f, got %.4f", ratioFloor, r)
	}
	if r := TimingRatio(100, 100); r != 1.0 {
		t.Fatalf("expected an on-target epoch to produce ratio 1.0, got %.4f", r)
	}
}

func TestCombinedRatioIsClampedAfterWeighting(t *testing.T) {
	r := CombinedRatio(ratioCeil, ratioCeil, Weights{Timing: 0.8, Monetary: 0.2})
	if r > ratioCeil {
		t.Fatalf("combined ratio must stay within [%.2f, %.2f], got %.4f", ratioFloor, ratioCeil, r)
	}
	if r := CombinedRatio(1.0, 1.0, Weights{Timing: 0.8, Monetary: 0.2}); r != 1.0 {
		t.Fatalf("two neutral ratios should combine to 1.0, got %.4f", r)
	}
}

func TestNextDifficultyNeverDropsBelowOne(t *testing.T) {
	if got := NextDifficulty(1, ratioFloor); got < 1 {
		t.Fatalf("difficulty must never drop below 1, got %d", got)
	}
}

func TestEpochBoundaryReachedEitherTrigger(t *testing.T) {
	if !EpochBoundaryReached(EpochTxLimit, 0) {
		t.Fatal("expected the tx-count trigger to end the epoch")
	}
	if !EpochBoundaryReached(0, EpochBlockLimit) {
		t.Fatal("expected the block-count trigger to end the epoch")
	}
	if EpochBoundaryReached(EpochTxLimit-1, EpochBlockLimit-1) {
		t.Fatal("expected neither trigger to fire just below both limits")
	}
}

func TestScheduleAtPicksLastActivatedPolicy(t *testing.T) {
	sched := Schedule{
		{ActivationHeight: 0, FeeFloor: 1},
		{ActivationHeight: 100, FeeFloor: 2},
		{ActivationHeight: 200, FeeFloor: 3},
	}
	if got := sched.At(50).FeeFloor; got != 1 {
		t.Fatalf("expected genesis policy below height 100, got fee floor %d", got)
	}
	if got := sched.At(150).FeeFloor; got != 2 {
		t.Fatalf("expected the height-100 policy between 100 and 200, got fee floor %d", got)
	}
	if got := sched.At(9999).FeeFloor; got != 3 {
		t.Fatalf("expected the latest policy beyond its successor, got fee floor %d", got)
	}
}

// TestForkBlendMatchesLiteralScenario pins down end-to-end scenario 6:
// activation height 100, blend window 10, pre-fork burn b_pre and
// post-fork burn b_post; at height 105 the effective expected burn must be
// exactly the 50/50 blend.
func TestForkBlendMatchesLiteralScenario(t *testing.T) {
	policy := EpochPolicy{
		ActivationHeight:   100,
		BlendWindowBlocks:  10,
		PreForkBurnPerBlk:  40.0,
		PostForkBurnPerBlk: 80.0,
	}
	if !policy.InBlendWindow(105) {
		t.Fatal("height 105 should fall within the blend window")
	}
	got := policy.BlendedExpectedBurn(105)
	want := 40.0*0.5 + 80.0*0.5
	if !closeEnough(got, want, 1e-9) {
		t.Fatalf("expected blended burn %.4f at the window midpoint, got %.4f", want, got)
	}

	if policy.InBlendWindow(110) {
		t.Fatal("height 110 is exactly at the window boundary and should no longer blend")
	}
	if policy.InBlendWindow(99) {
		t.Fatal("a height before activation is never inside the blend window")
	}
}

func TestControllerNextDifficultyPhase1UsesTimingOnly(t *testing.T) {
	c := NewController(
		EmissionParams{InitialReward: 1000, HalvingInterval: 1_000_000},
		Schedule{{ActivationHeight: 0, ExpectedEpochTime: 1000 * time.Second, Weights: Phase1Weights}},
	)
	stats := EpochStats{Height: 10, ActualEpochTime: 500 * time.Second}
	next := c.NextDifficulty(1000, stats)
	if next <= 1000 {
		t.Fatalf("an epoch that closed twice as fast as expected should raise difficulty, got %d from 1000", next)
	}
}
