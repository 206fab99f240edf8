package ledger

import (
	"testing"
	"time"

	"github.com/botho-project/botho/pkg/crypto/clsag"
	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/keys"
	"github.com/botho-project/botho/pkg/tx"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func mustWallet(t *testing.T) *keys.WalletKeys {
	t.Helper()
	w, err := keys.NewWalletFromMnemonic(testMnemonic, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

const genesisReward = 50_000_000_000_000

func rewardSchedule(height uint64) uint64 { return genesisReward }

// buildGenesis mints a single coinbase-style block at height 1 paying
// minter, with difficulty 1 so proof-of-work always passes.
func buildGenesis(t *testing.T, minter *keys.WalletKeys) *Block {
	t.Helper()
	mt, err := tx.BuildMinting(1, genesisReward, minter.PrimaryAddress(), 1)
	if err != nil {
		t.Fatal(err)
	}
	header := Header{
		Version:        1,
		Timestamp:      time.Now().Unix(),
		Height:         1,
		Difficulty:     1,
		Nonce:          0,
		MinterViewPub:  minter.PrimaryAddress().ViewPub,
		MinterSpendPub: minter.PrimaryAddress().SpendPub,
		Slot:           1,
	}
	block := &Block{Header: header, MintingTx: mt}
	block.Header.MerkleRoot = block.TxRoot()
	return block
}

func buildRing(t *testing.T, realPub *curve.Point, realCommit *commitment.Commitment, realIndex int) *clsag.Ring {
	t.Helper()
	ring := &clsag.Ring{
		Pubkeys:     make([]*curve.Point, clsag.RingSize),
		Commitments: make([]*curve.Point, clsag.RingSize),
	}
	for i := range ring.Pubkeys {
		if i == realIndex {
			ring.Pubkeys[i] = realPub
			ring.Commitments[i] = realCommit.Point()
			continue
		}
		sk, err := curve.RandomScalar()
		if err != nil {
			t.Fatal(err)
		}
		b, err := curve.RandomScalar()
		if err != nil {
			t.Fatal(err)
		}
		ring.Pubkeys[i] = curve.ScalarBaseMult(sk)
		ring.Commitments[i] = commitment.Commit(7, b).Point()
	}
	return ring
}

// spendGenesisOutput builds a tx.SpendInput spending the genesis block's
// sole coinbase output, owned by minter.
func spendGenesisOutput(t *testing.T, minter *keys.WalletKeys, genesis *Block) tx.SpendInput {
	t.Helper()
	out := genesis.MintingTx.Output
	x, err := minter.DeriveSpendKey(&keys.StealthOutput{OneTimeKey: out.OneTimeKey, TxPublicKey: out.TxPublicKey})
	if err != nil {
		t.Fatal(err)
	}
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	realCommit := commitment.Commit(out.Amount, blinding)
	ring := buildRing(t, out.OneTimeKey, realCommit, 0)
	return tx.SpendInput{
		Ring:       ring,
		RealIndex:  0,
		OneTimeSec: x,
		Amount:     out.Amount,
		Blinding:   blinding,
		Tagged: tx.TaggedValue{
			Amount:  out.Amount,
			Tags:    tx.TagVector{},
			AgeGood: false,
		},
	}
}

func appliedState(t *testing.T, minter *keys.WalletKeys) (*State, *Block) {
	t.Helper()
	s := New()
	genesis := buildGenesis(t, minter)
	if err := s.ApplyBlock(genesis, rewardSchedule, time.Now()); err != nil {
		t.Fatalf("genesis apply failed: %v", err)
	}
	return s, genesis
}

func TestApplyBlockGenesisMintsCoinbaseAndCreditsCluster(t *testing.T) {
	minter := mustWallet(t)
	s, genesis := appliedState(t, minter)

	if s.Tip().Height != 1 {
		t.Fatalf("expected tip height 1, got %d", s.Tip().Height)
	}
	if s.Tip().SupplyMinted != genesisReward {
		t.Fatalf("expected supply minted %d, got %d", genesisReward, s.Tip().SupplyMinted)
	}
	wealth := s.ClusterWealth(genesis.MintingTx.Output.ClusterID)
	if wealth != genesisReward {
		t.Fatalf("expected cluster wealth %d, got %d", genesisReward, wealth)
	}
}

func buildSpendBlock(t *testing.T, s *State, minter, recipient *keys.WalletKeys, genesis *Block, fee uint64) *Block {
	t.Helper()
	input := spendGenesisOutput(t, minter, genesis)
	recipients := []tx.Recipient{
		{Address: recipient.PrimaryAddress(), Amount: input.Amount - fee},
	}
	transaction, _, err := tx.Build([]tx.SpendInput{input}, recipients, fee)
	if err != nil {
		t.Fatal(err)
	}

	mt, err := tx.BuildMinting(2, genesisReward, minter.PrimaryAddress(), 2)
	if err != nil {
		t.Fatal(err)
	}
	header := Header{
		Version:        1,
		PreviousHash:   genesis.Header.Hash(),
		Timestamp:      genesis.Header.Timestamp + 1,
		Height:         2,
		Difficulty:     1,
		Nonce:          0,
		MinterViewPub:  minter.PrimaryAddress().ViewPub,
		MinterSpendPub: minter.PrimaryAddress().SpendPub,
		Slot:           2,
	}
	block := &Block{Header: header, MintingTx: mt, PrivateTxs: []*tx.PrivateTransaction{transaction}}
	block.Header.MerkleRoot = block.TxRoot()
	return block
}

func TestApplyBlockSpendDebitsFeeFromDominantCluster(t *testing.T) {
	minter := mustWallet(t)
	recipient, err := keys.NewWalletFromMnemonic(testMnemonic, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	s, genesis := appliedState(t, minter)

	const fee = 400_000_000
	block := buildSpendBlock(t, s, minter, recipient, genesis, fee)

	if err := s.ApplyBlock(block, rewardSchedule, time.Now()); err != nil {
		t.Fatalf("spend block apply failed: %v", err)
	}

	wealth := s.ClusterWealth(genesis.MintingTx.Output.ClusterID)
	if wealth != genesisReward-fee {
		t.Fatalf("expected cluster wealth %d after fee burn, got %d", genesisReward-fee, wealth)
	}
	if s.Tip().SupplyBurned != fee {
		t.Fatalf("expected supply burned %d, got %d", fee, s.Tip().SupplyBurned)
	}

	spent := block.PrivateTxs[0].Inputs[0].KeyImage
	if !s.KeyImageSeen(spent) {
		t.Fatal("expected spent key image to be recorded")
	}
}

func TestApplyBlockRejectsDoubleSpendAcrossBlocks(t *testing.T) {
	minter := mustWallet(t)
	recipient, err := keys.NewWalletFromMnemonic(testMnemonic, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	s, genesis := appliedState(t, minter)

	const fee = 400_000_000
	block := buildSpendBlock(t, s, minter, recipient, genesis, fee)
	if err := s.ApplyBlock(block, rewardSchedule, time.Now()); err != nil {
		t.Fatalf("first spend failed: %v", err)
	}

	// Rebuild an independent transaction spending the same genesis output
	// again and try to apply it in the next block.
	replay := buildSpendBlock(t, s, minter, recipient, genesis, fee)
	replay.Header.PreviousHash = block.Header.Hash()
	replay.Header.Height = 3
	replay.Header.Timestamp = block.Header.Timestamp + 1
	replay.Header.Slot = 3
	replay.MintingTx, err = tx.BuildMinting(3, genesisReward, minter.PrimaryAddress(), 3)
	if err != nil {
		t.Fatal(err)
	}
	replay.Header.MerkleRoot = replay.TxRoot()

	if err := s.ApplyBlock(replay, rewardSchedule, time.Now()); err == nil {
		t.Fatal("expected a replayed key image to be rejected")
	}
	if s.Tip().Height != 2 {
		t.Fatalf("expected rejected block to leave tip at height 2, got %d", s.Tip().Height)
	}
}

func TestApplyBlockRejectsWrongHeight(t *testing.T) {
	minter := mustWallet(t)
	s, genesis := appliedState(t, minter)
	_ = genesis

	bogus := buildGenesis(t, minter)
	bogus.Header.Height = 5
	if err := s.ApplyBlock(bogus, rewardSchedule, time.Now()); err == nil {
		t.Fatal("expected wrong-height block to be rejected")
	}
}

func TestApplyBlockRejectsBadMerkleRoot(t *testing.T) {
	minter := mustWallet(t)
	s := New()
	genesis := buildGenesis(t, minter)
	genesis.Header.MerkleRoot = tx.Hash{0xff}
	if err := s.ApplyBlock(genesis, rewardSchedule, time.Now()); err == nil {
		t.Fatal("expected a tampered merkle root to be rejected")
	}
}

func TestApplyBlockRejectsSameBlockUTXOReference(t *testing.T) {
	minter := mustWallet(t)
	recipient, err := keys.NewWalletFromMnemonic(testMnemonic, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	s, genesis := appliedState(t, minter)

	const fee = 400_000_000
	input := spendGenesisOutput(t, minter, genesis)
	recipients := []tx.Recipient{{Address: recipient.PrimaryAddress(), Amount: input.Amount - fee}}
	first, _, err := tx.Build([]tx.SpendInput{input}, recipients, fee)
	if err != nil {
		t.Fatal(err)
	}

	// Build a second transaction whose ring references the first
	// transaction's new output instead of a genuinely settled UTXO.
	secondBlinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	newOut := first.Outputs[0]
	secondRing := buildRing(t, newOut.OneTimeKey, commitment.Commit(1, secondBlinding), 0)
	secondInput := tx.SpendInput{
		Ring:       secondRing,
		RealIndex:  0,
		OneTimeSec: mustScalarForTest(t),
		Amount:     1,
		Blinding:   secondBlinding,
		Tagged:     tx.TaggedValue{Amount: 1, Tags: tx.TagVector{}, AgeGood: false},
	}
	second, _, err := tx.Build([]tx.SpendInput{secondInput}, []tx.Recipient{{Address: recipient.PrimaryAddress(), Amount: 1}}, 0)
	if err != nil {
		t.Fatal(err)
	}

	mt, err := tx.BuildMinting(2, genesisReward, minter.PrimaryAddress(), 9)
	if err != nil {
		t.Fatal(err)
	}
	header := Header{
		Version:        1,
		PreviousHash:   genesis.Header.Hash(),
		Timestamp:      genesis.Header.Timestamp + 1,
		Height:         2,
		Difficulty:     1,
		MinterViewPub:  minter.PrimaryAddress().ViewPub,
		MinterSpendPub: minter.PrimaryAddress().SpendPub,
		Slot:           2,
	}
	block := &Block{Header: header, MintingTx: mt, PrivateTxs: []*tx.PrivateTransaction{first, second}}
	block.Header.MerkleRoot = block.TxRoot()

	if err := s.ApplyBlock(block, rewardSchedule, time.Now()); err == nil {
		t.Fatal("expected same-block UTXO reference to be rejected")
	}
}

func mustScalarForTest(t *testing.T) *curve.Scalar {
	t.Helper()
	sc, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	return sc
}
