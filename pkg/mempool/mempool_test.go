package mempool

import (
	"context"
	"testing"
	"time"

	"github.com/botho-project/botho/pkg/crypto/clsag"
	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/keys"
	"github.com/botho-project/botho/pkg/ledger"
	"github.com/botho-project/botho/pkg/tx"
	"github.com/botho-project/botho/pkg/verifypool"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fakeLedger is a minimal stand-in for *ledger.State: no transaction has
// ever been seen, and every cluster reports zero wealth unless seeded.
type fakeLedger struct {
	spent  map[string]bool
	wealth map[[32]byte]uint64
	snap   []ledger.UTXORef
	height uint64
}

func (f *fakeLedger) KeyImageSeen(k *curve.Point) bool { return f.spent[string(k.Bytes())] }
func (f *fakeLedger) ClusterWealth(id [32]byte) uint64 { return f.wealth[id] }
func (f *fakeLedger) UTXOSnapshot() []ledger.UTXORef   { return f.snap }
func (f *fakeLedger) TipHeight() uint64                { return f.height }

func newFakeLedger() *fakeLedger {
	return &fakeLedger{spent: map[string]bool{}, wealth: map[[32]byte]uint64{}}
}

func mustWallet(t *testing.T) *keys.WalletKeys {
	t.Helper()
	w, err := keys.NewWalletFromMnemonic(testMnemonic, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	return w
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
		ring.Commitments[i] = commitment.Commit(3, b).Point()
	}
	return ring
}

func buildTestTransaction(t *testing.T, amount, fee uint64) *tx.PrivateTransaction {
	t.Helper()
	sender := mustWallet(t)
	recipient, err := keys.NewWalletFromMnemonic(testMnemonic, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	addr := sender.PrimaryAddress()
	stealth, _, err := keys.NewStealthOutput(addr, 0)
	if err != nil {
		t.Fatal(err)
	}
	x, err := sender.DeriveSpendKey(stealth)
	if err != nil {
		t.Fatal(err)
	}
	blinding, err := curve.RandomScalar()
	if err != nil {
		t.Fatal(err)
	}
	realCommit := commitment.Commit(amount, blinding)
	ring := buildRing(t, stealth.OneTimeKey, realCommit, 0)

	input := tx.SpendInput{
		Ring:       ring,
		RealIndex:  0,
		OneTimeSec: x,
		Amount:     amount,
		Blinding:   blinding,
		Tagged:     tx.TaggedValue{Amount: amount, Tags: tx.TagVector{}, AgeGood: true},
	}
	recipients := []tx.Recipient{
		{Address: recipient.PrimaryAddress(), Amount: amount - fee},
	}
	transaction, _, err := tx.Build([]tx.SpendInput{input}, recipients, fee)
	if err != nil {
		t.Fatal(err)
	}
	return transaction
}

func testPolicy() Policy {
	return Policy{FeePerByte: 0, WMax: 1, Midpoint: 1, Steepness: 1}
}

func TestSubmitAcceptsValidTransaction(t *testing.T) {
	transaction := buildTestTransaction(t, 10_000_000_000, 100_000_000)
	m := New(newFakeLedger(), verifypool.New(2), testPolicy())
	if err := m.Submit(context.Background(), transaction); err != nil {
		t.Fatalf("expected acceptance, got: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 pending transaction, got %d", m.Len())
	}
}

func TestSubmitRejectsAlreadySpentKeyImage(t *testing.T) {
	transaction := buildTestTransaction(t, 10_000_000_000, 100_000_000)
	fl := newFakeLedger()
	fl.spent[string(transaction.Inputs[0].KeyImage.Bytes())] = true
	m := New(fl, verifypool.New(2), testPolicy())
	if err := m.Submit(context.Background(), transaction); err == nil {
		t.Fatal("expected an already-spent key image to be rejected")
	}
}

func TestSubmitRejectsDuplicateKeyImageAcrossSubmissions(t *testing.T) {
	transaction := buildTestTransaction(t, 10_000_000_000, 100_000_000)
	m := New(newFakeLedger(), verifypool.New(2), testPolicy())
	if err := m.Submit(context.Background(), transaction); err != nil {
		t.Fatal(err)
	}
	if err := m.Submit(context.Background(), transaction); err == nil {
		t.Fatal("expected the second submission of the same key image to be rejected")
	}
}

func TestSubmitRejectsFeeBelowRequired(t *testing.T) {
	transaction := buildTestTransaction(t, 10_000_000_000, 0)
	policy := Policy{FeePerByte: 1000, WMax: 1_000_000, Midpoint: 1, Steepness: 1}
	m := New(newFakeLedger(), verifypool.New(2), policy)
	if err := m.Submit(context.Background(), transaction); err == nil {
		t.Fatal("expected a zero fee to be rejected under a nonzero fee curve")
	}
}

func TestEvictsLowestFeeRateWhenFull(t *testing.T) {
	original := maxEntries
	maxEntries = 2
	defer func() { maxEntries = original }()

	m := New(newFakeLedger(), verifypool.New(4), testPolicy())
	txLow := buildTestTransaction(t, 10_000_000_000, 1)
	txMid := buildTestTransaction(t, 10_000_000_000, 2)
	if err := m.Submit(context.Background(), txLow); err != nil {
		t.Fatal(err)
	}
	if err := m.Submit(context.Background(), txMid); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected pool at capacity 2, got %d", m.Len())
	}

	highFee := buildTestTransaction(t, 10_000_000_000, 5_000_000_000)
	if err := m.Submit(context.Background(), highFee); err != nil {
		t.Fatalf("expected high fee-rate transaction to evict the lowest, got: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected pool to remain at capacity after eviction, got %d", m.Len())
	}
	if _, ok := m.Get(txLow.ID()); ok {
		t.Fatal("expected the lowest fee-rate transaction to have been evicted")
	}
	if _, ok := m.Get(txMid.ID()); !ok {
		t.Fatal("expected the mid fee-rate transaction to remain")
	}
}

func TestPruneExpiredRemovesOldEntries(t *testing.T) {
	transaction := buildTestTransaction(t, 10_000_000_000, 1)
	m := New(newFakeLedger(), verifypool.New(2), testPolicy())
	if err := m.Submit(context.Background(), transaction); err != nil {
		t.Fatal(err)
	}
	m.PruneExpired(time.Now().Add(2 * time.Hour))
	if m.Len() != 0 {
		t.Fatal("expected an aged-out entry to be pruned")
	}
}

func TestSelectForBlockOrdersByFeeRateDescending(t *testing.T) {
	m := New(newFakeLedger(), verifypool.New(4), testPolicy())
	low := buildTestTransaction(t, 10_000_000_000, 1)
	high := buildTestTransaction(t, 10_000_000_000, 9_000_000_000)
	if err := m.Submit(context.Background(), low); err != nil {
		t.Fatal(err)
	}
	if err := m.Submit(context.Background(), high); err != nil {
		t.Fatal(err)
	}
	selected := m.SelectForBlock(10)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected transactions, got %d", len(selected))
	}
	if selected[0].ID() != high.ID() {
		t.Fatal("expected the higher fee-rate transaction to be selected first")
	}
}
