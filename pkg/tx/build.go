package tx

import (
	"errors"
	"fmt"

	"github.com/botho-project/botho/pkg/crypto/bulletproof"
	"github.com/botho-project/botho/pkg/crypto/clsag"
	"github.com/botho-project/botho/pkg/crypto/commitment"
	"github.com/botho-project/botho/pkg/curve"
	"github.com/botho-project/botho/pkg/keys"
)

// SpendInput is everything the builder needs about one real input being
// spent: its already-shuffled ring (with RealIndex pointing at the real
// member), the real one-time secret and its amount/blinding, and the
// tagged value used for cluster-tag blending.
type SpendInput struct {
	Ring       *clsag.Ring
	RealIndex  int
	OneTimeSec *curve.Scalar // x_j, the real one-time private key
	Amount     uint64
	Blinding   *curve.Scalar // the real commitment's blinding factor
	Tagged     TaggedValue
}

// Recipient is one destination the builder pays: an address, an amount,
// and an optional memo.
type Recipient struct {
	Address keys.Address
	Amount  uint64
	Memo    []byte
}

// ErrValueConservationFailed is returned by Build if the caller's inputs
// and recipients plus fee don't balance; Build never silently adjusts
// values to make them balance.
var ErrValueConservationFailed = errors.New("tx: input values do not cover outputs plus fee")

// Build assembles a Private transaction spending inputs to recipients,
// burning fee, following the eight-step construction: pseudo-output
// commitments with a value-conserving blinding sum, stealth outputs with
// encrypted memos, blended+decayed cluster tags, an aggregated range proof,
// and a CLSAG signature per input over the canonical signing bytes.
//
// The caller is responsible for decoy selection (see pkg/tx/ospead and
// the mempool's SelectDecoys) and ring shuffling before constructing each
// SpendInput's Ring with RealIndex pointing at the shuffled real member.
func Build(inputs []SpendInput, recipients []Recipient, fee uint64) (*PrivateTransaction, []*curve.Scalar, error) {
	if len(inputs) == 0 {
		return nil, nil, errors.New("tx: at least one input is required")
	}
	if len(recipients) == 0 {
		return nil, nil, errors.New("tx: at least one recipient is required")
	}

	var totalIn, totalOut uint64
	for _, in := range inputs {
		totalIn += in.Amount
	}
	for _, r := range recipients {
		totalOut += r.Amount
	}
	if totalIn != totalOut+fee {
		return nil, nil, ErrValueConservationFailed
	}

	decay := AllAged(taggedValues(inputs))
	blended := Blend(taggedValues(inputs), decay)

	outputValues := make([]uint64, len(recipients))
	outputBlindings := make([]*curve.Scalar, len(recipients))
	outputs := make([]*Output, len(recipients))
	ephemerals := make([]*curve.Scalar, len(recipients))
	for i, r := range recipients {
		stealth, ephemeral, err := keys.NewStealthOutput(r.Address, uint64(i))
		if err != nil {
			return nil, nil, fmt.Errorf("tx: building output %d: %w", i, err)
		}
		blinding, err := curve.RandomScalar()
		if err != nil {
			return nil, nil, err
		}
		outputValues[i] = r.Amount
		outputBlindings[i] = blinding
		ephemerals[i] = ephemeral

		var encMemo []byte
		if len(r.Memo) > 0 {
			shared := r.Address.ViewPub.ScalarMult(ephemeral)
			encMemo, err = EncryptMemo(shared, r.Memo)
			if err != nil {
				return nil, nil, err
			}
		}

		outputs[i] = &Output{
			OneTimeKey:    stealth.OneTimeKey,
			TxPublicKey:   stealth.TxPublicKey,
			Commitment:    commitment.Commit(r.Amount, blinding),
			EncryptedMemo: encMemo,
			Tags:          blended,
		}
	}

	// Pseudo-output blindings are free to pick independently except for
	// their sum, which must equal the sum of output blindings: that is the
	// only constraint the balance check (Sum(pseudo-outs) = Sum(outputs) +
	// fee*H) places on them, since the amount totals already balance.
	pseudoBlindings, err := conservingBlindings(len(inputs), outputBlindings)
	if err != nil {
		return nil, nil, err
	}

	txInputs := make([]*Input, len(inputs))
	ephemeralScalars := make([]*curve.Scalar, len(inputs))
	for i, in := range inputs {
		pseudoOut := commitment.Commit(in.Amount, pseudoBlindings[i])
		txInputs[i] = &Input{
			Ring:      in.Ring,
			PseudoOut: pseudoOut,
			KeyImage:  clsag.GenerateKeyImage(in.OneTimeSec, in.Ring.Pubkeys[in.RealIndex]),
		}
		ephemeralScalars[i] = in.Blinding.Sub(pseudoBlindings[i]) // z_j: V_real - pseudoOut = z_j*G
	}

	rangeProof, rangeCommitments, err := bulletproof.Prove(outputValues, outputBlindings)
	if err != nil {
		return nil, nil, fmt.Errorf("tx: building range proof: %w", err)
	}
	for i, out := range outputs {
		out.Commitment = rangeCommitments[i]
	}

	transaction := &PrivateTransaction{
		Version:    Version,
		Inputs:     txInputs,
		Outputs:    outputs,
		Fee:        fee,
		RangeProof: rangeProof,
	}

	message := transaction.SigningBytes()
	for i, in := range inputs {
		sig, err := clsag.Sign(in.Ring, txInputs[i].PseudoOut.Point(), in.RealIndex, in.OneTimeSec, ephemeralScalars[i], message)
		if err != nil {
			return nil, nil, fmt.Errorf("tx: signing input %d: %w", i, err)
		}
		txInputs[i].Signature = sig
	}

	return transaction, ephemerals, nil
}

func taggedValues(inputs []SpendInput) []TaggedValue {
	out := make([]TaggedValue, len(inputs))
	for i, in := range inputs {
		out[i] = in.Tagged
	}
	return out
}

// conservingBlindings produces n pseudo-output blinding scalars whose sum
// equals the sum of outputBlindings: the first n-1 are independently
// random, and the last is solved for so the total matches exactly.
func conservingBlindings(n int, outputBlindings []*curve.Scalar) ([]*curve.Scalar, error) {
	out := make([]*curve.Scalar, n)
	sum := curve.NewScalar()
	for i := 0; i < n-1; i++ {
		s, err := curve.RandomScalar()
		if err != nil {
			return nil, err
		}
		out[i] = s
		sum = sum.Add(s)
	}

	target := curve.NewScalar()
	for _, b := range outputBlindings {
		target = target.Add(b)
	}
	out[n-1] = target.Sub(sum)
	return out, nil
}
