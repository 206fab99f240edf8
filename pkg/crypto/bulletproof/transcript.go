package bulletproof

import "github.com/botho-project/botho/pkg/curve"

// transcript implements a simple Fiat-Shamir transcript: every point or
// scalar absorbed folds into a running scalar state, and challenges are
// derived by hashing that state together with a round label. This keeps
// the aggregated range proof non-interactive while binding every challenge
// to everything absorbed before it.
type transcript struct {
	state []byte
}

func newTranscript(domain string) *transcript {
	return &transcript{state: []byte(domain)}
}

func (t *transcript) appendPoint(label string, p *curve.Point) {
	t.state = append(t.state, []byte(label)...)
	t.state = append(t.state, p.Bytes()...)
}

func (t *transcript) appendScalar(label string, s *curve.Scalar) {
	t.state = append(t.state, []byte(label)...)
	t.state = append(t.state, s.Bytes()...)
}

func (t *transcript) appendUint64(label string, v uint64) {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	t.state = append(t.state, []byte(label)...)
	t.state = append(t.state, buf...)
}

func (t *transcript) challenge(label string) *curve.Scalar {
	c := curve.HashToScalar("botho-bulletproof-challenge", t.state, []byte(label))
	t.state = append(t.state, []byte(label)...)
	t.state = append(t.state, c.Bytes()...)
	return c
}
