package scp

import (
	"encoding/binary"
	"errors"
)

var errTruncatedPayload = errors.New("scp: truncated payload")

func encodeValue(buf []byte, v Value) []byte {
	buf = append(buf, v.MintingTxID[:]...)
	var p [8]byte
	binary.LittleEndian.PutUint64(p[:], v.PowPriority)
	return append(buf, p[:]...)
}

func decodeValue(buf []byte) (Value, []byte, error) {
	if len(buf) < 40 {
		return Value{}, nil, errTruncatedPayload
	}
	var v Value
	copy(v.MintingTxID[:], buf[:32])
	v.PowPriority = binary.LittleEndian.Uint64(buf[32:40])
	return v, buf[40:], nil
}

func encodeValues(buf []byte, values []Value) []byte {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(values)))
	buf = append(buf, n[:]...)
	for _, v := range values {
		buf = encodeValue(buf, v)
	}
	return buf
}

func decodeValues(buf []byte) ([]Value, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, errTruncatedPayload
	}
	n := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]
	values := make([]Value, 0, n)
	for i := uint32(0); i < n; i++ {
		v, rest, err := decodeValue(buf)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
		buf = rest
	}
	return values, buf, nil
}

func encodeBallot(buf []byte, b Ballot) []byte {
	var c [4]byte
	binary.LittleEndian.PutUint32(c[:], b.Counter)
	buf = append(buf, c[:]...)
	return encodeValues(buf, b.Values)
}

func decodeBallot(buf []byte) (Ballot, []byte, error) {
	if len(buf) < 4 {
		return Ballot{}, nil, errTruncatedPayload
	}
	counter := binary.LittleEndian.Uint32(buf[:4])
	values, rest, err := decodeValues(buf[4:])
	if err != nil {
		return Ballot{}, nil, err
	}
	return Ballot{Counter: counter, Values: values}, rest, nil
}

// NominatePayload is the Nominate phase's wire payload: the voted and
// accepted value sets.
type NominatePayload struct {
	Voted    []Value
	Accepted []Value
}

func (p NominatePayload) encode() []byte {
	buf := encodeValues(nil, p.Voted)
	return encodeValues(buf, p.Accepted)
}

func decodeNominatePayload(buf []byte) (NominatePayload, error) {
	voted, rest, err := decodeValues(buf)
	if err != nil {
		return NominatePayload{}, err
	}
	accepted, _, err := decodeValues(rest)
	if err != nil {
		return NominatePayload{}, err
	}
	return NominatePayload{Voted: voted, Accepted: accepted}, nil
}

// PreparePayload is the Prepare phase's wire payload: the current ballot,
// the two highest prepared ballots tracked so far, and the commit range.
type PreparePayload struct {
	Ballot        Ballot
	Prepared      *Ballot
	PreparedPrime *Ballot
	CN            uint32
	HN            uint32
}

func (p PreparePayload) encode() []byte {
	buf := encodeBallot(nil, p.Ballot)
	buf = encodeOptionalBallot(buf, p.Prepared)
	buf = encodeOptionalBallot(buf, p.PreparedPrime)
	var cn, hn [4]byte
	binary.LittleEndian.PutUint32(cn[:], p.CN)
	binary.LittleEndian.PutUint32(hn[:], p.HN)
	buf = append(buf, cn[:]...)
	return append(buf, hn[:]...)
}

func encodeOptionalBallot(buf []byte, b *Ballot) []byte {
	if b == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return encodeBallot(buf, *b)
}

func decodeOptionalBallot(buf []byte) (*Ballot, []byte, error) {
	if len(buf) < 1 {
		return nil, nil, errTruncatedPayload
	}
	present := buf[0]
	buf = buf[1:]
	if present == 0 {
		return nil, buf, nil
	}
	b, rest, err := decodeBallot(buf)
	if err != nil {
		return nil, nil, err
	}
	return &b, rest, nil
}

func decodePreparePayload(buf []byte) (PreparePayload, error) {
	ballot, rest, err := decodeBallot(buf)
	if err != nil {
		return PreparePayload{}, err
	}
	prepared, rest, err := decodeOptionalBallot(rest)
	if err != nil {
		return PreparePayload{}, err
	}
	preparedPrime, rest, err := decodeOptionalBallot(rest)
	if err != nil {
		return PreparePayload{}, err
	}
	if len(rest) < 8 {
		return PreparePayload{}, errTruncatedPayload
	}
	cn := binary.LittleEndian.Uint32(rest[:4])
	hn := binary.LittleEndian.Uint32(rest[4:8])
	return PreparePayload{Ballot: ballot, Prepared: prepared, PreparedPrime: preparedPrime, CN: cn, HN: hn}, nil
}

// CommitPayload is the Commit phase's wire payload.
type CommitPayload struct {
	Ballot Ballot
	CN     uint32
	HN     uint32
}

func (p CommitPayload) encode() []byte {
	buf := encodeBallot(nil, p.Ballot)
	var cn, hn [4]byte
	binary.LittleEndian.PutUint32(cn[:], p.CN)
	binary.LittleEndian.PutUint32(hn[:], p.HN)
	buf = append(buf, cn[:]...)
	return append(buf, hn[:]...)
}

func decodeCommitPayload(buf []byte) (CommitPayload, error) {
	ballot, rest, err := decodeBallot(buf)
	if err != nil {
		return CommitPayload{}, err
	}
	if len(rest) < 8 {
		return CommitPayload{}, errTruncatedPayload
	}
	cn := binary.LittleEndian.Uint32(rest[:4])
	hn := binary.LittleEndian.Uint32(rest[4:8])
	return CommitPayload{Ballot: ballot, CN: cn, HN: hn}, nil
}

// ExternalizePayload announces the value a node has externalized for this
// slot, plus the HN it committed with.
type ExternalizePayload struct {
	Value Value
	HN    uint32
}

func (p ExternalizePayload) encode() []byte {
	buf := encodeValue(nil, p.Value)
	var hn [4]byte
	binary.LittleEndian.PutUint32(hn[:], p.HN)
	return append(buf, hn[:]...)
}

func decodeExternalizePayload(buf []byte) (ExternalizePayload, error) {
	v, rest, err := decodeValue(buf)
	if err != nil {
		return ExternalizePayload{}, err
	}
	if len(rest) < 4 {
		return ExternalizePayload{}, errTruncatedPayload
	}
	return ExternalizePayload{Value: v, HN: binary.LittleEndian.Uint32(rest[:4])}, nil
}
