// Package scpmsg carries the wire envelope for federated-voting consensus
// messages: sender identity, slot, phase kind, payload, and the
// node-identity signature covering them. It is transport-agnostic; pkg/p2p
// publishes and receives the canonical encoding over the "botho/scp/1"
// gossip topic.
package scpmsg

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// Kind enumerates SCP phases, in the order a slot progresses through them.
type Kind uint8

const (
	KindNominate Kind = iota + 1
	KindPrepare
	KindCommit
	KindExternalize
)

func (k Kind) String() string {
	switch k {
	case KindNominate:
		return "nominate"
	case KindPrepare:
		return "prepare"
	case KindCommit:
		return "commit"
	case KindExternalize:
		return "externalize"
	default:
		return "unknown"
	}
}

// NodeID identifies a participant by its node-identity Ed25519 public key.
type NodeID [ed25519.PublicKeySize]byte

// Envelope is the signed wire message one SCP participant sends another:
// {sender_id, slot, kind, payload, signature}, matching the external
// interface shape exactly. Payload is the kind-specific canonical encoding
// built by pkg/scp; this package never interprets it, only signs/verifies.
type Envelope struct {
	SenderID  NodeID
	Slot      uint64
	Kind      Kind
	Payload   []byte
	Signature []byte
}

// ErrMalformedSignature is returned by Verify when the signature doesn't
// validate; callers must reject the message, not disconnect the peer
// (message validation is reject-only, per the protocol's fault model).
var ErrMalformedSignature = errors.New("scpmsg: signature does not validate")

// signedBytes returns the exact byte string the signature covers: (slot,
// kind, payload), little-endian slot, matching "Signatures cover (slot,
// kind, payload) under the sender's node-identity key."
func signedBytes(slot uint64, kind Kind, payload []byte) []byte {
	buf := make([]byte, 0, 9+len(payload))
	var slotBytes [8]byte
	binary.LittleEndian.PutUint64(slotBytes[:], slot)
	buf = append(buf, slotBytes[:]...)
	buf = append(buf, byte(kind))
	buf = append(buf, payload...)
	return buf
}

// Sign builds a signed Envelope for slot/kind/payload under priv, whose
// public half must equal sender.
func Sign(priv ed25519.PrivateKey, sender NodeID, slot uint64, kind Kind, payload []byte) (*Envelope, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("scpmsg: private key must be %d bytes", ed25519.PrivateKeySize)
	}
	sig := ed25519.Sign(priv, signedBytes(slot, kind, payload))
	return &Envelope{
		SenderID:  sender,
		Slot:      slot,
		Kind:      kind,
		Payload:   payload,
		Signature: sig,
	}, nil
}

// Verify checks the envelope's signature against its own SenderID. It does
// not check slot adjacency, ballot sortedness, or payload semantics — those
// are pkg/scp's job once the signature itself is trusted.
func (e *Envelope) Verify() error {
	pub := ed25519.PublicKey(e.SenderID[:])
	if !ed25519.Verify(pub, signedBytes(e.Slot, e.Kind, e.Payload), e.Signature) {
		return ErrMalformedSignature
	}
	return nil
}

// ErrTruncatedEnvelope is returned by DecodeEnvelope when b is shorter than
// its own length-prefixes claim.
var ErrTruncatedEnvelope = errors.New("scpmsg: truncated envelope")

// EncodeEnvelope produces the wire form pkg/p2p gossips over the
// "botho/scp/1" topic: sender_id (fixed 32 bytes) || slot (u64 LE) || kind
// (1 byte) || uvarint-length-prefixed payload || uvarint-length-prefixed
// signature. This is a separate concern from Sign/Verify's signedBytes:
// that covers only what the signature protects, this covers everything a
// receiver needs to reconstruct the envelope.
func EncodeEnvelope(e *Envelope) []byte {
	var buf []byte
	buf = append(buf, e.SenderID[:]...)
	var slotBytes [8]byte
	binary.LittleEndian.PutUint64(slotBytes[:], e.Slot)
	buf = append(buf, slotBytes[:]...)
	buf = append(buf, byte(e.Kind))
	buf = appendUvarintBytes(buf, e.Payload)
	buf = appendUvarintBytes(buf, e.Signature)
	return buf
}

func appendUvarintBytes(buf []byte, b []byte) []byte {
	var lenBytes [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBytes[:], uint64(len(b)))
	buf = append(buf, lenBytes[:n]...)
	return append(buf, b...)
}

// DecodeEnvelope reconstructs an Envelope from the bytes EncodeEnvelope
// produced. It does not call Verify; callers must do that themselves
// before trusting SenderID.
func DecodeEnvelope(b []byte) (*Envelope, error) {
	if len(b) < ed25519.PublicKeySize+8+1 {
		return nil, ErrTruncatedEnvelope
	}
	var e Envelope
	copy(e.SenderID[:], b[:ed25519.PublicKeySize])
	pos := ed25519.PublicKeySize
	e.Slot = binary.LittleEndian.Uint64(b[pos : pos+8])
	pos += 8
	e.Kind = Kind(b[pos])
	pos++

	payload, n, err := readUvarintBytes(b[pos:])
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	pos += n

	sig, _, err := readUvarintBytes(b[pos:])
	if err != nil {
		return nil, err
	}
	e.Signature = sig

	return &e, nil
}

func readUvarintBytes(b []byte) ([]byte, int, error) {
	length, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, 0, ErrTruncatedEnvelope
	}
	if n+int(length) > len(b) {
		return nil, 0, ErrTruncatedEnvelope
	}
	return append([]byte(nil), b[n:n+int(length)]...), n + int(length), nil
}
