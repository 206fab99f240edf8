package scpmsg

import (
	"testing"

	"golang.org/x/crypto/ed25519"
)

func mustKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	return pub, priv
}

func TestSignThenVerifyRoundTrip(t *testing.T) {
	pub, priv := mustKeypair(t)
	var sender NodeID
	copy(sender[:], pub)

	env, err := Sign(priv, sender, 42, KindPrepare, []byte("ballot-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Verify(); err != nil {
		t.Fatalf("expected a correctly signed envelope to verify, got: %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	pub, priv := mustKeypair(t)
	var sender NodeID
	copy(sender[:], pub)

	env, err := Sign(priv, sender, 1, KindNominate, []byte("vote"))
	if err != nil {
		t.Fatal(err)
	}
	env.Payload = []byte("tampered")
	if err := env.Verify(); err == nil {
		t.Fatal("expected a tampered payload to fail verification")
	}
}

func TestEncodeDecodeEnvelopeRoundTrip(t *testing.T) {
	pub, priv := mustKeypair(t)
	var sender NodeID
	copy(sender[:], pub)

	env, err := Sign(priv, sender, 7, KindExternalize, []byte("externalize-payload"))
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeEnvelope(EncodeEnvelope(env))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.SenderID != env.SenderID {
		t.Fatal("sender id did not round-trip")
	}
	if decoded.Slot != env.Slot {
		t.Fatal("slot did not round-trip")
	}
	if decoded.Kind != env.Kind {
		t.Fatal("kind did not round-trip")
	}
	if string(decoded.Payload) != string(env.Payload) {
		t.Fatal("payload did not round-trip")
	}
	if string(decoded.Signature) != string(env.Signature) {
		t.Fatal("signature did not round-trip")
	}
	if err := decoded.Verify(); err != nil {
		t.Fatalf("decoded envelope should still verify: %v", err)
	}
}

func TestDecodeEnvelopeRejectsTruncatedInput(t *testing.T) {
	if _, err := DecodeEnvelope([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected truncated envelope to fail decoding")
	}
}

func TestVerifyRejectsWrongSlot(t *testing.T) {
	pub, priv := mustKeypair(t)
	var sender NodeID
	copy(sender[:], pub)

	env, err := Sign(priv, sender, 1, KindCommit, []byte("commit-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	env.Slot = 2
	if err := env.Verify(); err == nil {
		t.Fatal("expected a slot mismatch to invalidate the signature")
	}
}
