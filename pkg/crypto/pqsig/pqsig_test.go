package pqsig

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("externalize slot 42")
	sig := Sign(priv, msg)
	if !Verify(pub, msg, sig) {
		t.Fatal("valid signature failed to verify")
	}
}

func TestTamperedMessageRejected(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	sig := Sign(priv, []byte("original"))
	if Verify(pub, []byte("tampered"), sig) {
		t.Fatal("tampered message must not verify")
	}
}

func TestWrongKeyRejected(t *testing.T) {
	pub1, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	_, priv2, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("m")
	sig := Sign(priv2, msg)
	if Verify(pub1, msg, sig) {
		t.Fatal("signature from a different key pair must not verify")
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := pub.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := PublicKeyFromBytes(encoded)
	if err != nil {
		t.Fatal(err)
	}
	reEncoded, err := decoded.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) != string(reEncoded) {
		t.Fatal("public key did not round-trip")
	}
}
