package identity

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"icagent/principal"
)

// TestAnonymousIdentity tests that the anonymous identity carries no
// key material and sends as the anonymous principal.
func TestAnonymousIdentity(t *testing.T) {
	var id Anonymous

	if !id.Sender().Equal(principal.Anonymous()) {
		t.Error("anonymous identity should send as the anonymous principal")
	}

	if id.PublicKey() != nil {
		t.Error("anonymous identity should have no public key")
	}

	sig, err := id.Sign([]byte("message"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sig != nil {
		t.Error("anonymous identity should not produce signatures")
	}
}

// TestEd25519IdentitySign tests that signatures verify under the raw
// public key inside the DER wrapping.
func TestEd25519IdentitySign(t *testing.T) {
	id, err := GenerateEd25519Identity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}

	message := []byte("envelope message")

	sig, err := id.Sign(message)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	der := id.PublicKey()
	if len(der) != len(ed25519SPKIPrefix)+ed25519.PublicKeySize {
		t.Fatalf("der key length: got %d", len(der))
	}

	raw := ed25519.PublicKey(der[len(ed25519SPKIPrefix):])
	if !ed25519.Verify(raw, message, sig) {
		t.Error("signature should verify under the public key")
	}
}

// TestEd25519IdentitySender tests that the sender is the
// self-authenticating principal of the DER key.
func TestEd25519IdentitySender(t *testing.T) {
	id, err := GenerateEd25519Identity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}

	want := principal.SelfAuthenticating(id.PublicKey())
	if !id.Sender().Equal(want) {
		t.Error("sender should be the self-authenticating principal of the key")
	}
}

// TestEd25519IdentityDeterministicSender tests that the same key always
// yields the same sender.
func TestEd25519IdentityDeterministicSender(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	a, err := NewEd25519Identity(priv)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}

	b, err := NewEd25519Identity(priv)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}

	if !a.Sender().Equal(b.Sender()) {
		t.Error("same key should yield the same sender")
	}
	if !bytes.Equal(a.PublicKey(), b.PublicKey()) {
		t.Error("same key should yield the same der encoding")
	}
}

// TestNewEd25519IdentityRejectsBadKey tests the key length check.
func TestNewEd25519IdentityRejectsBadKey(t *testing.T) {
	if _, err := NewEd25519Identity(make(ed25519.PrivateKey, 10)); err == nil {
		t.Error("short private key should be rejected")
	}
}
