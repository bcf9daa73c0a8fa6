// Package identity holds the key material that signs outgoing request
// envelopes and derives the sender principal.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"icagent/principal"
)

// Identity signs request envelopes on behalf of a sender principal.
type Identity interface {
	// Sender returns the principal requests are sent as.
	Sender() principal.Principal

	// PublicKey returns the DER-encoded public key, or nil for the
	// anonymous identity.
	PublicKey() []byte

	// Sign signs an envelope message. Anonymous identities return nil.
	Sign(message []byte) ([]byte, error)
}

// Anonymous is the unauthenticated identity. Envelopes it produces
// carry no sender_pubkey or sender_sig.
type Anonymous struct{}

// Sender returns the anonymous principal.
func (Anonymous) Sender() principal.Principal {
	return principal.Anonymous()
}

// PublicKey returns nil: the anonymous identity has no key.
func (Anonymous) PublicKey() []byte {
	return nil
}

// Sign returns nil: anonymous envelopes are unsigned.
func (Anonymous) Sign([]byte) ([]byte, error) {
	return nil, nil
}

// ed25519SPKIPrefix is the DER SubjectPublicKeyInfo envelope for
// Ed25519 public keys; the 32 raw key bytes follow it.
var ed25519SPKIPrefix = []byte{
	0x30, 0x2a, 0x30, 0x05, 0x06, 0x03, 0x2b, 0x65,
	0x70, 0x03, 0x21, 0x00,
}

// Ed25519Identity signs envelopes with an Ed25519 key and sends as the
// self-authenticating principal of that key.
type Ed25519Identity struct {
	privateKey ed25519.PrivateKey
	derKey     []byte
}

// NewEd25519Identity wraps an existing private key.
func NewEd25519Identity(privateKey ed25519.PrivateKey) (*Ed25519Identity, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d",
			ed25519.PrivateKeySize, len(privateKey))
	}

	publicKey := privateKey.Public().(ed25519.PublicKey)

	der := make([]byte, 0, len(ed25519SPKIPrefix)+ed25519.PublicKeySize)
	der = append(der, ed25519SPKIPrefix...)
	der = append(der, publicKey...)

	return &Ed25519Identity{
		privateKey: privateKey,
		derKey:     der,
	}, nil
}

// GenerateEd25519Identity creates an identity with a fresh random key.
func GenerateEd25519Identity() (*Ed25519Identity, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key:\n%w", err)
	}

	return NewEd25519Identity(privateKey)
}

// Sender returns the self-authenticating principal of the public key.
func (id *Ed25519Identity) Sender() principal.Principal {
	return principal.SelfAuthenticating(id.derKey)
}

// PublicKey returns the DER-encoded public key.
func (id *Ed25519Identity) PublicKey() []byte {
	return id.derKey
}

// Sign signs an envelope message with the private key.
func (id *Ed25519Identity) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(id.privateKey, message), nil
}
