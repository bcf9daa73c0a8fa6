package agent

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"icagent/hashing"
	"icagent/hashtree"
)

// nonceSize is the length of a request nonce in bytes.
const nonceSize = 16

// Expiry is an ingress expiry timestamp. Its canonical hashable form is
// the plain nanosecond count, so it implements the hashing projection
// rather than hashing as an opaque struct.
type Expiry struct {
	nanos uint64
}

// NewExpiry returns an expiry at the given instant.
func NewExpiry(at time.Time) Expiry {
	return Expiry{nanos: uint64(at.UnixNano())}
}

// HashableValue projects the expiry to its nanosecond count for
// request-id derivation.
func (e Expiry) HashableValue() any {
	return e.nanos
}

// MarshalCBOR encodes the expiry as its nanosecond count.
func (e Expiry) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(e.nanos)
}

// callContent is the wire content of a call request.
type callContent struct {
	RequestType   string `cbor:"request_type"`
	Sender        []byte `cbor:"sender"`
	Nonce         []byte `cbor:"nonce,omitempty"`
	IngressExpiry Expiry `cbor:"ingress_expiry"`
	CanisterID    []byte `cbor:"canister_id"`
	MethodName    string `cbor:"method_name"`
	Arg           []byte `cbor:"arg"`
}

// hashable returns the content as the map the request id is derived
// from. Entry names match the wire field names exactly.
func (c callContent) hashable() map[string]any {
	m := map[string]any{
		"request_type":   c.RequestType,
		"sender":         c.Sender,
		"ingress_expiry": c.IngressExpiry,
		"canister_id":    c.CanisterID,
		"method_name":    c.MethodName,
		"arg":            c.Arg,
	}

	if len(c.Nonce) > 0 {
		m["nonce"] = c.Nonce
	}

	return m
}

// queryContent is the wire content of a query request.
type queryContent struct {
	RequestType   string `cbor:"request_type"`
	Sender        []byte `cbor:"sender"`
	Nonce         []byte `cbor:"nonce,omitempty"`
	IngressExpiry Expiry `cbor:"ingress_expiry"`
	CanisterID    []byte `cbor:"canister_id"`
	MethodName    string `cbor:"method_name"`
	Arg           []byte `cbor:"arg"`
}

func (c queryContent) hashable() map[string]any {
	m := map[string]any{
		"request_type":   c.RequestType,
		"sender":         c.Sender,
		"ingress_expiry": c.IngressExpiry,
		"canister_id":    c.CanisterID,
		"method_name":    c.MethodName,
		"arg":            c.Arg,
	}

	if len(c.Nonce) > 0 {
		m["nonce"] = c.Nonce
	}

	return m
}

// readStateContent is the wire content of a read_state request.
type readStateContent struct {
	RequestType   string   `cbor:"request_type"`
	Sender        []byte   `cbor:"sender"`
	IngressExpiry Expiry   `cbor:"ingress_expiry"`
	Paths         [][][]byte `cbor:"paths"`
}

func (c readStateContent) hashable() map[string]any {
	paths := make([]any, len(c.Paths))
	for i, path := range c.Paths {
		segments := make([]any, len(path))
		for j, segment := range path {
			segments[j] = segment
		}
		paths[i] = segments
	}

	return map[string]any{
		"request_type":   c.RequestType,
		"sender":         c.Sender,
		"ingress_expiry": c.IngressExpiry,
		"paths":          paths,
	}
}

// envelope is the authenticated wrapper around request content.
// Anonymous envelopes omit both signature fields.
type envelope struct {
	Content      any    `cbor:"content"`
	SenderPubkey []byte `cbor:"sender_pubkey,omitempty"`
	SenderSig    []byte `cbor:"sender_sig,omitempty"`
}

// signEnvelope derives the request id, signs it under the request
// domain separator and returns the encoded envelope.
func (a *Agent) signEnvelope(content any, hashable map[string]any) ([]byte, hashing.RequestID, error) {
	requestID, err := hashing.RequestIDOf(hashable)
	if err != nil {
		return nil, hashing.RequestID{}, fmt.Errorf("derive request id:\n%w", err)
	}

	message := append(hashtree.DomainSeparator("ic-request"), requestID[:]...)

	signature, err := a.id.Sign(message)
	if err != nil {
		return nil, hashing.RequestID{}, fmt.Errorf("sign request %s:\n%w", requestID, err)
	}

	encoded, err := cbor.Marshal(envelope{
		Content:      content,
		SenderPubkey: a.id.PublicKey(),
		SenderSig:    signature,
	})
	if err != nil {
		return nil, hashing.RequestID{}, fmt.Errorf("encode envelope:\n%w", err)
	}

	return encoded, requestID, nil
}

// newNonce derives a fresh request nonce: blake3 over a random seed and
// the submission time, truncated to nonceSize bytes.
func newNonce() ([]byte, error) {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("generate nonce seed:\n%w", err)
	}

	var at [8]byte
	binary.BigEndian.PutUint64(at[:], uint64(time.Now().UnixNano()))

	h := blake3.New()
	h.Write([]byte("icagent-nonce"))
	h.Write(seed[:])
	h.Write(at[:])

	return h.Sum(nil)[:nonceSize], nil
}

// encodePaths flattens label paths to the raw byte form sent on the
// wire.
func encodePaths(paths [][]hashtree.Label) [][][]byte {
	encoded := make([][][]byte, len(paths))

	for i, path := range paths {
		encoded[i] = make([][]byte, len(path))
		for j, segment := range path {
			encoded[i][j] = segment
		}
	}

	return encoded
}
