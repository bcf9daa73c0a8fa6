package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"testing"

	"icagent/principal"
)

// TestRequestIDKnownVector tests request id derivation against the
// published example for a call content map.
func TestRequestIDKnownVector(t *testing.T) {
	content := map[string]any{
		"request_type": "call",
		"canister_id":  []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0xd2},
		"method_name":  "hello",
		"arg":          []byte{0x44, 0x49, 0x44, 0x4c, 0x00, 0xfd, 0x2a},
	}

	id, err := RequestIDOf(content)
	if err != nil {
		t.Fatalf("derive request id: %v", err)
	}

	want := "8781291c347db32a9d8c10eb62b710fce5a93be676474c42babc74c51858f94b"
	if id.String() != want {
		t.Errorf("request id: got %s, want %s", id, want)
	}
}

// TestHashAnyStringIsSHA256 tests that strings hash as their UTF-8
// bytes.
func TestHashAnyStringIsSHA256(t *testing.T) {
	got, err := HashAny("hello")
	if err != nil {
		t.Fatalf("hash string: %v", err)
	}

	want := sha256.Sum256([]byte("hello"))
	if got != want {
		t.Errorf("string hash: got %x, want %x", got, want)
	}
}

// TestHashAnyNumberIsLEB128 tests that numbers hash as their LEB128
// encoding, so equal values hash equally across integer types.
func TestHashAnyNumberIsLEB128(t *testing.T) {
	want := sha256.Sum256([]byte{0xe5, 0x8e, 0x26})

	for _, v := range []any{uint64(624485), uint(624485), int(624485), int64(624485), big.NewInt(624485)} {
		got, err := HashAny(v)
		if err != nil {
			t.Fatalf("hash %T: %v", v, err)
		}
		if got != want {
			t.Errorf("hash %T: got %x, want %x", v, got, want)
		}
	}
}

// TestHashAnyRejectsNegative tests that negative integers are outside
// the hashable universe.
func TestHashAnyRejectsNegative(t *testing.T) {
	for _, v := range []any{int(-1), int64(-5), big.NewInt(-42)} {
		if _, err := HashAny(v); err == nil {
			t.Errorf("%T(%v) should not hash", v, v)
		}
	}
}

// TestHashAnyRejectsUnsupported tests the error for values outside the
// universe.
func TestHashAnyRejectsUnsupported(t *testing.T) {
	_, err := HashAny(3.14)
	if err == nil {
		t.Fatal("float should not hash")
	}

	if _, ok := err.(*UnsupportedValueError); !ok {
		t.Errorf("error type: got %T, want *UnsupportedValueError", err)
	}
}

// TestHashAnyTaggedIgnoresTag tests that only the inner value of a
// Tagged wrapper contributes to the digest.
func TestHashAnyTaggedIgnoresTag(t *testing.T) {
	a, err := HashAny(Tagged{Value: "hello", Tag: "one"})
	if err != nil {
		t.Fatalf("hash tagged: %v", err)
	}

	b, err := HashAny(Tagged{Value: "hello", Tag: "two"})
	if err != nil {
		t.Fatalf("hash tagged: %v", err)
	}

	plain, err := HashAny("hello")
	if err != nil {
		t.Fatalf("hash plain: %v", err)
	}

	if a != b || a != plain {
		t.Error("tag should not affect the digest")
	}
}

// projected has a canonical hashable form distinct from its struct
// form.
type projected struct {
	nanos uint64
}

func (p projected) HashableValue() any {
	return p.nanos
}

// TestHashAnyProjection tests that Hashable values hash as their
// projection.
func TestHashAnyProjection(t *testing.T) {
	got, err := HashAny(projected{nanos: 624485})
	if err != nil {
		t.Fatalf("hash projection: %v", err)
	}

	want, err := HashAny(uint64(624485))
	if err != nil {
		t.Fatalf("hash uint64: %v", err)
	}

	if got != want {
		t.Errorf("projection hash: got %x, want %x", got, want)
	}
}

// TestHashAnyPrincipal tests that principals hash as their raw bytes.
func TestHashAnyPrincipal(t *testing.T) {
	p := principal.Anonymous()

	got, err := HashAny(p)
	if err != nil {
		t.Fatalf("hash principal: %v", err)
	}

	want := sha256.Sum256(p.Raw)
	if got != want {
		t.Errorf("principal hash: got %x, want %x", got, want)
	}
}

// TestHashMapDropsNilEntries tests that nil-valued entries do not
// participate in the hash.
func TestHashMapDropsNilEntries(t *testing.T) {
	with, err := HashAny(map[string]any{"a": "x", "b": nil})
	if err != nil {
		t.Fatalf("hash map: %v", err)
	}

	without, err := HashAny(map[string]any{"a": "x"})
	if err != nil {
		t.Fatalf("hash map: %v", err)
	}

	if with != without {
		t.Error("nil entry should not affect the digest")
	}
}

// TestHashMapEmpty tests that the empty map hashes to the digest of
// the empty string.
func TestHashMapEmpty(t *testing.T) {
	got, err := HashAny(map[string]any{})
	if err != nil {
		t.Fatalf("hash empty map: %v", err)
	}

	want := sha256.Sum256(nil)
	if got != want {
		t.Errorf("empty map hash: got %x, want %x", got, want)
	}
}

// TestHashSequenceNested tests hashing of a nested sequence by
// computing the expected digest by hand.
func TestHashSequenceNested(t *testing.T) {
	got, err := HashAny([]any{"a", []any{[]byte{0x01}}})
	if err != nil {
		t.Fatalf("hash sequence: %v", err)
	}

	inner := sha256.Sum256([]byte{0x01})
	innerSeq := sha256.Sum256(inner[:])
	a := sha256.Sum256([]byte("a"))

	h := sha256.New()
	h.Write(a[:])
	h.Write(innerSeq[:])

	var want [32]byte
	h.Sum(want[:0])

	if got != want {
		t.Errorf("nested sequence hash: got %x, want %x", got, want)
	}
}

// TestRequestIDString tests the hex rendering of a request id.
func TestRequestIDString(t *testing.T) {
	var id RequestID
	id[0] = 0xab
	id[31] = 0x01

	want := "ab" + hex.EncodeToString(make([]byte, 30)) + "01"
	if id.String() != want {
		t.Errorf("request id string: got %s, want %s", id, want)
	}
}
