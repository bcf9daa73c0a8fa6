package principal

import (
	"bytes"
	"testing"
)

// TestAnonymousText tests the textual form of the anonymous principal.
func TestAnonymousText(t *testing.T) {
	if got := Anonymous().Text(); got != "2vxsx-fae" {
		t.Errorf("anonymous text: got %q, want %q", got, "2vxsx-fae")
	}
}

// TestManagementCanisterText tests the textual form of the management
// canister, whose raw form is empty.
func TestManagementCanisterText(t *testing.T) {
	if got := ManagementCanister().Text(); got != "aaaaa-aa" {
		t.Errorf("management canister text: got %q, want %q", got, "aaaaa-aa")
	}
}

// TestTextRoundTrip tests that encoding and decoding recover the raw
// bytes for a spread of lengths.
func TestTextRoundTrip(t *testing.T) {
	raws := [][]byte{
		{},
		{0x04},
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0xd2},
		{0xab, 0xcd},
		bytes.Repeat([]byte{0xff}, 29),
	}

	for _, raw := range raws {
		p := Principal{Raw: raw}

		decoded, err := FromText(p.Text())
		if err != nil {
			t.Fatalf("decode %q: %v", p.Text(), err)
		}

		if !decoded.Equal(p) {
			t.Errorf("round trip of %x: got %x", raw, decoded.Raw)
		}
	}
}

// TestFromTextRejectsBadChecksum tests that a corrupted text form is
// rejected.
func TestFromTextRejectsBadChecksum(t *testing.T) {
	if _, err := FromText("2vxsx-fab"); err == nil {
		t.Error("corrupted principal text should not decode")
	}
}

// TestFromTextRejectsGarbage tests that non-base32 input is rejected.
func TestFromTextRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "!!!", "2vxsx_fae"} {
		if _, err := FromText(text); err == nil {
			t.Errorf("%q should not decode", text)
		}
	}
}

// TestSelfAuthenticating tests that self-authenticating principals are
// 29 bytes ending in the self-authenticating tag.
func TestSelfAuthenticating(t *testing.T) {
	p := SelfAuthenticating([]byte("some der encoded public key"))

	if len(p.Raw) != 29 {
		t.Errorf("self-authenticating length: got %d, want 29", len(p.Raw))
	}

	if p.Raw[28] != 0x02 {
		t.Errorf("self-authenticating tag: got %#x, want 0x02", p.Raw[28])
	}
}

// TestCmp tests that principals order as unsigned byte strings.
func TestCmp(t *testing.T) {
	a := Principal{Raw: []byte{0x01}}
	b := Principal{Raw: []byte{0x01, 0x00}}
	c := Principal{Raw: []byte{0x02}}

	if a.Cmp(b) >= 0 {
		t.Error("shorter prefix should sort before its extension")
	}
	if b.Cmp(c) >= 0 {
		t.Error("0x0100 should sort before 0x02")
	}
	if c.Cmp(a) <= 0 {
		t.Error("0x02 should sort after 0x01")
	}
	if a.Cmp(a) != 0 {
		t.Error("principal should compare equal to itself")
	}
}
