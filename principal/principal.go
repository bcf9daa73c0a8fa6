// Package principal implements the textual and binary form of platform
// identities. A principal is an opaque byte string of at most 29 bytes;
// the textual form is a CRC32-prefixed base32 encoding in dash-separated
// groups of five characters.
package principal

import (
	"bytes"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
)

const (
	// MaxLength is the maximum length of a principal in bytes.
	MaxLength = 29

	// anonymousSuffix terminates the anonymous principal.
	anonymousSuffix = 0x04

	// selfAuthSuffix terminates self-authenticating principals.
	selfAuthSuffix = 0x02
)

// encoding is lowercase unpadded base32 as used by the textual form.
var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Principal is an opaque identity on the platform. The zero value is the
// management canister (the empty principal).
type Principal struct {
	// Raw is the canonical byte form.
	Raw []byte
}

// ManagementCanister returns the reserved empty principal ("aaaaa-aa").
func ManagementCanister() Principal {
	return Principal{Raw: []byte{}}
}

// Anonymous returns the anonymous principal ("2vxsx-fae").
func Anonymous() Principal {
	return Principal{Raw: []byte{anonymousSuffix}}
}

// SelfAuthenticating derives the principal bound to a DER-encoded public
// key: SHA-224 of the key followed by a 0x02 suffix byte.
func SelfAuthenticating(derPublicKey []byte) Principal {
	sum := sha256.Sum224(derPublicKey)
	return Principal{Raw: append(sum[:], selfAuthSuffix)}
}

// FromText parses the textual form back into a principal.
// The embedded CRC32 checksum must match.
func FromText(text string) (Principal, error) {
	compact := strings.ReplaceAll(strings.ToLower(text), "-", "")

	decoded, err := encoding.DecodeString(compact)
	if err != nil {
		return Principal{}, fmt.Errorf("decode principal %q:\n%w", text, err)
	}

	if len(decoded) < 4 {
		return Principal{}, fmt.Errorf("principal %q too short: %d bytes", text, len(decoded))
	}

	raw := decoded[4:]
	if len(raw) > MaxLength {
		return Principal{}, fmt.Errorf("principal %q too long: %d bytes", text, len(raw))
	}

	sum := binary.BigEndian.Uint32(decoded[:4])
	if sum != crc32.ChecksumIEEE(raw) {
		return Principal{}, fmt.Errorf("principal %q: checksum mismatch", text)
	}

	return Principal{Raw: raw}, nil
}

// Text returns the dash-grouped textual form.
func (p Principal) Text() string {
	buf := make([]byte, 4+len(p.Raw))
	binary.BigEndian.PutUint32(buf[:4], crc32.ChecksumIEEE(p.Raw))
	copy(buf[4:], p.Raw)

	raw := encoding.EncodeToString(buf)

	var sb strings.Builder
	for i, r := range raw {
		if i > 0 && i%5 == 0 {
			sb.WriteByte('-')
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

// String implements fmt.Stringer with the textual form.
func (p Principal) String() string {
	return p.Text()
}

// Equal reports whether two principals have the same byte form.
func (p Principal) Equal(other Principal) bool {
	return bytes.Equal(p.Raw, other.Raw)
}

// Cmp orders principals as unsigned byte strings, shorter-first on a
// shared prefix. It returns -1, 0 or 1 like bytes.Compare.
func (p Principal) Cmp(other Principal) int {
	return bytes.Compare(p.Raw, other.Raw)
}
