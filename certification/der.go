package certification

import (
	"bytes"
	"fmt"
)

// derPrefix is the fixed DER envelope for BLS12-381 G2 public keys:
// a SubjectPublicKeyInfo naming the bls12-381-g2 algorithm identifier.
var derPrefix = []byte{
	0x30, 0x81, 0x82, 0x30, 0x1d, 0x06, 0x0d, 0x2b,
	0x06, 0x01, 0x04, 0x01, 0x82, 0xdc, 0x7c, 0x05,
	0x03, 0x01, 0x02, 0x01, 0x06, 0x0c, 0x2b, 0x06,
	0x01, 0x04, 0x01, 0x82, 0xdc, 0x7c, 0x05, 0x03,
	0x02, 0x01, 0x03, 0x61, 0x00,
}

// derKeyLength is the total length of a DER-wrapped key.
var derKeyLength = len(derPrefix) + PublicKeySize

// ExtractDER strips the DER envelope from a wrapped BLS public key,
// returning the 96-byte raw key.
func ExtractDER(der []byte) ([]byte, error) {
	if len(der) != derKeyLength {
		return nil, &MalformedDERError{
			Length: len(der),
			Reason: fmt.Sprintf("want %d bytes", derKeyLength),
		}
	}

	if !bytes.Equal(der[:len(derPrefix)], derPrefix) {
		return nil, &MalformedDERError{
			Length: len(der),
			Reason: "prefix does not match the BLS12-381 G2 envelope",
		}
	}

	return der[len(derPrefix):], nil
}

// WrapDER wraps a 96-byte raw BLS public key in the DER envelope.
func WrapDER(raw []byte) ([]byte, error) {
	if len(raw) != PublicKeySize {
		return nil, &MalformedDERError{
			Length: len(raw),
			Reason: fmt.Sprintf("raw key must be %d bytes", PublicKeySize),
		}
	}

	wrapped := make([]byte, 0, derKeyLength)
	wrapped = append(wrapped, derPrefix...)

	return append(wrapped, raw...), nil
}
