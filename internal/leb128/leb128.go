// Package leb128 encodes and decodes unsigned LEB128 integers, the
// variable-width encoding used for numbers inside certified state.
package leb128

import (
	"fmt"
	"math/big"
)

// EncodeUint64 returns the minimal unsigned LEB128 encoding of v.
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, 0, 10)

	for {
		b := byte(v & 0x7f)
		v >>= 7

		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)

		if v == 0 {
			return buf
		}
	}
}

// EncodeBig returns the minimal unsigned LEB128 encoding of v.
// Negative values are rejected.
func EncodeBig(v *big.Int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("leb128: cannot encode negative value %s", v)
	}

	if v.IsUint64() {
		return EncodeUint64(v.Uint64()), nil
	}

	buf := make([]byte, 0, (v.BitLen()+6)/7)
	rest := new(big.Int).Set(v)
	low := new(big.Int)

	for {
		low.And(rest, big.NewInt(0x7f))
		rest.Rsh(rest, 7)

		b := byte(low.Uint64())
		if rest.Sign() != 0 {
			b |= 0x80
		}
		buf = append(buf, b)

		if rest.Sign() == 0 {
			return buf, nil
		}
	}
}

// DecodeUint64 decodes a whole buffer as one unsigned LEB128 integer.
// Values that do not fit in 64 bits are rejected.
func DecodeUint64(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("leb128: empty input")
	}

	var result uint64
	var shift uint

	for i, b := range data {
		if shift >= 64 || (shift == 63 && b&0x7f > 1) {
			return 0, fmt.Errorf("leb128: value overflows 64 bits")
		}

		result |= uint64(b&0x7f) << shift
		shift += 7

		if b&0x80 == 0 {
			if i != len(data)-1 {
				return 0, fmt.Errorf("leb128: %d trailing bytes after terminator", len(data)-1-i)
			}
			return result, nil
		}
	}

	return 0, fmt.Errorf("leb128: unterminated encoding")
}
