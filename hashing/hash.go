// Package hashing computes the representation-independent hash: a
// canonical SHA-256 digest over structured values that is stable across
// implementations and across map iteration orders. Request identifiers
// are the representation-independent hash of the request content map.
package hashing

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sort"

	"icagent/internal/leb128"
	"icagent/principal"
)

// Hashable is implemented by values whose canonical hashable form
// differs from their in-memory form. HashAny hashes the projection
// instead of the value itself.
type Hashable interface {
	// HashableValue returns the value to hash in place of the receiver.
	HashableValue() any
}

// Tagged wraps a value with a tag that is ignored by hashing.
// Only the inner value contributes to the digest.
type Tagged struct {
	// Value is the wrapped value.
	Value any

	// Tag annotates the value for callers; it never enters the hash.
	Tag string
}

// UnsupportedValueError reports a value outside the hashable universe.
type UnsupportedValueError struct {
	// Value is the offending value, kept for diagnostics.
	Value any
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("cannot hash value of type %T: %v", e.Value, e.Value)
}

// HashAny computes the representation-independent hash of a value.
//
// The universe: strings, unsigned integers (including *big.Int), byte
// strings, []any sequences, map[string]any with absent (nil) entries
// dropped, principals, Tagged wrappers and Hashable projections.
func HashAny(v any) ([32]byte, error) {
	switch x := v.(type) {
	case Tagged:
		return HashAny(x.Value)
	case string:
		return sha256.Sum256([]byte(x)), nil
	case uint64:
		return sha256.Sum256(leb128.EncodeUint64(x)), nil
	case uint:
		return sha256.Sum256(leb128.EncodeUint64(uint64(x))), nil
	case int:
		if x < 0 {
			return [32]byte{}, &UnsupportedValueError{Value: v}
		}
		return sha256.Sum256(leb128.EncodeUint64(uint64(x))), nil
	case int64:
		if x < 0 {
			return [32]byte{}, &UnsupportedValueError{Value: v}
		}
		return sha256.Sum256(leb128.EncodeUint64(uint64(x))), nil
	case []byte:
		return sha256.Sum256(x), nil
	case []any:
		return hashSequence(x)
	case principal.Principal:
		return sha256.Sum256(x.Raw), nil
	case Hashable:
		return HashAny(x.HashableValue())
	case map[string]any:
		return hashMap(x)
	case *big.Int:
		encoded, err := leb128.EncodeBig(x)
		if err != nil {
			return [32]byte{}, &UnsupportedValueError{Value: v}
		}
		return sha256.Sum256(encoded), nil
	default:
		return [32]byte{}, &UnsupportedValueError{Value: v}
	}
}

// hashSequence hashes each element and digests the concatenation.
func hashSequence(seq []any) ([32]byte, error) {
	h := sha256.New()

	for _, elem := range seq {
		eh, err := HashAny(elem)
		if err != nil {
			return [32]byte{}, err
		}
		h.Write(eh[:])
	}

	var sum [32]byte
	h.Sum(sum[:0])

	return sum, nil
}

// hashMap hashes the present entries of a map. Each entry contributes
// H(key) ‖ H(value); pairs are ordered by H(key) as unsigned bytes.
func hashMap(m map[string]any) ([32]byte, error) {
	type entry struct {
		keyHash   [32]byte
		valueHash [32]byte
	}

	entries := make([]entry, 0, len(m))

	for key, value := range m {
		// Absent entries do not participate in the hash.
		if value == nil {
			continue
		}

		vh, err := HashAny(value)
		if err != nil {
			return [32]byte{}, err
		}

		entries = append(entries, entry{
			keyHash:   sha256.Sum256([]byte(key)),
			valueHash: vh,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].keyHash[:], entries[j].keyHash[:]) < 0
	})

	h := sha256.New()
	for _, e := range entries {
		h.Write(e.keyHash[:])
		h.Write(e.valueHash[:])
	}

	var sum [32]byte
	h.Sum(sum[:0])

	return sum, nil
}
