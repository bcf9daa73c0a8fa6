package hashing

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestHashProperties checks structural laws of the hash over randomly
// generated values.
func TestHashProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("uint64 and big.Int agree", prop.ForAll(
		func(v uint64) bool {
			a, err := HashAny(v)
			if err != nil {
				return false
			}
			b, err := HashAny(new(big.Int).SetUint64(v))
			if err != nil {
				return false
			}
			return a == b
		},
		gen.UInt64(),
	))

	properties.Property("nil entries never change a map hash", prop.ForAll(
		func(key string, extra string) bool {
			base := map[string]any{key: "value"}
			padded := map[string]any{key: "value", key + extra + "absent": nil}

			a, err := HashAny(base)
			if err != nil {
				return false
			}
			b, err := HashAny(padded)
			if err != nil {
				return false
			}
			return a == b
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("hashing is deterministic", prop.ForAll(
		func(s string, n uint64, bs []byte) bool {
			value := map[string]any{
				"text":  s,
				"count": n,
				"blob":  bs,
				"seq":   []any{s, n},
			}

			a, err := HashAny(value)
			if err != nil {
				return false
			}
			b, err := HashAny(value)
			if err != nil {
				return false
			}
			return a == b
		},
		gen.AnyString(),
		gen.UInt64(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.Property("distinct strings hash distinctly", prop.ForAll(
		func(a, b string) bool {
			ha, err := HashAny(a)
			if err != nil {
				return false
			}
			hb, err := HashAny(b)
			if err != nil {
				return false
			}
			return (a == b) == (ha == hb)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
