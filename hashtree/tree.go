// Package hashtree models the pruned Merkle trees carried inside
// certificates: five node kinds, root-hash reconstruction with
// domain-separated digests, and path lookup that distinguishes proven
// absence from pruned-away uncertainty.
package hashtree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Label is one path segment in a hash tree.
type Label []byte

// Node is one node of a hash tree. The five implementations are Empty,
// Fork, Labeled, Leaf and Pruned; no other kinds exist on the wire.
type Node interface {
	// Reconstruct returns the root hash of the subtree at this node.
	Reconstruct() [32]byte

	fmt.Stringer
}

// Empty is the empty tree.
type Empty struct{}

// Fork joins two subtrees. Labels under the left side sort strictly
// before labels under the right side.
type Fork struct {
	Left  Node
	Right Node
}

// Labeled attaches a label to a subtree.
type Labeled struct {
	Label Label
	Tree  Node
}

// Leaf holds a byte-string value.
type Leaf []byte

// Pruned replaces an omitted subtree with its precomputed root hash.
type Pruned [32]byte

// DomainSeparator prefixes a short ASCII tag with its one-byte length,
// preventing digests from colliding across contexts.
func DomainSeparator(tag string) []byte {
	buf := make([]byte, 0, len(tag)+1)
	buf = append(buf, byte(len(tag)))

	return append(buf, tag...)
}

// Reconstruct returns the root hash of a tree. A nil tree counts as Empty.
func Reconstruct(n Node) [32]byte {
	if n == nil {
		return Empty{}.Reconstruct()
	}
	return n.Reconstruct()
}

// Reconstruct returns H(DS("ic-hashtree-empty")).
func (Empty) Reconstruct() [32]byte {
	return sha256.Sum256(DomainSeparator("ic-hashtree-empty"))
}

// Reconstruct returns H(DS("ic-hashtree-fork") ‖ left ‖ right).
func (f Fork) Reconstruct() [32]byte {
	left := Reconstruct(f.Left)
	right := Reconstruct(f.Right)

	h := sha256.New()
	h.Write(DomainSeparator("ic-hashtree-fork"))
	h.Write(left[:])
	h.Write(right[:])

	var sum [32]byte
	h.Sum(sum[:0])

	return sum
}

// Reconstruct returns H(DS("ic-hashtree-labeled") ‖ label ‖ subtree).
func (l Labeled) Reconstruct() [32]byte {
	sub := Reconstruct(l.Tree)

	h := sha256.New()
	h.Write(DomainSeparator("ic-hashtree-labeled"))
	h.Write(l.Label)
	h.Write(sub[:])

	var sum [32]byte
	h.Sum(sum[:0])

	return sum
}

// Reconstruct returns H(DS("ic-hashtree-leaf") ‖ contents).
func (l Leaf) Reconstruct() [32]byte {
	h := sha256.New()
	h.Write(DomainSeparator("ic-hashtree-leaf"))
	h.Write(l)

	var sum [32]byte
	h.Sum(sum[:0])

	return sum
}

// Reconstruct returns the precomputed digest verbatim.
func (p Pruned) Reconstruct() [32]byte {
	return [32]byte(p)
}

// FlattenForks lists the immediate non-fork children of a tree in
// left-to-right order, dissolving nested forks and empties.
func FlattenForks(n Node) []Node {
	switch t := n.(type) {
	case nil, Empty:
		return nil
	case Fork:
		return append(FlattenForks(t.Left), FlattenForks(t.Right)...)
	default:
		return []Node{n}
	}
}

func (Empty) String() string {
	return "Empty"
}

func (f Fork) String() string {
	return fmt.Sprintf("Fork(%s, %s)", f.Left, f.Right)
}

func (l Labeled) String() string {
	return fmt.Sprintf("Labeled(%s, %s)", formatLabel(l.Label), l.Tree)
}

func (l Leaf) String() string {
	return fmt.Sprintf("Leaf(%s)", formatLabel(l))
}

func (p Pruned) String() string {
	return fmt.Sprintf("Pruned(0x%s)", hex.EncodeToString(p[:4]))
}

// formatLabel renders printable labels as quoted text, others as hex.
func formatLabel(b []byte) string {
	printable := true
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			printable = false
			break
		}
	}

	if printable && len(b) > 0 {
		return fmt.Sprintf("%q", string(b))
	}

	return "0x" + hex.EncodeToString(b)
}

// Format renders a tree as an indented multi-line diagnostic string.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n, 0)

	return sb.String()
}

func format(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)

	switch t := n.(type) {
	case nil:
		fmt.Fprintf(sb, "%snil\n", indent)
	case Fork:
		fmt.Fprintf(sb, "%sFork\n", indent)
		format(sb, t.Left, depth+1)
		format(sb, t.Right, depth+1)
	case Labeled:
		fmt.Fprintf(sb, "%sLabeled %s\n", indent, formatLabel(t.Label))
		format(sb, t.Tree, depth+1)
	default:
		fmt.Fprintf(sb, "%s%s\n", indent, t)
	}
}
