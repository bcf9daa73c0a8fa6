package hashtree

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire tags for the five node kinds.
const (
	tagEmpty   = 0
	tagFork    = 1
	tagLabeled = 2
	tagLeaf    = 3
	tagPruned  = 4
)

// MalformedTreeError reports a tree encoding that violates the wire
// format.
type MalformedTreeError struct {
	// Reason describes what was malformed.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedTreeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed hash tree: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed hash tree: %s", e.Reason)
}

func (e *MalformedTreeError) Unwrap() error {
	return e.Err
}

// Deserialize parses a CBOR-encoded hash tree. Nodes are arrays whose
// first element selects the kind: [0], [1, l, r], [2, label, t],
// [3, contents], [4, digest].
func Deserialize(data []byte) (Node, error) {
	var raw cbor.RawMessage
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedTreeError{Reason: "not valid cbor", Err: err}
	}

	return decodeNode(raw)
}

func decodeNode(raw cbor.RawMessage) (Node, error) {
	var elems []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &elems); err != nil {
		return nil, &MalformedTreeError{Reason: "node is not an array", Err: err}
	}

	if len(elems) == 0 {
		return nil, &MalformedTreeError{Reason: "node array is empty"}
	}

	var tag uint64
	if err := cbor.Unmarshal(elems[0], &tag); err != nil {
		return nil, &MalformedTreeError{Reason: "node tag is not an integer", Err: err}
	}

	switch tag {
	case tagEmpty:
		if len(elems) != 1 {
			return nil, &MalformedTreeError{Reason: "empty node with operands"}
		}
		return Empty{}, nil

	case tagFork:
		if len(elems) != 3 {
			return nil, &MalformedTreeError{Reason: fmt.Sprintf("fork with %d operands", len(elems)-1)}
		}

		left, err := decodeNode(elems[1])
		if err != nil {
			return nil, err
		}

		right, err := decodeNode(elems[2])
		if err != nil {
			return nil, err
		}

		return Fork{Left: left, Right: right}, nil

	case tagLabeled:
		if len(elems) != 3 {
			return nil, &MalformedTreeError{Reason: fmt.Sprintf("labeled node with %d operands", len(elems)-1)}
		}

		var label []byte
		if err := cbor.Unmarshal(elems[1], &label); err != nil {
			return nil, &MalformedTreeError{Reason: "label is not a byte string", Err: err}
		}

		tree, err := decodeNode(elems[2])
		if err != nil {
			return nil, err
		}

		return Labeled{Label: label, Tree: tree}, nil

	case tagLeaf:
		if len(elems) != 2 {
			return nil, &MalformedTreeError{Reason: fmt.Sprintf("leaf with %d operands", len(elems)-1)}
		}

		var contents []byte
		if err := cbor.Unmarshal(elems[1], &contents); err != nil {
			return nil, &MalformedTreeError{Reason: "leaf contents are not a byte string", Err: err}
		}
		if contents == nil {
			contents = []byte{}
		}

		return Leaf(contents), nil

	case tagPruned:
		if len(elems) != 2 {
			return nil, &MalformedTreeError{Reason: fmt.Sprintf("pruned node with %d operands", len(elems)-1)}
		}

		var digest []byte
		if err := cbor.Unmarshal(elems[1], &digest); err != nil {
			return nil, &MalformedTreeError{Reason: "pruned digest is not a byte string", Err: err}
		}
		if len(digest) != 32 {
			return nil, &MalformedTreeError{Reason: fmt.Sprintf("pruned digest is %d bytes, want 32", len(digest))}
		}

		var p Pruned
		copy(p[:], digest)

		return p, nil

	default:
		return nil, &MalformedTreeError{Reason: fmt.Sprintf("unknown node tag %d", tag)}
	}
}

// Serialize encodes a tree back into its CBOR wire form.
func Serialize(n Node) ([]byte, error) {
	encoded, err := cbor.Marshal(wireForm(n))
	if err != nil {
		return nil, fmt.Errorf("encode hash tree:\n%w", err)
	}

	return encoded, nil
}

func wireForm(n Node) []any {
	switch t := n.(type) {
	case nil, Empty:
		return []any{tagEmpty}
	case Fork:
		return []any{tagFork, wireForm(t.Left), wireForm(t.Right)}
	case Labeled:
		return []any{tagLabeled, []byte(t.Label), wireForm(t.Tree)}
	case Leaf:
		return []any{tagLeaf, []byte(t)}
	case Pruned:
		return []any{tagPruned, t[:]}
	default:
		return []any{tagEmpty}
	}
}
