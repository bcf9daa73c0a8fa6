package hashtree

import "bytes"

// LookupStatus classifies the outcome of a path lookup.
type LookupStatus uint8

const (
	// LookupFound means the path resolves to a leaf value.
	LookupFound LookupStatus = iota

	// LookupAbsent means the tree proves the path does not exist.
	LookupAbsent

	// LookupUnknown means a pruned subtree hides whether the path exists.
	LookupUnknown

	// LookupError means the path resolves to a non-leaf node, so there
	// is no byte-string value to return.
	LookupError
)

// String names the status for logs and errors.
func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupAbsent:
		return "absent"
	case LookupUnknown:
		return "unknown"
	case LookupError:
		return "error"
	default:
		return "invalid"
	}
}

// LookupResult is the outcome of resolving a path to a leaf value.
type LookupResult struct {
	// Status classifies the outcome.
	Status LookupStatus

	// Value holds the leaf contents when Status is LookupFound.
	Value []byte
}

// labelOutcome is the five-way result of searching one tree level.
type labelOutcome uint8

const (
	labelFound labelOutcome = iota
	labelAbsent
	labelUnknown
	labelLess    // the label sorts before everything here
	labelGreater // the label sorts after everything here
)

// LookupPath resolves a path to the leaf value at it. Each path segment
// is compared as unsigned bytes, shorter-first on a shared prefix.
func LookupPath(n Node, path ...Label) LookupResult {
	if len(path) == 0 {
		switch t := n.(type) {
		case Leaf:
			return LookupResult{Status: LookupFound, Value: t}
		case Pruned:
			return LookupResult{Status: LookupUnknown}
		default:
			return LookupResult{Status: LookupError}
		}
	}

	child, status := LookupSubtree(n, path[0])
	if status != LookupFound {
		return LookupResult{Status: status}
	}

	return LookupPath(child, path[1:]...)
}

// LookupSubtree resolves a path to the subtree rooted at it, without
// requiring the destination to be a leaf.
func LookupSubtree(n Node, path ...Label) (Node, LookupStatus) {
	if len(path) == 0 {
		return n, LookupFound
	}

	child, outcome := findLabel(n, path[0])
	switch outcome {
	case labelFound:
		return LookupSubtree(child, path[1:]...)
	case labelUnknown:
		return nil, LookupUnknown
	default:
		// less, greater and absent all prove the path cannot exist.
		return nil, LookupAbsent
	}
}

// FindLabel searches the immediate children of a tree for a label.
func FindLabel(n Node, label Label) (Node, LookupStatus) {
	child, outcome := findLabel(n, label)
	switch outcome {
	case labelFound:
		return child, LookupFound
	case labelUnknown:
		return nil, LookupUnknown
	default:
		return nil, LookupAbsent
	}
}

// findLabel searches a subtree for a label, tracking whether the label
// would sort before or after the labels actually present. The bounds
// let a Fork prove absence when both sides bracket the query.
func findLabel(n Node, label Label) (Node, labelOutcome) {
	switch t := n.(type) {
	case Labeled:
		switch cmp := bytes.Compare(label, t.Label); {
		case cmp == 0:
			return t.Tree, labelFound
		case cmp > 0:
			return nil, labelGreater
		default:
			return nil, labelLess
		}

	case Fork:
		// An Empty side carries no labels, so only the other side can
		// hold or bound the query.
		if _, ok := t.Left.(Empty); ok {
			return findLabel(t.Right, label)
		}
		if _, ok := t.Right.(Empty); ok {
			return findLabel(t.Left, label)
		}

		child, left := findLabel(t.Left, label)

		switch left {
		case labelGreater:
			child, right := findLabel(t.Right, label)
			if right == labelLess {
				// Bracketed by definite bounds on both sides.
				return nil, labelAbsent
			}
			return child, right

		case labelUnknown:
			child, right := findLabel(t.Right, label)
			if right == labelLess {
				// The left side is pruned, so the bracket is hidden.
				return nil, labelUnknown
			}
			return child, right

		default:
			return child, left
		}

	case Pruned:
		return nil, labelUnknown

	default:
		// Empty and Leaf carry no labels.
		return nil, labelAbsent
	}
}
