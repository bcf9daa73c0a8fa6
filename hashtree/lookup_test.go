package hashtree

import (
	"bytes"
	"testing"
)

// TestLookupPathFullTree tests lookups where the tree holds complete
// information.
func TestLookupPathFullTree(t *testing.T) {
	tree := exampleTree()

	cases := []struct {
		path  []Label
		want  LookupStatus
		value string
	}{
		{[]Label{Label("a"), Label("x")}, LookupFound, "hello"},
		{[]Label{Label("a"), Label("y")}, LookupFound, "world"},
		{[]Label{Label("b")}, LookupFound, "good"},
		{[]Label{Label("d")}, LookupFound, "morning"},
		{[]Label{Label("aa")}, LookupAbsent, ""},
		{[]Label{Label("e")}, LookupAbsent, ""},
		{[]Label{Label("a"), Label("z")}, LookupAbsent, ""},
		{[]Label{Label("a")}, LookupError, ""},
		{[]Label{Label("c")}, LookupError, ""},
	}

	for _, c := range cases {
		res := LookupPath(tree, c.path...)

		if res.Status != c.want {
			t.Errorf("lookup %s: got %s, want %s", formatPath(c.path), res.Status, c.want)
			continue
		}

		if c.want == LookupFound && !bytes.Equal(res.Value, []byte(c.value)) {
			t.Errorf("lookup %s: got value %q, want %q", formatPath(c.path), res.Value, c.value)
		}
	}
}

// TestLookupPathPrunedTree tests that pruning turns hidden paths into
// unknowns while keeping proven facts intact.
func TestLookupPathPrunedTree(t *testing.T) {
	tree := prunedExampleTree()

	cases := []struct {
		path  []Label
		want  LookupStatus
		value string
	}{
		// The a/x fork is pruned, so anything under it is unknowable.
		{[]Label{Label("a"), Label("a")}, LookupUnknown, ""},
		{[]Label{Label("a"), Label("x")}, LookupUnknown, ""},

		// The y branch survived pruning.
		{[]Label{Label("a"), Label("y")}, LookupFound, "world"},

		// The b value itself is pruned away.
		{[]Label{Label("b")}, LookupUnknown, ""},

		// "aa" is bracketed by the visible "a" and "b" labels.
		{[]Label{Label("aa")}, LookupAbsent, ""},

		// "ax" falls in the same bracket.
		{[]Label{Label("ax")}, LookupAbsent, ""},

		// The c branch is pruned, so "c" might hide behind it.
		{[]Label{Label("c")}, LookupUnknown, ""},

		{[]Label{Label("d")}, LookupFound, "morning"},

		// "e" sorts after every label the pruned subtree could hold.
		{[]Label{Label("e")}, LookupAbsent, ""},
	}

	for _, c := range cases {
		res := LookupPath(tree, c.path...)

		if res.Status != c.want {
			t.Errorf("lookup %s: got %s, want %s", formatPath(c.path), res.Status, c.want)
			continue
		}

		if c.want == LookupFound && !bytes.Equal(res.Value, []byte(c.value)) {
			t.Errorf("lookup %s: got value %q, want %q", formatPath(c.path), res.Value, c.value)
		}
	}
}

func formatPath(path []Label) string {
	var sb []byte
	for i, segment := range path {
		if i > 0 {
			sb = append(sb, '/')
		}
		sb = append(sb, segment...)
	}
	return string(sb)
}

// TestLookupPathEmptyPath tests the base cases of an empty path.
func TestLookupPathEmptyPath(t *testing.T) {
	if res := LookupPath(Leaf("value")); res.Status != LookupFound || string(res.Value) != "value" {
		t.Errorf("empty path on leaf: got %s", res.Status)
	}

	if res := LookupPath(mustPruned("1b4feff9bef8131788b0c9dc6dbad6e81e524249c879e9f10f71ce3749f5a638")); res.Status != LookupUnknown {
		t.Errorf("empty path on pruned: got %s", res.Status)
	}

	if res := LookupPath(Empty{}); res.Status != LookupError {
		t.Errorf("empty path on empty: got %s", res.Status)
	}
}

// TestLookupSubtree tests resolving a path to its subtree instead of a
// leaf.
func TestLookupSubtree(t *testing.T) {
	sub, status := LookupSubtree(exampleTree(), Label("a"))
	if status != LookupFound {
		t.Fatalf("subtree a: got %s", status)
	}

	if res := LookupPath(sub, Label("x")); res.Status != LookupFound || string(res.Value) != "hello" {
		t.Errorf("lookup x in subtree: got %s", res.Status)
	}

	if _, status := LookupSubtree(exampleTree(), Label("nope")); status != LookupAbsent {
		t.Errorf("missing subtree: got %s", status)
	}
}

// TestFindLabelOnLeafIsAbsent tests that value nodes carry no labels.
func TestFindLabelOnLeafIsAbsent(t *testing.T) {
	if _, status := FindLabel(Leaf("x"), Label("a")); status != LookupAbsent {
		t.Errorf("find on leaf: got %s", status)
	}

	if _, status := FindLabel(Empty{}, Label("a")); status != LookupAbsent {
		t.Errorf("find on empty: got %s", status)
	}
}

// TestLookupStatusString tests the status names used in errors.
func TestLookupStatusString(t *testing.T) {
	cases := map[LookupStatus]string{
		LookupFound:   "found",
		LookupAbsent:  "absent",
		LookupUnknown: "unknown",
		LookupError:   "error",
	}

	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("status %d: got %q, want %q", status, got, want)
		}
	}
}
