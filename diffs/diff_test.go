package diffs

import (
	"reflect"
	"testing"
)

func toAny(xs ...string) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func TestDiffLawApplyReproducesB(t *testing.T) {
	cases := [][2][]any{
		{toAny("a", "b", "c"), toAny("a", "b", "c")},
		{toAny("a", "b", "c"), toAny("a", "x", "c")},
		{toAny("a", "b", "c"), toAny("b", "c", "d")},
		{toAny(), toAny("a", "b")},
		{toAny("a", "b"), toAny()},
		{toAny("print A", "print B", "print C"), toAny("print A", "print B", "print C1", "print C2", "print D")},
	}
	for i, c := range cases {
		a, b := c[0], c[1]
		changes := Diff(a, b, nil)
		got := Apply(a, changes)
		if !reflect.DeepEqual(got, b) {
			t.Errorf("case %d: apply(diff(a,b)) = %v, want %v", i, got, b)
		}
	}
}

func TestDiffSelfIsAllKept(t *testing.T) {
	a := toAny("x", "y", "z")
	changes := Diff(a, a, nil)
	for _, c := range changes {
		if c.Kind != Kept {
			t.Fatalf("diff(a,a) contained a non-kept change: %+v", c)
		}
	}
	if len(changes) != len(a) {
		t.Fatalf("diff(a,a) has %d changes, want %d", len(changes), len(a))
	}
}

func TestDiffOrderingPreservesA(t *testing.T) {
	a := toAny("a", "b", "c")
	b := toAny("a", "x", "c")
	changes := Diff(a, b, nil)

	var fromA []any
	for _, c := range changes {
		if c.Kind == Kept || c.Kind == Removed {
			fromA = append(fromA, c.Value)
		}
	}
	if !reflect.DeepEqual(fromA, a) {
		t.Errorf("kept+removed = %v, want %v", fromA, a)
	}
}
