// Package diffs implements a minimal array diff used by the stack package
// to adapt a frame's program counter when its code is hot-patched.
package diffs

import "github.com/sealedsins/sealed-away/types"

// Kind identifies the kind of a Change.
type Kind int

const (
	// Kept marks a value present in both inputs at the given positions.
	Kept Kind = iota
	// Inserted marks a value present only in b.
	Inserted
	// Removed marks a value present only in a.
	Removed
)

// Change is one entry of a diff between two sequences a and b.
//
// The sequence of changes, restricted to Kept+Removed, reproduces a in
// order; restricted to Kept+Inserted, it reproduces b in order.
type Change struct {
	Kind   Kind
	Value  any
	IndexA int // valid for Kept, Removed; -1 for Inserted
	IndexB int // valid for Kept, Inserted; -1 for Removed
}

// Equal is an equality predicate used to match elements across a and b.
type Equal func(a, b any) bool

// Diff computes a minimal edit script turning a into b using a Myers
// O(ND) diff. eq defaults to types.DeepEqual (structural equality over
// plain values, nested lists and maps included) when nil.
func Diff(a, b []any, eq Equal) []Change {
	if eq == nil {
		eq = types.DeepEqual
	}
	n, m := len(a), len(b)

	// trace[d] holds the furthest-reaching x for each diagonal k at edit
	// distance d, stored as a slice indexed by (k + max), following the
	// classic Myers presentation.
	max := n + m
	if max == 0 {
		return nil
	}
	offset := max
	size := 2*max + 1
	trace := make([][]int, 0, max+1)

	v := make([]int, size)
	v[offset+1] = 0

found:
	for d := 0; d <= max; d++ {
		snapshot := make([]int, size)
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k

			for x < n && y < m && eq(a[x], b[y]) {
				x++
				y++
			}
			v[offset+k] = x

			if x >= n && y >= m {
				break found
			}
		}
	}

	return backtrack(a, b, trace, offset, eq)
}

// backtrack walks the recorded Myers traces from (n,m) back to (0,0),
// producing the change list in forward (a/b increasing) order.
func backtrack(a, b []any, trace [][]int, offset int, eq Equal) []Change {
	x, y := len(a), len(b)
	var changes []Change

	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			changes = append(changes, Change{Kind: Kept, Value: a[x], IndexA: x, IndexB: y})
		}

		if d > 0 {
			if x == prevX {
				y--
				changes = append(changes, Change{Kind: Inserted, Value: b[y], IndexA: -1, IndexB: y})
			} else {
				x--
				changes = append(changes, Change{Kind: Removed, Value: a[x], IndexA: x, IndexB: -1})
			}
		}
		x, y = prevX, prevY
	}

	// changes was built back-to-front; reverse it.
	for i, j := 0, len(changes)-1; i < j; i, j = i+1, j-1 {
		changes[i], changes[j] = changes[j], changes[i]
	}
	return changes
}

// Apply reconstructs b from a and a change list, for testing the diff law.
func Apply(a []any, changes []Change) []any {
	out := make([]any, 0, len(changes))
	for _, c := range changes {
		if c.Kind == Kept || c.Kind == Inserted {
			out = append(out, c.Value)
		}
	}
	return out
}
