// Package stack implements the explicit execution stack that lets a script
// be paused, resumed, saved and hot-patched without losing its position.
//
// Grounded on the teacher's vm.VM call stack (vm/vm.go StackFrame/Frames),
// simplified to this engine's single-PC frame contract.
package stack

import (
	"github.com/sealedsins/sealed-away/diffs"
	"github.com/sealedsins/sealed-away/types"
)

// Frame is (code, programCounter): a node list plus an index into it.
// Invariant: 0 <= PC <= len(Code); PC == len(Code) means exhausted.
type Frame struct {
	Code []types.Node
	PC   int
}

func (f *Frame) exhausted() bool {
	return f.PC >= len(f.Code)
}

// Error reports a stack invariant violation. These are programmer bugs,
// not user-facing failures; callers (the script package) wrap them into a
// script error before they reach a host.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Stack is a LIFO collection of frames. The active frame is the top; the
// root frame (index 0) is the bottom and is the only one the label-targeted
// jump reset may reposition.
type Stack struct {
	frames []*Frame
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push creates a new frame with pc=0 on top of the stack and returns it.
func (s *Stack) Push(code []types.Node) *Frame {
	f := &Frame{Code: code, PC: 0}
	s.frames = append(s.frames, f)
	return f
}

// PushFrame pushes an already-constructed frame (e.g. one reconstructed
// from a save file) directly onto the stack, without resetting its PC.
func (s *Stack) PushFrame(f *Frame) {
	s.frames = append(s.frames, f)
}

// Root returns the bottom frame, or nil if the stack is empty.
func (s *Stack) Root() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0]
}

// Len reports the number of live frames.
func (s *Stack) Len() int {
	return len(s.frames)
}

// Peek returns the current instruction without advancing. If the top frame
// is exhausted, Peek does NOT pop it — it simply reports no value.
func (s *Stack) Peek() (frame *Frame, index int, value types.Node, ok bool) {
	if len(s.frames) == 0 {
		return nil, 0, nil, false
	}
	top := s.frames[len(s.frames)-1]
	if top.exhausted() {
		return top, top.PC, nil, false
	}
	return top, top.PC, top.Code[top.PC], true
}

// Pull returns the current instruction, then advances pc. If pc reaches
// len(code) afterward, the frame is popped.
func (s *Stack) Pull() (frame *Frame, index int, value types.Node, ok bool) {
	frame, index, value, ok = s.Peek()
	if !ok {
		return
	}
	frame.PC++
	if frame.exhausted() {
		s.frames = s.frames[:len(s.frames)-1]
	}
	return
}

// IsEmpty reports whether no frame would yield a value from Peek.
func (s *Stack) IsEmpty() bool {
	_, _, _, ok := s.Peek()
	return !ok
}

// Clear removes all frames.
func (s *Stack) Clear() {
	s.frames = nil
}

// Dump returns the observable list of frames, root first (bottom-up), for
// saving.
func (s *Stack) Dump() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Patch replaces frame.Code with newCode and shifts frame.PC so it still
// points at the same logical instruction, using a line-level diff.
//
// Algorithm (spec-mandated): walk the diff of (oldCode, newCode) while
// tracking a cursor into the old code that starts at 0. For each change
// consumed before the cursor reaches the original pc: Removed decrements
// pc, Inserted increments pc, Kept advances the cursor. Stop the instant
// the cursor reaches the original pc — so if the instruction at pc was
// itself replaced by inserts, execution resumes at the first inserted
// instruction at that position.
func (s *Stack) Patch(frame *Frame, newCode []types.Node) error {
	if frame == nil {
		return &Error{Message: "patch: nil frame"}
	}
	found := false
	for _, f := range s.frames {
		if f == frame {
			found = true
			break
		}
	}
	if !found {
		return &Error{Message: "patch: frame is not on this stack"}
	}

	oldPC := frame.PC
	a := nodesToAny(frame.Code)
	b := nodesToAny(newCode)
	changes := diffs.Diff(a, b, nodeEqual)

	newPC := oldPC
	cursor := 0
	for _, c := range changes {
		if cursor >= oldPC {
			break
		}
		switch c.Kind {
		case diffs.Removed:
			newPC--
		case diffs.Inserted:
			newPC++
		case diffs.Kept:
			cursor++
		}
	}

	frame.Code = newCode
	if newPC < 0 {
		newPC = 0
	}
	if newPC > len(newCode) {
		newPC = len(newCode)
	}
	frame.PC = newPC
	return nil
}

func nodesToAny(nodes []types.Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// nodeEqual compares two nodes structurally. Pointer identity is
// deliberately NOT used here: patching must recognise a re-parsed node
// that looks the same as "kept", even though the parser minted a brand
// new pointer for it.
func nodeEqual(x, y any) bool {
	nx, okx := x.(types.Node)
	ny, oky := y.(types.Node)
	if !okx || !oky {
		return false
	}
	return types.NodeEqual(nx, ny)
}
