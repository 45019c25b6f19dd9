package script

import (
	"fmt"
	"log"

	"github.com/sealedsins/sealed-away/scope"
	"github.com/sealedsins/sealed-away/serializer"
	"github.com/sealedsins/sealed-away/stack"
	"github.com/sealedsins/sealed-away/tracing"
	"github.com/sealedsins/sealed-away/types"
)

// Event is what subscribers receive: a semantic event emitted by the
// interpreter or by an authored `emit` command.
type Event struct {
	Type string
	Data any
}

// Listener receives emitted events in registration order.
type Listener func(Event)

// CommandHandler implements one command's effect against a running Script.
// path locates the command node itself (for error reporting and for
// computing the path of any nested block the handler pushes); args is the
// command's raw, unresolved argument node — handlers resolve whichever
// parts of it they need to evaluate now via Script.Resolve, and pass
// whichever parts are deferred code blocks straight to Script.PushBlock.
type CommandHandler func(s *Script, path []any, name string, args types.Node) error

// Script is the generic command interpreter: composes a Stack, a Scope and
// a Serializer over a fixed source node list.
//
// Grounded on the teacher's task.Task (single-threaded, externally stepped
// execution) and vm.VM.Run's pull/dispatch loop.
type Script struct {
	source []types.Node
	stack  *stack.Stack
	scope  *scope.Scope
	codec  *serializer.Codec

	commands map[string]CommandHandler

	framePaths map[*stack.Frame][]any

	listeners    []subscriber
	nextListener int

	// Logger receives the resolved string argument of `print` commands.
	// Defaults to the standard logger, mirroring the teacher's cmd/barn use
	// of the stdlib log package (no logging library appears anywhere in
	// the corpus).
	Logger func(string)
}

type subscriber struct {
	id      int
	fn      Listener
	removed bool
}

// New constructs a Script over source, pushing source as the root frame.
func New(source []types.Node) *Script {
	s := &Script{
		source:     source,
		stack:      stack.New(),
		scope:      scope.New(),
		codec:      serializer.NewDefault(),
		commands:   make(map[string]CommandHandler),
		framePaths: make(map[*stack.Frame][]any),
		Logger:     func(msg string) { log.Println(msg) },
	}
	registerBaseCommands(s)
	root := s.stack.Push(source)
	s.framePaths[root] = []any{}
	return s
}

// RegisterCommand adds or overrides a command handler. Dialects (e.g.
// scene.Scene) call this after constructing the embedded Script to extend
// the dispatch table; any command name not registered there falls through
// to whatever Script already registered.
func (s *Script) RegisterCommand(name string, handler CommandHandler) {
	s.commands[name] = handler
}

// Scope exposes the underlying variable scope, for dialects that need to
// manage reserved keys (e.g. scene's `state`/`yield`/`menu`).
func (s *Script) Scope() *scope.Scope { return s.scope }

// Stack exposes the underlying frame stack, for dialects that need to push
// additional frames directly (e.g. scene's `pick`).
func (s *Script) Stack() *stack.Stack { return s.stack }

// Source returns the script's root node list.
func (s *Script) Source() []types.Node { return s.source }

// IsDone reports whether the stack holds no more instructions.
func (s *Script) IsDone() bool { return s.stack.IsEmpty() }

// GetVar reads a scope variable.
func (s *Script) GetVar(name string) any { return s.scope.Get(name) }

// SetVar writes a scope variable.
func (s *Script) SetVar(name string, value any) { s.scope.Set(name, value) }

// Emit calls every subscriber, in registration order, with {type, data}.
// The "step" event itself is traced by Step (which already knows the
// command name), so only non-step events are traced here.
func (s *Script) Emit(eventType string, data any) {
	if eventType != "step" {
		tracing.Event(eventType, data)
	}
	event := Event{Type: eventType, Data: data}
	// range reads s.listeners once, so a listener subscribed during this
	// call is first invoked on the next Emit. Unsubscribing only sets the
	// removed flag and never shrinks the slice, so a listener that
	// unsubscribes itself mid-call doesn't make a sibling get skipped.
	for _, sub := range s.listeners {
		if sub.removed {
			continue
		}
		sub.fn(event)
	}
}

// Subscribe appends listener and returns a function that removes exactly
// this listener. Modeled on the spec's slab-key/generation-counter design
// note: removal tombstones by id rather than mutating the slice, so it is
// safe to call from inside Emit.
func (s *Script) Subscribe(listener Listener) func() {
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, subscriber{id: id, fn: listener})
	return func() {
		for i := range s.listeners {
			if s.listeners[i].id == id {
				s.listeners[i].removed = true
				return
			}
		}
	}
}

// PushBlock pushes a deferred code block (e.g. an `if`'s then/else, or a
// menu entry) as a new frame, recording its path for save/load.
func (s *Script) PushBlock(path []any, code []types.Node) {
	frame := s.stack.Push(code)
	cloned := make([]any, len(path))
	copy(cloned, path)
	s.framePaths[frame] = cloned
}

// Resolve substitutes every tagged expression by its evaluated value and
// every tagged template by its rendered string, recursively through
// mappings and lists, returning a plain value tree. Command handlers call
// this explicitly on whichever argument fields they mean to evaluate now;
// fields that are themselves deferred code blocks (then/else, menu bodies)
// must NOT be passed through Resolve — pushing them prematurely runs their
// own expressions before that block is actually reached.
func (s *Script) Resolve(n types.Node) (any, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case *types.NullNode:
		return nil, nil
	case *types.BoolNode:
		return v.Value, nil
	case *types.NumberNode:
		return v.Value, nil
	case *types.StringNode:
		return v.Value, nil
	case *types.ExprNode:
		return s.scope.RenderExpression(v.Source)
	case *types.FmtNode:
		return s.scope.RenderTemplate(v.Source)
	case *types.ListNode:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			val, err := s.Resolve(item)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case *types.MapNode:
		out := make(map[string]any, len(v.Keys))
		for _, entry := range v.Entries() {
			val, err := s.Resolve(entry.Value)
			if err != nil {
				return nil, err
			}
			out[entry.Key] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown node type %T", n)
	}
}

// Step pulls one value from the stack, dispatches it, and on success emits
// {type:"step"}. On failure the error is re-raised as a *Error carrying the
// node path of the offending command; the stack is left exactly as it was
// after the failing pull (advanced past the failed instruction).
func (s *Script) Step() error {
	frame, idx, node, ok := s.stack.Pull()
	if !ok {
		return nil
	}
	path := append(append([]any{}, s.framePaths[frame]...), idx)

	name, args, isCmd := types.AsCommand(node)
	if !isCmd {
		return newError(path, nil, "not a command: expected a single-key mapping")
	}

	handler, known := s.commands[name]
	if !known {
		err := newError(path, nil, "Unknown command: %s", name)
		tracing.StepError(name, path, err)
		return err
	}
	if err := handler(s, path, name, args); err != nil {
		if serr, ok := err.(*Error); ok {
			tracing.StepError(name, path, serr)
			return serr
		}
		wrapped := newError(path, err, "%s", err.Error())
		tracing.StepError(name, path, wrapped)
		return wrapped
	}

	tracing.Step(name, path)
	s.Emit("step", nil)
	return nil
}

// Jump finds the root-level `{label: L}` command and repositions execution
// there. Any active nested frames are discarded — jump is a full control
// transfer back to the root, not a call — leaving only the repositioned
// root frame on the stack, per spec.md §4.1's "only the root may host the
// label-targeted jump reset".
func (s *Script) Jump(label string) error {
	index := -1
	for i, node := range s.source {
		name, args, isCmd := types.AsCommand(node)
		if !isCmd || name != "label" {
			continue
		}
		value, err := s.Resolve(args)
		if err != nil {
			return newError([]any{i, name}, err, "label: %s", err.Error())
		}
		if str, ok := value.(string); ok && str == label {
			index = i
			break
		}
	}
	if index < 0 {
		return newError(nil, nil, "jump: unknown label %q", label)
	}

	s.stack.Clear()
	frame := s.stack.Push(s.source)
	frame.PC = index
	s.framePaths[frame] = []any{}
	return nil
}
