package script

import (
	"fmt"
	"math"

	"github.com/sealedsins/sealed-away/types"
)

// registerBaseCommands installs the engine's built-in vocabulary: control
// flow (if, label, jump), variables (set, eval), output (print, throw) and
// the event escape hatch (emit). Dialects built on top of Script (e.g.
// scene.Scene) register additional commands over this same table.
func registerBaseCommands(s *Script) {
	s.RegisterCommand("if", cmdIf)
	s.RegisterCommand("label", cmdLabel)
	s.RegisterCommand("jump", cmdJump)
	s.RegisterCommand("eval", cmdEval)
	s.RegisterCommand("print", cmdPrint)
	s.RegisterCommand("throw", cmdThrow)
	s.RegisterCommand("set", cmdSet)
	s.RegisterCommand("emit", cmdEmit)
}

func cmdIf(s *Script, path []any, name string, args types.Node) error {
	m, ok := args.(*types.MapNode)
	if !ok {
		return newError(path, nil, "if: expected a mapping with cond/then/else")
	}
	condNode, ok := m.Get("cond")
	if !ok {
		return newError(path, nil, "if: missing \"cond\"")
	}
	cond, err := s.Resolve(condNode)
	if err != nil {
		return newError(childPath(path, name, "cond"), err, "if: %s", err.Error())
	}

	var branchKey string
	if truthy(cond) {
		branchKey = "then"
	} else {
		branchKey = "else"
	}
	branch, hasBranch := m.Get(branchKey)
	if !hasBranch {
		return nil
	}
	list, ok := branch.(*types.ListNode)
	if !ok {
		return newError(path, nil, "if: %q must be a list of commands", branchKey)
	}
	s.PushBlock(childPath(path, name, branchKey), list.Items)
	return nil
}

func cmdLabel(s *Script, path []any, name string, args types.Node) error {
	if _, err := asString(s, args, "label"); err != nil {
		return newError(path, err, "%s", err.Error())
	}
	return nil
}

func cmdJump(s *Script, path []any, name string, args types.Node) error {
	label, err := asString(s, args, "jump")
	if err != nil {
		return newError(path, err, "%s", err.Error())
	}
	if err := s.Jump(label); err != nil {
		return err
	}
	return nil
}

func cmdEval(s *Script, path []any, name string, args types.Node) error {
	src, err := asString(s, args, "eval")
	if err != nil {
		return newError(path, err, "%s", err.Error())
	}
	if err := s.scope.Eval(src); err != nil {
		return newError(path, err, "eval: %s", err.Error())
	}
	return nil
}

func cmdPrint(s *Script, path []any, name string, args types.Node) error {
	msg, err := asString(s, args, "print")
	if err != nil {
		return newError(path, err, "%s", err.Error())
	}
	s.Logger(msg)
	return nil
}

func cmdThrow(s *Script, path []any, name string, args types.Node) error {
	msg, err := asString(s, args, "throw")
	if err != nil {
		return newError(path, err, "%s", err.Error())
	}
	return newError(path, nil, "%s", msg)
}

func cmdSet(s *Script, path []any, name string, args types.Node) error {
	m, ok := args.(*types.MapNode)
	if !ok {
		return newError(path, nil, "set: expected a mapping with name/value")
	}
	nameNode, ok := m.Get("name")
	if !ok {
		return newError(path, nil, "set: missing \"name\"")
	}
	varName, err := asString(s, nameNode, "set")
	if err != nil {
		return newError(path, err, "%s", err.Error())
	}
	valueNode, hasValue := m.Get("value")
	var value any
	if hasValue {
		value, err = s.Resolve(valueNode)
		if err != nil {
			return newError(childPath(path, name, "value"), err, "set: %s", err.Error())
		}
	}
	s.SetVar(varName, value)
	return nil
}

func cmdEmit(s *Script, path []any, name string, args types.Node) error {
	m, ok := args.(*types.MapNode)
	if !ok {
		return newError(path, nil, "emit: expected a mapping with type/data")
	}
	typeNode, ok := m.Get("type")
	if !ok {
		return newError(path, nil, "emit: missing \"type\"")
	}
	eventType, err := asString(s, typeNode, "emit")
	if err != nil {
		return newError(path, err, "%s", err.Error())
	}
	var data any
	if dataNode, hasData := m.Get("data"); hasData {
		data, err = s.Resolve(dataNode)
		if err != nil {
			return newError(childPath(path, name, "data"), err, "emit: %s", err.Error())
		}
	}
	s.Emit(eventType, data)
	return nil
}

// childPath appends steps to path without aliasing the caller's backing
// array — path may still be read elsewhere (e.g. for the command's own
// error path) after a handler derives a child path from it.
func childPath(path []any, steps ...any) []any {
	out := make([]any, len(path)+len(steps))
	copy(out, path)
	copy(out[len(path):], steps)
	return out
}

// asString resolves n and asserts the result is a string, under a command
// name used only for the error message prefix.
func asString(s *Script, n types.Node, command string) (string, error) {
	value, err := s.Resolve(n)
	if err != nil {
		return "", err
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected a string argument, got %T", command, value)
	}
	return str, nil
}

// truthy mirrors JavaScript truthiness for if/else branch selection, since
// conditions are evaluated by the same engine as every other expression.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
