package script

import (
	"testing"

	"github.com/sealedsins/sealed-away/types"
)

func command(name string, args types.Node) types.Node {
	m := types.NewMapNode()
	m.Set(name, args)
	return m
}

func str(s string) types.Node { return &types.StringNode{Value: s} }

func mapArgs(pairs ...any) types.Node {
	m := types.NewMapNode()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(types.Node))
	}
	return m
}

func list(items ...types.Node) *types.ListNode {
	return &types.ListNode{Items: items}
}

func TestSequentialPrint(t *testing.T) {
	var logged []string
	s := New([]types.Node{
		command("print", str("A")),
		command("print", str("B")),
		command("print", str("C")),
	})
	s.Logger = func(msg string) { logged = append(logged, msg) }

	steps := 0
	s.Subscribe(func(e Event) {
		if e.Type == "step" {
			steps++
		}
	})

	for i := 0; i < 3; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}
	if got := []string{logged[0], logged[1], logged[2]}; got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Fatalf("expected [A B C], got %v", got)
	}
	if !s.IsDone() {
		t.Fatalf("expected isDone() after 3 steps")
	}
	if steps != 3 {
		t.Fatalf("expected exactly 3 step events, got %d", steps)
	}
}

func TestIfElseWithExpression(t *testing.T) {
	source := []types.Node{
		command("if", mapArgs(
			"cond", &types.ExprNode{Source: "x > 0"},
			"then", list(command("print", str("P"))),
			"else", list(command("print", str("N"))),
		)),
	}

	var logged []string
	run := func(x float64) []string {
		logged = nil
		s := New(source)
		s.Logger = func(msg string) { logged = append(logged, msg) }
		s.SetVar("x", x)
		for i := 0; i < 2; i++ {
			if err := s.Step(); err != nil {
				t.Fatalf("step %d: unexpected error: %v", i, err)
			}
		}
		return logged
	}

	if got := run(1); len(got) != 1 || got[0] != "P" {
		t.Fatalf("expected [P] for x=1, got %v", got)
	}
	if got := run(-1); len(got) != 1 || got[0] != "N" {
		t.Fatalf("expected [N] for x=-1, got %v", got)
	}
}

func TestJumpTargetResolution(t *testing.T) {
	source := []types.Node{
		command("label", str("start")),
		command("jump", str("hello")),
		command("label", str("world")),
		command("print", str("W")),
		command("jump", str("start")),
		command("label", str("hello")),
		command("print", str("H")),
		command("jump", str("world")),
	}
	var logged []string
	s := New(source)
	s.Logger = func(msg string) { logged = append(logged, msg) }

	// label start, jump hello, label hello, print H, jump world, label
	// world, print W, jump start -> back to the top.
	for i := 0; i < 8; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}
	if len(logged) != 2 || logged[0] != "H" || logged[1] != "W" {
		t.Fatalf("expected [H W], got %v", logged)
	}
}

func TestSavePatchLoad(t *testing.T) {
	first := New([]types.Node{
		command("print", str("A")),
		command("print", str("B")),
		command("print", str("C")),
	})
	if err := first.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, err := first.Save()
	if err != nil {
		t.Fatalf("save: unexpected error: %v", err)
	}

	second := New([]types.Node{
		command("print", str("A")),
		command("print", str("B")),
		command("print", str("C1")),
		command("print", str("C2")),
		command("print", str("D")),
	})
	var logged []string
	second.Logger = func(msg string) { logged = append(logged, msg) }

	if err := second.Load(saved); err != nil {
		t.Fatalf("load: unexpected error: %v", err)
	}
	for !second.IsDone() {
		if err := second.Step(); err != nil {
			t.Fatalf("step: unexpected error: %v", err)
		}
	}
	expect := []string{"B", "C1", "C2", "D"}
	if len(logged) != len(expect) {
		t.Fatalf("expected %v, got %v", expect, logged)
	}
	for i := range expect {
		if logged[i] != expect[i] {
			t.Fatalf("expected %v, got %v", expect, logged)
		}
	}
}

func TestLoadOfGarbageIsRejectedWithoutMutation(t *testing.T) {
	s := New([]types.Node{command("print", str("A"))})
	s.SetVar("keep", "me")

	err := s.Load("not json")
	if err == nil {
		t.Fatalf("expected an error for garbage save data")
	}
	if err.Error() != brokenSaveMessage {
		t.Fatalf("expected the standard broken-save message, got %q", err.Error())
	}
	if s.GetVar("keep") != "me" {
		t.Fatalf("expected scope to be untouched after a failed load")
	}
}

func TestUnknownCommandRaisesWithPath(t *testing.T) {
	s := New([]types.Node{command("bogus", str("x"))})
	err := s.Step()
	if err == nil {
		t.Fatalf("expected an error for an unknown command")
	}
	serr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(serr.Path) != 1 || serr.Path[0] != 0 {
		t.Fatalf("expected path [0], got %v", serr.Path)
	}
}

func TestSetAndEmit(t *testing.T) {
	s := New([]types.Node{
		command("set", mapArgs("name", str("score"), "value", &types.NumberNode{Value: 10})),
		command("emit", mapArgs("type", str("scored"), "data", &types.NumberNode{Value: 10})),
	})
	var events []Event
	s.Subscribe(func(e Event) {
		if e.Type != "step" {
			events = append(events, e)
		}
	})
	for i := 0; i < 2; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}
	if s.GetVar("score") != 10.0 {
		t.Fatalf("expected score=10, got %v", s.GetVar("score"))
	}
	if len(events) != 1 || events[0].Type != "scored" {
		t.Fatalf("expected one scored event, got %v", events)
	}
}

func TestThrowRaisesScriptError(t *testing.T) {
	s := New([]types.Node{command("throw", str("boom"))})
	err := s.Step()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if err.Error() != "boom (at 0)" {
		t.Fatalf("unexpected error message: %v", err)
	}
}
