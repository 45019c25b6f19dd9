package scene

import (
	"testing"

	"github.com/sealedsins/sealed-away/script"
	"github.com/sealedsins/sealed-away/types"
)

func command(name string, args types.Node) types.Node {
	m := types.NewMapNode()
	m.Set(name, args)
	return m
}

func str(s string) types.Node { return &types.StringNode{Value: s} }

func boolean(b bool) types.Node { return &types.BoolNode{Value: b} }

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

func TestSceneMenu(t *testing.T) {
	source := []types.Node{
		command("label", str("start")),
		command("page", mapArgs("text", str("Pick One!"))),
		command("menu", mapArgs(
			"Label A", list(command("set", mapArgs("name", str("c"), "value", str("A")))),
			"Label B", list(command("set", mapArgs("name", str("c"), "value", str("B")))),
		)),
		command("page", mapArgs("text", &types.FmtNode{Source: "Picked {{c}}"})),
		command("jump", str("start")),
	}
	sc := New(source)

	if err := sc.Next(); err != nil {
		t.Fatalf("next: unexpected error: %v", err)
	}
	if got := sc.State()["text"]; got != "Pick One!" {
		t.Fatalf("expected text %q, got %v", "Pick One!", got)
	}
	menu := sc.Menu()
	if len(menu) != 2 {
		t.Fatalf("expected 2 menu entries, got %d", len(menu))
	}
	a := menu[0].(map[string]any)
	b := menu[1].(map[string]any)
	if a["id"] != "labelA" || a["label"] != "Label A" {
		t.Fatalf("unexpected first entry: %v", a)
	}
	if b["id"] != "labelB" || b["label"] != "Label B" {
		t.Fatalf("unexpected second entry: %v", b)
	}

	if err := sc.Pick("labelA"); err != nil {
		t.Fatalf("pick: unexpected error: %v", err)
	}
	if sc.Menu() != nil {
		t.Fatalf("expected menu to be cleared after pick")
	}
	if got := sc.GetVar("c"); got != "A" {
		t.Fatalf("expected c=A, got %v", got)
	}
	if got := sc.State()["text"]; got != "Picked A" {
		t.Fatalf("expected text %q, got %v", "Picked A", got)
	}
}

func menuScriptSource() []types.Node {
	return []types.Node{
		command("label", str("start")),
		command("page", mapArgs("text", str("Pick One!"))),
		command("menu", mapArgs(
			"Label A", list(command("set", mapArgs("name", str("c"), "value", str("A")))),
			"Label B", list(command("set", mapArgs("name", str("c"), "value", str("B")))),
		)),
		command("page", mapArgs("text", &types.FmtNode{Source: "Picked {{c}}"})),
		command("jump", str("start")),
	}
}

func TestSceneMenuSurvivesSaveLoad(t *testing.T) {
	source := menuScriptSource()
	sc := New(source)
	if err := sc.Next(); err != nil {
		t.Fatalf("next: unexpected error: %v", err)
	}
	if sc.Menu() == nil {
		t.Fatalf("expected a menu to be active before saving")
	}

	saved, err := sc.Save()
	if err != nil {
		t.Fatalf("save: unexpected error: %v", err)
	}

	reloaded := New(menuScriptSource())
	if err := reloaded.Load(saved); err != nil {
		t.Fatalf("load: unexpected error: %v", err)
	}
	if reloaded.Menu() == nil {
		t.Fatalf("expected the menu to still be active after load")
	}

	if err := reloaded.Pick("labelA"); err != nil {
		t.Fatalf("pick after load: unexpected error: %v", err)
	}
	if got := reloaded.GetVar("c"); got != "A" {
		t.Fatalf("expected c=A after pick, got %v", got)
	}
	if got := reloaded.State()["text"]; got != "Picked A" {
		t.Fatalf("expected text %q, got %v", "Picked A", got)
	}
}

func TestSceneUnknownMenuIdErrors(t *testing.T) {
	source := []types.Node{
		command("menu", mapArgs("Only", list(command("print", str("x"))))),
	}
	sc := New(source)
	if err := sc.Next(); err != nil {
		t.Fatalf("next: unexpected error: %v", err)
	}
	err := sc.Pick("nope")
	if err == nil {
		t.Fatalf("expected an error for an unknown menu id")
	}
}

func TestSceneAudioLoopAndPause(t *testing.T) {
	source := []types.Node{
		command("play", mapArgs("path", str("a"))),
		command("page", mapArgs()),
		command("play", mapArgs("path", str("b"), "loop", boolean(true))),
		command("page", mapArgs()),
		command("stop", mapArgs()),
	}
	sc := New(source)

	var events []script.Event
	sc.Subscribe(func(e script.Event) {
		if e.Type != "step" {
			events = append(events, e)
		}
	})

	if err := sc.Next(); err != nil {
		t.Fatalf("next 1: unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Type != "play" {
		t.Fatalf("expected one play event, got %v", events)
	}
	if sc.State()["loop"] != nil {
		t.Fatalf("expected loop to remain nil after a non-looping play, got %v", sc.State()["loop"])
	}

	if err := sc.Next(); err != nil {
		t.Fatalf("next 2: unexpected error: %v", err)
	}
	if len(events) != 2 || events[1].Type != "play" {
		t.Fatalf("expected a second play event, got %v", events)
	}
	loop, ok := sc.State()["loop"].(map[string]any)
	if !ok || loop["path"] != "b" {
		t.Fatalf("expected loop to be set to the looping play's args, got %v", sc.State()["loop"])
	}

	if err := sc.Next(); err != nil {
		t.Fatalf("next 3: unexpected error: %v", err)
	}
	if len(events) != 3 || events[2].Type != "stop" {
		t.Fatalf("expected a stop event, got %v", events)
	}
	if sc.State()["loop"] != nil {
		t.Fatalf("expected loop to be cleared after stop, got %v", sc.State()["loop"])
	}
	if !sc.IsDone() {
		t.Fatalf("expected the scene to be done after stop")
	}
}

func TestScenePageRejectsUnknownField(t *testing.T) {
	source := []types.Node{
		command("page", mapArgs("bogus", str("x"))),
	}
	sc := New(source)
	err := sc.Next()
	if err == nil {
		t.Fatalf("expected an error for an unknown page field")
	}
}
