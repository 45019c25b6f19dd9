// Package scene implements the visual-novel dialect on top of the generic
// script interpreter: a fixed-schema presentation state, a pausable
// next()/pick() driving loop, and the page/menu/play/stop/wait/show/hide
// command vocabulary.
//
// Grounded on the script package's dispatch table plus the teacher's
// reserved-field convention in types/context.go (a fixed-schema struct
// carried inside an otherwise dynamic value).
package scene

import (
	"fmt"

	"github.com/sealedsins/sealed-away/script"
	"github.com/sealedsins/sealed-away/types"
)

// Scene composes the generic interpreter with the visual-novel reserved
// scope keys (state, yield, menu) and the presentation command vocabulary.
type Scene struct {
	*script.Script
	menu map[string]menuEntry
}

type menuEntry struct {
	id    string
	label string
	path  []any
	block []types.Node
}

// New constructs a Scene over source with the spec's initial state: empty
// name/text, a centered dark-gray background, no sprites, no loop; yield
// starts true (nothing runs until the host calls Next).
func New(source []types.Node) *Scene {
	sc := &Scene{Script: script.New(source), menu: nil}
	sc.SetVar("state", initialState())
	sc.SetVar("yield", true)
	sc.SetVar("menu", nil)
	sc.registerCommands()
	return sc
}

func initialState() map[string]any {
	return map[string]any{
		"name": "",
		"text": "",
		"background": map[string]any{
			"image":    nil,
			"position": "center",
			"color":    "#333",
		},
		"sprites": []any{},
		"loop":    nil,
	}
}

// State returns the live presentation state map (mutating it is how
// commands apply their effects; callers that need isolation should copy).
func (sc *Scene) State() map[string]any {
	state, _ := sc.GetVar("state").(map[string]any)
	return state
}

// Menu returns the currently active menu's public {id, label, path} entries, in
// authoring order, or nil if no menu is active.
func (sc *Scene) Menu() []any {
	entries, _ := sc.GetVar("menu").([]any)
	return entries
}

func (sc *Scene) hasMenu() bool {
	return sc.GetVar("menu") != nil
}

// Next resumes execution: a no-op while a menu is active; otherwise it
// clears name/text, flips yield false, and steps until either a command
// sets yield back to true or the script runs out of instructions.
func (sc *Scene) Next() error {
	if sc.hasMenu() {
		return nil
	}
	sc.SetVar("yield", false)
	state := sc.State()
	state["name"] = ""
	state["text"] = ""

	for {
		yielded, _ := sc.GetVar("yield").(bool)
		if yielded || sc.IsDone() {
			return nil
		}
		if err := sc.Step(); err != nil {
			return err
		}
	}
}

// Pick resolves a pending menu choice by id: clears the menu, pushes the
// choice's block as a new frame, and resumes via Next.
func (sc *Scene) Pick(id string) error {
	if sc.menu == nil {
		return &script.Error{Message: "pick: no menu is active"}
	}
	entry, ok := sc.menu[id]
	if !ok {
		return &script.Error{Message: fmt.Sprintf("Unknown menu id: %s", id)}
	}
	sc.menu = nil
	sc.SetVar("menu", nil)
	sc.PushBlock(entry.path, entry.block)
	return sc.Next()
}

// Load restores the embedded Script, then rebuilds the in-memory menu index
// (each entry's executable block) from the restored public "menu" var: that
// var carries each entry's path (spec.md §3's (id, label, path) menu entry),
// which is re-walked against the CURRENT source the same way Script.Load
// re-walks frame paths. An entry whose path no longer resolves to a list is
// dropped from both the index and the public var, mirroring Script.Load's
// "a path that no longer resolves is silently dropped" rule.
func (sc *Scene) Load(saved string) error {
	if err := sc.Script.Load(saved); err != nil {
		return err
	}

	raw, ok := sc.GetVar("menu").([]any)
	if !ok {
		sc.menu = nil
		return nil
	}

	menu := make(map[string]menuEntry, len(raw))
	public := make([]any, 0, len(raw))
	for _, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := fields["id"].(string)
		label, _ := fields["label"].(string)
		pathRaw, _ := fields["path"].([]any)
		entryPath := pathFromJSON(pathRaw)

		node, ok := types.Walk(&types.ListNode{Items: sc.Source()}, entryPath)
		if !ok {
			continue
		}
		block, ok := node.(*types.ListNode)
		if !ok {
			continue
		}

		menu[id] = menuEntry{id: id, label: label, path: entryPath, block: block.Items}
		public = append(public, map[string]any{"id": id, "label": label, "path": entryPath})
	}

	sc.menu = menu
	sc.SetVar("menu", public)
	return nil
}

// pathFromJSON converts a node path decoded from JSON (int steps arrive as
// float64) back to the mixed string/int form types.Walk expects. Duplicated
// from script's private helper of the same name rather than exported,
// matching this codebase's convention of small per-package path helpers
// (see also commands.go's childPath).
func pathFromJSON(raw []any) []any {
	out := make([]any, len(raw))
	for i, step := range raw {
		if f, ok := step.(float64); ok {
			out[i] = int(f)
			continue
		}
		out[i] = step
	}
	return out
}
