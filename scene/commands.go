package scene

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sealedsins/sealed-away/script"
	"github.com/sealedsins/sealed-away/types"
)

func (sc *Scene) registerCommands() {
	sc.RegisterCommand("page", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdPage(path, name, args)
	})
	sc.RegisterCommand("menu", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdMenu(path, name, args)
	})
	sc.RegisterCommand("play", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdPlay(path, name, args)
	})
	sc.RegisterCommand("stop", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdStop(path, name, args)
	})
	sc.RegisterCommand("wait", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdWait(path, name, args)
	})
	sc.RegisterCommand("show", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdShow(path, name, args)
	})
	sc.RegisterCommand("hide", func(_ *script.Script, path []any, name string, args types.Node) error {
		return sc.cmdHide(path, name, args)
	})
}

func raise(path []any, err error) error {
	return &script.Error{Path: path, Message: err.Error(), Cause: err}
}

func childPath(path []any, steps ...any) []any {
	out := make([]any, len(path)+len(steps))
	copy(out, path)
	copy(out[len(path):], steps)
	return out
}

// cmdPage validates args as a deep-partial strict scene state and merges it
// into state. name/text were already reset to "" at the start of Next, so
// an omitted name/text cleanly clears it. yield is set unless the very next
// queued instruction is a menu command, enabling a page immediately
// followed by a menu to render as one beat.
func (sc *Scene) cmdPage(path []any, name string, args types.Node) error {
	resolved, err := sc.Resolve(args)
	if err != nil {
		return raise(path, err)
	}
	partial, err := validatePagePartial(resolved)
	if err != nil {
		return raise(path, err)
	}
	mergeState(sc.State(), partial)

	if !sc.nextQueuedIsMenu() {
		sc.SetVar("yield", true)
	}
	return nil
}

func (sc *Scene) nextQueuedIsMenu() bool {
	_, _, node, ok := sc.Stack().Peek()
	if !ok {
		return false
	}
	cmdName, _, isCmd := types.AsCommand(node)
	return isCmd && cmdName == "menu"
}

// cmdMenu builds an ordered {id, label} menu from the args mapping's keys
// (authoring order), deriving each id by camelCasing its label, and records
// each entry's block (and the path to it) for Pick.
func (sc *Scene) cmdMenu(path []any, name string, args types.Node) error {
	m, ok := args.(*types.MapNode)
	if !ok {
		return raise(path, fmt.Errorf("menu: expected a mapping of label to block"))
	}

	entries := make(map[string]menuEntry, len(m.Keys))
	public := make([]any, 0, len(m.Keys))
	for _, e := range m.Entries() {
		block, ok := e.Value.(*types.ListNode)
		if !ok {
			return raise(path, fmt.Errorf("menu: entry %q must be a list of commands", e.Key))
		}
		id := camelCase(e.Key)
		entries[id] = menuEntry{
			id:    id,
			label: e.Key,
			path:  childPath(path, name, e.Key),
			block: block.Items,
		}
		public = append(public, map[string]any{"id": id, "label": e.Key, "path": entries[id].path})
	}

	sc.menu = entries
	sc.SetVar("menu", public)
	sc.SetVar("yield", true)
	return nil
}

func (sc *Scene) cmdPlay(path []any, name string, args types.Node) error {
	resolved, err := sc.Resolve(args)
	if err != nil {
		return raise(path, err)
	}
	data, ok := resolved.(map[string]any)
	if !ok {
		return raise(path, fmt.Errorf("play: expected a mapping with \"path\""))
	}
	if _, ok := data["path"].(string); !ok {
		return raise(path, fmt.Errorf("play: missing or invalid \"path\""))
	}
	sc.Emit("play", data)
	if loop, _ := data["loop"].(bool); loop {
		sc.State()["loop"] = data
	}
	return nil
}

func (sc *Scene) cmdStop(path []any, name string, args types.Node) error {
	resolved, err := sc.Resolve(args)
	if err != nil {
		return raise(path, err)
	}
	sc.State()["loop"] = nil
	sc.Emit("stop", resolved)
	return nil
}

func (sc *Scene) cmdWait(path []any, name string, args types.Node) error {
	resolved, err := sc.Resolve(args)
	if err != nil {
		return raise(path, err)
	}
	data, ok := resolved.(map[string]any)
	if !ok {
		return raise(path, fmt.Errorf("wait: expected a mapping with \"seconds\""))
	}
	if _, ok := data["seconds"].(float64); !ok {
		return raise(path, fmt.Errorf("wait: missing or invalid \"seconds\""))
	}
	sc.Emit("wait", data)
	sc.SetVar("yield", true)
	return nil
}

func (sc *Scene) cmdShow(path []any, name string, args types.Node) error {
	resolved, err := sc.Resolve(args)
	if err != nil {
		return raise(path, err)
	}
	sprite, ok := resolved.(map[string]any)
	if !ok {
		return raise(path, fmt.Errorf("show: expected a sprite mapping"))
	}
	id, ok := sprite["id"].(string)
	if !ok {
		return raise(path, fmt.Errorf("show: missing or invalid \"id\""))
	}
	state := sc.State()
	sprites, _ := state["sprites"].([]any)
	kept := make([]any, 0, len(sprites)+1)
	kept = append(kept, sprite)
	for _, s := range sprites {
		if existing, ok := s.(map[string]any); ok {
			if existingID, _ := existing["id"].(string); existingID == id {
				continue
			}
		}
		kept = append(kept, s)
	}
	state["sprites"] = kept
	return nil
}

func (sc *Scene) cmdHide(path []any, name string, args types.Node) error {
	resolved, err := sc.Resolve(args)
	if err != nil {
		return raise(path, err)
	}
	data, ok := resolved.(map[string]any)
	if !ok {
		return raise(path, fmt.Errorf("hide: expected a mapping with \"id\""))
	}
	id, ok := data["id"].(string)
	if !ok {
		return raise(path, fmt.Errorf("hide: missing or invalid \"id\""))
	}
	state := sc.State()
	sprites, _ := state["sprites"].([]any)
	kept := make([]any, 0, len(sprites))
	for _, s := range sprites {
		if existing, ok := s.(map[string]any); ok {
			if existingID, _ := existing["id"].(string); existingID == id {
				continue
			}
		}
		kept = append(kept, s)
	}
	state["sprites"] = kept
	return nil
}

// camelCase derives a menu id from a label: "Label A" -> "labelA".
func camelCase(label string) string {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range fields {
		if i == 0 {
			b.WriteString(strings.ToLower(f))
			continue
		}
		runes := []rune(f)
		b.WriteString(strings.ToUpper(string(runes[0])))
		if len(runes) > 1 {
			b.WriteString(strings.ToLower(string(runes[1:])))
		}
	}
	return b.String()
}
