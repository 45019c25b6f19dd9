package script

import (
	"fmt"

	"github.com/sealedsins/sealed-away/stack"
	"github.com/sealedsins/sealed-away/types"
)

// brokenSaveMessage is raised verbatim for every structural load failure,
// deliberately hiding the underlying cause from the host-facing message
// while still chaining it for %w/Unwrap.
const brokenSaveMessage = "Error loading save - it may be broken or unsupported."

// Save serializes every live frame (code, pc, and the path locating that
// code in the current source) plus the variable scope into a JSON string.
func (s *Script) Save() (string, error) {
	frames := s.stack.Dump()
	savedFrames := make([]any, len(frames))
	for i, frame := range frames {
		savedFrames[i] = map[string]any{
			"path":           pathToJSON(s.framePaths[frame]),
			"code":           serializeCode(frame.Code),
			"programCounter": float64(frame.PC),
		}
	}
	payload := map[string]any{
		"scope": s.scope.Dump(),
		"stack": savedFrames,
	}
	out, err := s.codec.Stringify(payload)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return out, nil
}

// Load restores a script from a string produced by Save, rebuilding the
// frame stack against the CURRENT source rather than the source that was
// active at save time: each saved frame's code is diffed against whatever
// code now lives at its recorded path via stack.Patch, so pc tracks edits
// made to the source between save and load. A frame whose path no longer
// resolves to a code list in the current source (the surrounding structure
// was restructured or removed) is silently dropped. Every other failure
// aborts the whole load without mutating any live state.
func (s *Script) Load(saved string) error {
	rebuilt, scopeVars, err := s.parseSave(saved)
	if err != nil {
		return newError(nil, err, "%s", brokenSaveMessage)
	}

	s.stack.Clear()
	for k := range s.framePaths {
		delete(s.framePaths, k)
	}
	for _, rf := range rebuilt {
		frame := &stack.Frame{Code: rf.code, PC: rf.pc}
		s.stack.PushFrame(frame)
		_ = s.stack.Patch(frame, rf.currentCode)
		s.framePaths[frame] = rf.path
	}
	s.scope.Replace(scopeVars)
	return nil
}

type rebuiltFrame struct {
	code        []types.Node
	pc          int
	path        []any
	currentCode []types.Node
}

// parseSave validates and decodes saved in full without touching any live
// state, so Load can stay transactional: either every check here passes and
// mutation proceeds, or nothing changes.
func (s *Script) parseSave(saved string) ([]rebuiltFrame, map[string]any, error) {
	decoded, err := s.codec.Parse(saved)
	if err != nil {
		return nil, nil, err
	}
	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("save is not a JSON object")
	}
	scopeVars, ok := payload["scope"].(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("save is missing \"scope\"")
	}
	stackRaw, ok := payload["stack"].([]any)
	if !ok {
		return nil, nil, fmt.Errorf("save is missing \"stack\"")
	}

	var rebuilt []rebuiltFrame
	for i, raw := range stackRaw {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("stack frame %d is not an object", i)
		}
		codeRaw, ok := entry["code"].([]any)
		if !ok {
			return nil, nil, fmt.Errorf("stack frame %d missing \"code\"", i)
		}
		pcRaw, ok := entry["programCounter"].(float64)
		if !ok {
			return nil, nil, fmt.Errorf("stack frame %d missing \"programCounter\"", i)
		}
		pathRaw, ok := entry["path"].([]any)
		if !ok {
			return nil, nil, fmt.Errorf("stack frame %d missing \"path\"", i)
		}
		path := pathFromJSON(pathRaw)

		code := make([]types.Node, len(codeRaw))
		for j, item := range codeRaw {
			code[j] = types.NodeFromSerializable(item)
		}

		var currentList *types.ListNode
		if len(path) == 0 {
			currentList = &types.ListNode{Items: s.source}
		} else {
			node, ok := types.Walk(&types.ListNode{Items: s.source}, path)
			if !ok {
				continue
			}
			currentList, ok = node.(*types.ListNode)
			if !ok {
				continue
			}
		}

		rebuilt = append(rebuilt, rebuiltFrame{
			code:        code,
			pc:          int(pcRaw),
			path:        path,
			currentCode: currentList.Items,
		})
	}
	return rebuilt, scopeVars, nil
}

// Patch re-sources the script: the current state is saved, source is
// swapped, and the save is immediately reloaded against the new source —
// normal hot-reload is just this same Load path run against edited code.
func (s *Script) Patch(newSource []types.Node) error {
	saved, err := s.Save()
	if err != nil {
		return err
	}
	s.source = newSource
	return s.Load(saved)
}

func serializeCode(code []types.Node) []any {
	out := make([]any, len(code))
	for i, n := range code {
		out[i] = types.ToSerializable(n)
	}
	return out
}

func pathToJSON(path []any) []any {
	out := make([]any, len(path))
	for i, step := range path {
		if n, ok := step.(int); ok {
			out[i] = float64(n)
			continue
		}
		out[i] = step
	}
	return out
}

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
