package serializer

import (
	"fmt"

	"github.com/sealedsins/sealed-away/types"
)

// ClassOf recognises *types.ExprNode and *types.FmtNode as the engine's
// only tagged classes. Passed to New as the Codec's classOf function.
func ClassOf(v any) (string, map[string]any, bool) {
	tagged, ok := v.(interface {
		ClassName() string
		ToJSON() map[string]any
	})
	if !ok {
		return "", nil, false
	}
	return tagged.ClassName(), tagged.ToJSON(), true
}

// Revivers returns the {ScriptExp, ScriptFmt} -> constructor table used to
// revive tagged nodes on load.
func Revivers() map[string]Reviver {
	return map[string]Reviver{
		"ScriptExp": func(fields map[string]any) (any, error) {
			src, ok := fields["source"].(string)
			if !ok {
				return nil, fmt.Errorf("ScriptExp: missing string field %q", "source")
			}
			return &types.ExprNode{Source: src}, nil
		},
		"ScriptFmt": func(fields map[string]any) (any, error) {
			src, ok := fields["source"].(string)
			if !ok {
				return nil, fmt.Errorf("ScriptFmt: missing string field %q", "source")
			}
			return &types.FmtNode{Source: src}, nil
		},
	}
}

// NewDefault constructs a Codec preconfigured for this engine's tagged classes
// (ExprNode/FmtNode). Most callers should use this instead of the generic
// constructor.
func NewDefault() *Codec {
	return New(ClassOf, Revivers())
}
