// Package parser turns a YAML script document into a tree of script nodes
// plus a side table mapping each node back to its (line, column) in the
// source, honouring the two custom tags !exp and !fmt.
//
// Grounded on the pack's conformance/loader.go (gopkg.in/yaml.v3 usage).
package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sealedsins/sealed-away/types"
)

// Error is a parser error: invalid YAML, or a document with the wrong
// structure (not a mapping, or a missing or non-sequence "script").
// Structural errors carry the (line, column) of the offending YAML node.
// YAML syntax errors carry no position (Line and Column are 0); Message
// holds the decoder's own text. Custom tags are not validated: a !exp or
// !fmt tag on a non-scalar node is ignored.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line == 0 && e.Column == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Document is the top-level parsed form: a mapping with an optional
// host-specific `config` and a required `script` command list.
type Document struct {
	Config types.Node
	Script []types.Node
}

// Context exposes the parsed document together with a side table that maps
// each node (by pointer identity) back to its source position.
type Context struct {
	Document  *Document
	positions map[types.Node]Position
}

// Position is a (line, column) source coordinate, 1-based as reported by
// the YAML lexer.
type Position struct {
	Line   int
	Column int
}

// Parse decodes a UTF-8 YAML document into a Context. The document must be
// a mapping containing a `script` key whose value is a sequence of command
// nodes; a `config` key, if present, is carried through opaquely for the
// host.
func Parse(source []byte) (*Context, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, wrapYAMLError(err)
	}
	ctx := &Context{positions: make(map[types.Node]Position)}

	if len(root.Content) == 0 {
		return nil, &Error{Message: "script document is missing a \"script\" key"}
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &Error{Line: doc.Line, Column: doc.Column, Message: "script document must be a mapping with a \"script\" key"}
	}

	var config types.Node
	var script []types.Node
	found := false

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		value := doc.Content[i+1]
		switch key.Value {
		case "config":
			config = ctx.convert(value)
		case "script":
			if value.Kind != yaml.SequenceNode {
				return nil, &Error{Line: value.Line, Column: value.Column, Message: "\"script\" must be a sequence of commands"}
			}
			found = true
			script = make([]types.Node, 0, len(value.Content))
			for _, item := range value.Content {
				script = append(script, ctx.convert(item))
			}
		}
	}
	if !found {
		return nil, &Error{Line: doc.Line, Column: doc.Column, Message: "script document is missing a \"script\" key"}
	}

	ctx.Document = &Document{Config: config, Script: script}
	return ctx, nil
}

// Trace resolves a node path (a sequence of string map keys or int list
// indices) to its source coordinates, walking from the parsed script root.
func (c *Context) Trace(path []any) (Position, bool) {
	node, ok := types.Walk(&types.ListNode{Items: c.Document.Script}, path)
	if !ok {
		return Position{}, false
	}
	pos, ok := c.positions[node]
	return pos, ok
}

// convert walks a decoded yaml.Node into a types.Node, recording each
// resulting node's source position keyed by its own pointer identity.
func (c *Context) convert(n *yaml.Node) types.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	var result types.Node
	switch n.Kind {
	case yaml.ScalarNode:
		result = c.convertScalar(n)
	case yaml.SequenceNode:
		items := make([]types.Node, 0, len(n.Content))
		for _, child := range n.Content {
			items = append(items, c.convert(child))
		}
		result = &types.ListNode{Items: items}
	case yaml.MappingNode:
		m := types.NewMapNode()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			m.Set(key, c.convert(n.Content[i+1]))
		}
		result = m
	default:
		result = &types.NullNode{}
	}

	c.positions[result] = Position{Line: n.Line, Column: n.Column}
	return result
}

func (c *Context) convertScalar(n *yaml.Node) types.Node {
	switch n.Tag {
	case "!exp":
		return &types.ExprNode{Source: n.Value}
	case "!fmt":
		return &types.FmtNode{Source: n.Value}
	}

	switch n.Tag {
	case "!!null":
		return &types.NullNode{}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return &types.BoolNode{Value: b}
		}
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return &types.NumberNode{Value: f}
		}
	}
	return &types.StringNode{Value: n.Value}
}

func wrapYAMLError(err error) error {
	return &Error{Message: err.Error()}
}
