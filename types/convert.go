package types

import "fmt"

// ToValue converts a fully-resolved node tree (no ExprNode/FmtNode left —
// those must already have been substituted by the scope) into a plain Go
// value built from the JSON-compatible set: nil, bool, float64, string,
// []any, map[string]any. This is the representation used for scope
// variables, command arguments after resolution, and scene state.
func ToValue(n Node) (any, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case *NullNode:
		return nil, nil
	case *BoolNode:
		return v.Value, nil
	case *NumberNode:
		return v.Value, nil
	case *StringNode:
		return v.Value, nil
	case *ListNode:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			val, err := ToValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case *MapNode:
		out := make(map[string]any, len(v.Keys))
		for _, entry := range v.Entries() {
			val, err := ToValue(entry.Value)
			if err != nil {
				return nil, err
			}
			out[entry.Key] = val
		}
		return out, nil
	case *ExprNode:
		return nil, fmt.Errorf("unresolved expression node %q (resolve before converting)", v.Source)
	case *FmtNode:
		return nil, fmt.Errorf("unresolved template node %q (resolve before converting)", v.Source)
	default:
		return nil, fmt.Errorf("unknown node type %T", n)
	}
}

// FromValue converts a plain Go value (as produced by ToValue, JSON
// decoding, or the scope) back into a node tree, re-hosting such values as
// literal nodes. Values of any other Go type become NullNode.
func FromValue(v any) Node {
	switch val := v.(type) {
	case nil:
		return &NullNode{}
	case bool:
		return &BoolNode{Value: val}
	case float64:
		return &NumberNode{Value: val}
	case int:
		return &NumberNode{Value: float64(val)}
	case string:
		return &StringNode{Value: val}
	case []any:
		items := make([]Node, len(val))
		for i, item := range val {
			items[i] = FromValue(item)
		}
		return &ListNode{Items: items}
	case map[string]any:
		m := NewMapNode()
		for k, item := range val {
			m.Set(k, FromValue(item))
		}
		return m
	default:
		return &NullNode{}
	}
}

// ToSerializable converts a node tree into a plain-value tree suitable for
// the serializer package, WITHOUT resolving ExprNode/FmtNode — those are
// left as *ExprNode/*FmtNode pointers so the serializer's tagged-class
// support can stamp them with a __class discriminant. Use this (not
// ToValue) whenever raw source code must round-trip through a save file.
func ToSerializable(n Node) any {
	switch v := n.(type) {
	case nil:
		return nil
	case *NullNode:
		return nil
	case *BoolNode:
		return v.Value
	case *NumberNode:
		return v.Value
	case *StringNode:
		return v.Value
	case *ListNode:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = ToSerializable(item)
		}
		return out
	case *MapNode:
		out := make(map[string]any, len(v.Keys))
		for _, entry := range v.Entries() {
			out[entry.Key] = ToSerializable(entry.Value)
		}
		return out
	case *ExprNode, *FmtNode:
		return v
	default:
		return nil
	}
}

// NodeFromSerializable is the inverse of ToSerializable: it rebuilds a node
// tree from a value tree that may still contain *ExprNode/*FmtNode leaves
// (as produced by the serializer's Parse + revivers).
func NodeFromSerializable(v any) Node {
	switch val := v.(type) {
	case nil:
		return &NullNode{}
	case bool:
		return &BoolNode{Value: val}
	case float64:
		return &NumberNode{Value: val}
	case string:
		return &StringNode{Value: val}
	case *ExprNode:
		return val
	case *FmtNode:
		return val
	case []any:
		items := make([]Node, len(val))
		for i, item := range val {
			items[i] = NodeFromSerializable(item)
		}
		return &ListNode{Items: items}
	case map[string]any:
		m := NewMapNode()
		for k, item := range val {
			m.Set(k, NodeFromSerializable(item))
		}
		return m
	default:
		return &NullNode{}
	}
}

// NodeEqual reports whether two (possibly unresolved, i.e. still carrying
// ExprNode/FmtNode) node trees are structurally equal. Used by the stack
// package's patcher to diff raw source code, where nodes generally still
// carry unresolved expressions/templates.
func NodeEqual(a, b Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *NullNode:
		_, ok := b.(*NullNode)
		return ok
	case *BoolNode:
		bv, ok := b.(*BoolNode)
		return ok && av.Value == bv.Value
	case *NumberNode:
		bv, ok := b.(*NumberNode)
		return ok && av.Value == bv.Value
	case *StringNode:
		bv, ok := b.(*StringNode)
		return ok && av.Value == bv.Value
	case *ExprNode:
		bv, ok := b.(*ExprNode)
		return ok && av.Source == bv.Source
	case *FmtNode:
		bv, ok := b.(*FmtNode)
		return ok && av.Source == bv.Source
	case *ListNode:
		bv, ok := b.(*ListNode)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !NodeEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *MapNode:
		// Key order is authoring/presentation order (menu choices, dump
		// output) and deliberately NOT part of equality: a map round-tripped
		// through the JSON serializer loses Go map iteration order, and that
		// must not make an otherwise-identical command look "changed" to
		// the stack patcher.
		bv, ok := b.(*MapNode)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for _, k := range av.Keys {
			bval, present := bv.Values[k]
			if !present || !NodeEqual(av.Values[k], bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// DeepEqual reports whether two plain values (as produced by ToValue) are
// structurally equal. Used as the default equality for the diff package
// and by the serializer's round-trip tests.
func DeepEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !DeepEqual(v, bvv) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
