package parser

import (
	"testing"

	"github.com/sealedsins/sealed-away/types"
)

func TestParseSimpleScript(t *testing.T) {
	src := `
script:
  - print: "A"
  - print: "B"
`
	ctx, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ctx.Document.Script) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(ctx.Document.Script))
	}
	name, args, ok := types.AsCommand(ctx.Document.Script[0])
	if !ok || name != "print" {
		t.Fatalf("expected print command, got %v", ctx.Document.Script[0])
	}
	s, ok := args.(*types.StringNode)
	if !ok || s.Value != "A" {
		t.Fatalf("expected string arg A, got %v", args)
	}
}

func TestParseMissingScriptKeyErrors(t *testing.T) {
	_, err := Parse([]byte("config:\n  foo: 1\n"))
	if err == nil {
		t.Fatalf("expected error for missing script key")
	}
	perr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Line == 0 {
		t.Fatalf("expected a non-zero line for the error position")
	}
}

func TestParseInvalidYAMLErrors(t *testing.T) {
	_, err := Parse([]byte("script: [\n"))
	if err == nil {
		t.Fatalf("expected error for malformed YAML")
	}
}

func TestExpAndFmtTags(t *testing.T) {
	src := `
script:
  - if:
      cond: !exp "x > 0"
      then:
        - print: !fmt "Value is {{x}}"
`
	ctx, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, args, _ := types.AsCommand(ctx.Document.Script[0])
	m := args.(*types.MapNode)
	cond, _ := m.Get("cond")
	expr, ok := cond.(*types.ExprNode)
	if !ok || expr.Source != "x > 0" {
		t.Fatalf("expected ExprNode(x > 0), got %v", cond)
	}

	thenList, _ := m.Get("then")
	printCmd := thenList.(*types.ListNode).Items[0]
	_, printArgs, _ := types.AsCommand(printCmd)
	fmtNode, ok := printArgs.(*types.FmtNode)
	if !ok || fmtNode.Source != "Value is {{x}}" {
		t.Fatalf("expected FmtNode, got %v", printArgs)
	}
}

func TestTraceResolvesPosition(t *testing.T) {
	src := `
script:
  - print: "A"
  - print: "B"
`
	ctx, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos, ok := ctx.Trace([]any{1, "print"})
	if !ok {
		t.Fatalf("expected to resolve path [1, print]")
	}
	if pos.Line != 4 {
		t.Fatalf("expected line 4 for second print, got %d", pos.Line)
	}
}

func TestTraceUnknownPathFails(t *testing.T) {
	ctx, err := Parse([]byte("script:\n  - print: \"A\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ctx.Trace([]any{5, "print"}); ok {
		t.Fatalf("expected trace of out-of-range index to fail")
	}
}

func TestConfigIsCarriedThrough(t *testing.T) {
	src := `
config:
  title: "My Game"
script:
  - print: "A"
`
	ctx, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := ctx.Document.Config.(*types.MapNode)
	if !ok {
		t.Fatalf("expected config to be a map, got %T", ctx.Document.Config)
	}
	title, _ := m.Get("title")
	if s, ok := title.(*types.StringNode); !ok || s.Value != "My Game" {
		t.Fatalf("expected title My Game, got %v", title)
	}
}
