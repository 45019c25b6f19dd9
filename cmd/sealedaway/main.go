// Command sealedaway is a minimal reference host for the interpreter: run a
// scene script headlessly, validate it, or resume it from a save.
//
// Grounded on the teacher's cmd/barn/main.go (flag-driven, log.Fatalf on
// fatal startup errors, one flat main.go with small dispatch helpers),
// re-homed from MOO database inspection to script-authoring workflows.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sealedsins/sealed-away/parser"
	"github.com/sealedsins/sealed-away/scene"
	"github.com/sealedsins/sealed-away/script"
	"github.com/sealedsins/sealed-away/tracing"
)

func main() {
	scriptPath := flag.String("script", "", "path to a YAML scene script")
	savePath := flag.String("save", "", "write the save envelope to this path on exit (and after -dump-at next() calls)")
	loadPath := flag.String("load", "", "resume from a save envelope before running")
	validate := flag.Bool("validate", false, "parse and report errors without executing")
	dumpAt := flag.Int("dump-at", 0, "write the save envelope after this many next() calls (0 = only at exit)")
	traceEnabled := flag.Bool("trace", false, "enable execution tracing to stderr")
	traceFilter := flag.String("trace-filter", "", "trace filter pattern(s), comma separated (glob, e.g. 'print,set*')")

	flag.Parse()

	if *scriptPath == "" {
		log.Fatalf("missing -script")
	}
	source, err := os.ReadFile(*scriptPath)
	if err != nil {
		log.Fatalf("reading script: %v", err)
	}

	ctx, err := parser.Parse(source)
	if err != nil {
		if perr, ok := err.(*parser.Error); ok {
			fmt.Fprintf(os.Stderr, "%d:%d: %s\n", perr.Line, perr.Column, perr.Message)
			os.Exit(1)
		}
		log.Fatalf("parsing script: %v", err)
	}
	if *validate {
		fmt.Println("OK")
		return
	}

	if *traceEnabled {
		tracing.Init(true, splitFilters(*traceFilter), os.Stderr)
	} else {
		tracing.Init(false, nil, nil)
	}

	sc := scene.New(ctx.Document.Script)

	if *loadPath != "" {
		saved, err := os.ReadFile(*loadPath)
		if err != nil {
			log.Fatalf("reading save: %v", err)
		}
		if err := sc.Load(string(saved)); err != nil {
			log.Fatalf("loading save: %v", err)
		}
	}

	unsubscribe := sc.Subscribe(func(e script.Event) { printEvent(e) })
	defer unsubscribe()

	steps := 0
	for !sc.IsDone() {
		if err := sc.Next(); err != nil {
			fmt.Fprintf(os.Stderr, "script error: %v\n", err)
			os.Exit(1)
		}
		steps++
		if *dumpAt > 0 && steps == *dumpAt {
			writeSave(sc, *savePath)
		}
		if sc.Menu() != nil {
			// A headless run can't pick a menu choice on its own; stop here
			// rather than spin forever with yield stuck true.
			break
		}
	}

	if *savePath != "" {
		writeSave(sc, *savePath)
	}
}

func splitFilters(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func printEvent(e script.Event) {
	line, err := json.Marshal(map[string]any{"type": e.Type, "data": e.Data})
	if err != nil {
		fmt.Fprintf(os.Stderr, "event encode error: %v\n", err)
		return
	}
	fmt.Println(string(line))
}

func writeSave(sc *scene.Scene, path string) {
	if path == "" {
		return
	}
	saved, err := sc.Save()
	if err != nil {
		log.Fatalf("saving: %v", err)
	}
	if err := os.WriteFile(path, []byte(saved), 0o644); err != nil {
		log.Fatalf("writing save file: %v", err)
	}
}
