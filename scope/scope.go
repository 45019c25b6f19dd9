// Package scope implements the variable environment used by the script
// interpreter: a flat name -> value map plus expression and template
// rendering backed by an embedded JavaScript engine.
//
// Grounded on the teacher's eval/environment.go (a map-backed Environment
// with name lookup), with the expression engine itself grounded on the
// pack's vendored reference for github.com/robertkrimen/otto.
package scope

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/robertkrimen/otto"
)

// identifierPattern matches names that are valid bare JavaScript
// identifiers. Variable names that don't match this are only reachable
// through the synthetic `vars["..."]` index form.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// templatePattern finds {{ EXPR }} runs, non-greedy, spanning newlines.
var templatePattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

// Scope holds the variable environment. Reads of unknown names return nil
// rather than raising (spec.md §3).
type Scope struct {
	vars map[string]any
}

// New creates an empty scope.
func New() *Scope {
	return &Scope{vars: make(map[string]any)}
}

// Get returns the value bound to name, or nil if unbound.
func (s *Scope) Get(name string) any {
	return s.vars[name]
}

// Set binds name to value.
func (s *Scope) Set(name string, value any) {
	s.vars[name] = value
}

// Dump returns the whole variable mapping (not a copy — callers that need
// isolation should copy it themselves, e.g. via the serializer on save).
func (s *Scope) Dump() map[string]any {
	return s.vars
}

// Clear removes every variable.
func (s *Scope) Clear() {
	s.vars = make(map[string]any)
}

// Replace swaps the whole variable mapping, used by Load.
func (s *Scope) Replace(vars map[string]any) {
	if vars == nil {
		vars = make(map[string]any)
	}
	s.vars = vars
}

// newVM builds a fresh otto runtime bound to the current scope: every
// identifier-shaped variable name is set as a JS global, and `vars` mirrors
// the whole mapping for index-style access to non-identifier names.
func (s *Scope) newVM() (*otto.Otto, error) {
	vm := otto.New()
	for name, value := range s.vars {
		if !identifierPattern.MatchString(name) {
			continue
		}
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("bind variable %q: %w", name, err)
		}
	}
	if err := vm.Set("vars", s.vars); err != nil {
		return nil, fmt.Errorf("bind vars: %w", err)
	}
	return vm, nil
}

// RenderExpression evaluates src as a single JavaScript expression against
// this scope and returns its value unchanged (may be any node value: nil,
// bool, float64, string, []any, map[string]any).
func (s *Scope) RenderExpression(src string) (any, error) {
	vm, err := s.newVM()
	if err != nil {
		return nil, err
	}
	value, err := vm.Run(src)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	exported, err := value.Export()
	if err != nil {
		return nil, fmt.Errorf("expression %q: export result: %w", src, err)
	}
	return normalize(exported), nil
}

// RenderTemplate finds every non-overlapping {{ EXPR }} occurrence in src,
// evaluates the inner expression, and textually substitutes its stringified
// value. Returns the first inner failure encountered, if any.
func (s *Scope) RenderTemplate(src string) (string, error) {
	var innerErr error
	out := templatePattern.ReplaceAllStringFunc(src, func(match string) string {
		if innerErr != nil {
			return match
		}
		inner := templatePattern.FindStringSubmatch(match)[1]
		value, err := s.RenderExpression(inner)
		if err != nil {
			innerErr = err
			return match
		}
		return Stringify(value)
	})
	if innerErr != nil {
		return "", innerErr
	}
	return out, nil
}

// Eval runs src as a JavaScript statement block in a context whose `this`
// is the scope mapping: bare assignments to `this.x = ...` mutate scope.
//
// Resolves spec.md §9's open question on eval's `this` binding by mirroring
// the original semantics exactly via a full JS engine (otto) rather than a
// restricted assignment grammar, since the engine is already on hand for
// expression/template rendering.
func (s *Scope) Eval(src string) error {
	vm, err := s.newVM()
	if err != nil {
		return err
	}

	thisObj, err := vm.Object("({})")
	if err != nil {
		return fmt.Errorf("eval: build this object: %w", err)
	}
	for name, value := range s.vars {
		if err := thisObj.Set(name, value); err != nil {
			return fmt.Errorf("eval: seed this.%s: %w", name, err)
		}
	}
	if err := vm.Set("__this", thisObj); err != nil {
		return fmt.Errorf("eval: bind __this: %w", err)
	}

	wrapped := "(function(){\n" + src + "\n}).call(__this);"
	if _, err := vm.Run(wrapped); err != nil {
		return fmt.Errorf("eval %q: %w", src, err)
	}

	for _, key := range thisObj.Keys() {
		value, err := thisObj.Get(key)
		if err != nil {
			return fmt.Errorf("eval: read back this.%s: %w", key, err)
		}
		exported, err := value.Export()
		if err != nil {
			return fmt.Errorf("eval: export this.%s: %w", key, err)
		}
		s.vars[key] = normalize(exported)
	}
	return nil
}

// normalize coerces otto's exported Go values onto this engine's value set
// (nil, bool, float64, string, []any, map[string]any): otto.Value.Export()
// can hand back ints, int64s, []interface{} of those, etc., depending on the
// JS value's shape.
func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	default:
		return val
	}
}

// Stringify renders a scope value the way a JS template literal would:
// numbers without a superfluous ".0" and in plain decimals for magnitudes
// from 1e-7 up to 1e21 (outside that range Go's shortest exponent form is
// used, e.g. "1e-07" where JS prints "1e-7"), booleans lowercase, null for
// nil, JSON for arrays/objects.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	case float64:
		if abs := math.Abs(val); abs == 0 || (abs >= 1e-7 && abs < 1e21) {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
