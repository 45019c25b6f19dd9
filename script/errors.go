// Package script implements the generic, extensible command interpreter:
// control flow, variables, expression evaluation, templating, events,
// save/load and source-patching over a stack of frames.
//
// Grounded on the teacher's task.Task/task.Manager cooperative, externally
// stepped execution model and vm.VM.Run's frame-pull/dispatch loop shape.
package script

import (
	"fmt"
	"strings"
)

// Error is a script error: any runtime interpretation failure (argument
// schema failure, unknown command, unknown label, unknown menu id, invalid
// save, expression failure), carrying the node path so a host can map it
// back to source coordinates via the parser's Trace.
type Error struct {
	Path    []any
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, formatPath(e.Path))
}

// Unwrap exposes the underlying cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

func formatPath(path []any) string {
	parts := make([]string, len(path))
	for i, step := range path {
		parts[i] = fmt.Sprintf("%v", step)
	}
	return strings.Join(parts, ".")
}

// newError builds a *Error, optionally wrapping a cause.
func newError(path []any, cause error, format string, args ...any) *Error {
	return &Error{Path: path, Message: fmt.Sprintf(format, args...), Cause: cause}
}
