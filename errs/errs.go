// Package errs defines the structured error taxonomy surfaced by parse
// and render operations (spec.md §7). The engine never panics across a
// package boundary; callers distinguish failures with errors.As.
package errs

import "fmt"

// Kind tags the category of a TemplateError.
type Kind int

const (
	FileNotFound Kind = iota
	PermissionDenied
	DuplicateBlock
	MismatchedEnd
	RecursionTargetNotFound
	TemplateNotFound
	InvalidParameterName
	InvalidPath
	PluginInvocationError
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case PermissionDenied:
		return "PermissionDenied"
	case DuplicateBlock:
		return "DuplicateBlock"
	case MismatchedEnd:
		return "MismatchedEnd"
	case RecursionTargetNotFound:
		return "RecursionTargetNotFound"
	case TemplateNotFound:
		return "TemplateNotFound"
	case InvalidParameterName:
		return "InvalidParameterName"
	case InvalidPath:
		return "InvalidPath"
	case PluginInvocationError:
		return "PluginInvocationError"
	default:
		return "Unknown"
	}
}

// TemplateError is the structured error type returned from parse/render.
// Mirrors teacher's EngineError (engine/engine.go) in shape: a message,
// diagnostic location, and an optional wrapped cause.
type TemplateError struct {
	Kind  Kind
	Path  string // source file path, if known
	Line  int    // 1-based line number, 0 if not tracked
	Name  string // block/template/plugin name implicated, if any
	Cause error
}

func (e *TemplateError) Error() string {
	loc := ""
	if e.Path != "" {
		loc = e.Path
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Line)
		}
		loc = " (" + loc + ")"
	}
	if e.Name != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %q%s: %v", e.Kind, e.Name, loc, e.Cause)
		}
		return fmt.Sprintf("%s: %q%s", e.Kind, e.Name, loc)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s%s: %v", e.Kind, loc, e.Cause)
	}
	return fmt.Sprintf("%s%s", e.Kind, loc)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

// New builds a TemplateError with no location information yet attached.
func New(kind Kind, name string) *TemplateError {
	return &TemplateError{Kind: kind, Name: name}
}

// Wrap builds a TemplateError around an underlying cause.
func Wrap(kind Kind, name string, cause error) *TemplateError {
	return &TemplateError{Kind: kind, Name: name, Cause: cause}
}

// WithLocation returns a copy of e annotated with a source path/line.
func (e *TemplateError) WithLocation(path string, line int) *TemplateError {
	cp := *e
	cp.Path = path
	cp.Line = line
	return &cp
}
