package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bootstrap pipeline the error occurred
type Phase string

const (
	PhaseArgs      Phase = "args"      // argument forwarding / option parsing
	PhaseLocate    Phase = "locate"    // support library resolution
	PhaseDepot     Phase = "depot"     // depot path derivation
	PhaseConfigure Phase = "configure" // environment composition
	PhaseInit      Phase = "init"      // runtime initialization
	PhaseShutdown  Phase = "shutdown"  // runtime exit hook
)

// Kind categorizes the error
type Kind string

const (
	KindMissingName    Kind = "missing_name"    // no support-library name configured
	KindNotFound       Kind = "not_found"       // library not present on any search path
	KindUnresolvedPath Kind = "unresolved_path" // loader produced a handle but no path
	KindLayout         Kind = "layout"          // install tree shallower than the depot ascent
	KindInvalidInput   Kind = "invalid_input"
	KindBadState       Kind = "bad_state" // lifecycle transition out of order
	KindRuntime        Kind = "runtime"   // reported by the embedded runtime
)

// Error is the structured error type used throughout the shim
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error is unrecoverable for the process.
// Everything before runtime init is: a wrong depot or load path would
// silently corrupt all subsequent module resolution, so the host must
// terminate rather than continue.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindMissingName, KindNotFound, KindUnresolvedPath, KindLayout:
		return true
	}
	return false
}

// Convenience constructors for the bootstrap error surface

// MissingName creates the fatal configuration error for an absent
// support-library name.
func MissingName() *Error {
	return &Error{
		Phase:  PhaseLocate,
		Kind:   KindMissingName,
		Detail: "no support-library name supplied by the build",
	}
}

// NotFound creates a library resolution failure.
func NotFound(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseLocate,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("support library %q not found", name),
		Cause:  cause,
	}
}

// UnresolvedPath creates the fatal error for a handle the loader cannot
// report a backing path for.
func UnresolvedPath(name string) *Error {
	return &Error{
		Phase:  PhaseLocate,
		Kind:   KindUnresolvedPath,
		Detail: fmt.Sprintf("loader returned no path for handle of %q", name),
	}
}

// Layout creates the error for an install tree too shallow for the
// expected depot nesting.
func Layout(path string, want int) *Error {
	return &Error{
		Phase:  PhaseDepot,
		Kind:   KindLayout,
		Path:   path,
		Detail: fmt.Sprintf("cannot ascend %d levels", want),
	}
}

// BadState creates a lifecycle ordering error.
func BadState(phase Phase, have, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadState,
		Detail: fmt.Sprintf("state is %s, need %s", have, want),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Runtime wraps an error reported by the embedded runtime. The cause is
// kept unwrapped in the chain; this shim never rewrites runtime diagnostics.
func Runtime(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRuntime,
		Detail: detail,
		Cause:  cause,
	}
}
