package rtboot

import "os"

// Scope selects the symbol-resolution scope a Loader opens a library with.
// The default scope is what a bootstrap shim wants: resolution local to the
// handle, lazy where the platform supports it.
type Scope int

const (
	ScopeDefault Scope = iota
	ScopeLocal
	ScopeGlobal
)

// Handle is an opaque capability for a successfully mapped support library.
// Handles live for the remainder of the process; there is no release call.
type Handle interface {
	// Name returns the library name the handle was opened under.
	Name() string
}

// Loader opens support libraries and reports the filesystem path backing a
// handle. Implementations own the resolution policy (search order, symlink
// handling); callers treat the result as the source of truth for all
// subsequent path arithmetic.
type Loader interface {
	Open(name string, scope Scope) (Handle, error)
	PathForHandle(h Handle) (string, error)
}

// Environ abstracts the process-global environment table so the bootstrap
// pipeline can be exercised without mutating real process state. Values set
// through an Environ must remain visible for the rest of the process.
type Environ interface {
	Setenv(key, value string) error
	Getenv(key string) string
}

// ProcessEnviron returns an Environ backed by the real process environment.
func ProcessEnviron() Environ { return processEnviron{} }

type processEnviron struct{}

func (processEnviron) Setenv(key, value string) error { return os.Setenv(key, value) }
func (processEnviron) Getenv(key string) string       { return os.Getenv(key) }
