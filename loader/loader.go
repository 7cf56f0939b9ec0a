package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wippyai/rtboot"
	"github.com/wippyai/rtboot/errors"
)

// OS resolves support libraries on the local filesystem. A name containing a
// path separator is taken as a path; a bare name is probed against the search
// path. The resolved path always has symlinks evaluated, so path arithmetic
// downstream sees the real install tree, not a link farm.
type OS struct {
	// SearchPath lists directories probed for bare library names, in order.
	// When empty, DefaultSearchPath() is used.
	SearchPath []string

	mu      sync.Mutex
	handles map[*handle]string
}

type handle struct {
	name string
}

func (h *handle) Name() string { return h.name }

// New returns a loader probing the default search path.
func New() *OS {
	return &OS{}
}

// DefaultSearchPath returns the directories a bare library name is resolved
// against: the host executable's directory, then its lib/ sibling. An
// installation that bundles the image next to the binary, or under
// <root>/lib/<arch>/, is found without any environment help.
func DefaultSearchPath() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs,
			exeDir,
			filepath.Join(exeDir, "..", "lib"),
		)
	}
	return dirs
}

// Open resolves name to a regular file and returns a handle for it. The
// scope argument is accepted for interface compatibility; filesystem
// resolution has no symbol scoping.
func (l *OS) Open(name string, _ rtboot.Scope) (rtboot.Handle, error) {
	if name == "" {
		return nil, errors.MissingName()
	}

	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	h := &handle{name: name}
	l.mu.Lock()
	if l.handles == nil {
		l.handles = make(map[*handle]string)
	}
	l.handles[h] = path
	l.mu.Unlock()
	return h, nil
}

// PathForHandle returns the absolute path the handle was resolved from.
func (l *OS) PathForHandle(h rtboot.Handle) (string, error) {
	hh, ok := h.(*handle)
	if !ok {
		return "", errors.InvalidInput(errors.PhaseLocate, "handle was not produced by this loader")
	}

	l.mu.Lock()
	path, ok := l.handles[hh]
	l.mu.Unlock()
	if !ok {
		return "", errors.UnresolvedPath(hh.name)
	}
	return path, nil
}

func (l *OS) resolve(name string) (string, error) {
	if filepath.Base(name) != name {
		// Explicit path, relative or absolute.
		return canonicalize(name)
	}

	search := l.SearchPath
	if len(search) == 0 {
		search = DefaultSearchPath()
	}

	var firstErr error
	for _, dir := range search {
		path, err := canonicalize(filepath.Join(dir, name))
		if err == nil {
			return path, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", errors.NotFound(name, firstErr)
}

// canonicalize checks that path names a readable regular file and returns it
// absolute with symlinks evaluated.
func canonicalize(path string) (string, error) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", errors.NotFound(path, err)
	}
	abs, err := filepath.Abs(real)
	if err != nil {
		return "", errors.NotFound(path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.NotFound(path, err)
	}
	if !info.Mode().IsRegular() {
		return "", errors.NotFound(path, &fs.PathError{Op: "open", Path: abs, Err: fs.ErrInvalid})
	}
	return abs, nil
}
