package boot

import (
	"github.com/wippyai/rtboot"
	"github.com/wippyai/rtboot/errors"
)

// locate opens the named support library through the configured loader and
// returns the absolute path backing the handle. The handle itself is kept by
// the loader for the rest of the process; only the path travels further.
//
// An empty name is the fatal configuration error of a build that never said
// which library it ships. A loader that produces a handle but no path is
// equally fatal: a guessed path would corrupt every later resolution step.
func (s *Shim) locate(name string) (string, error) {
	if name == "" {
		return "", errors.MissingName()
	}

	h, err := s.cfg.Loader.Open(name, rtboot.ScopeDefault)
	if err != nil {
		return "", err
	}

	path, err := s.cfg.Loader.PathForHandle(h)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", errors.UnresolvedPath(name)
	}
	return path, nil
}
