package boot

import (
	"path/filepath"

	"github.com/wippyai/rtboot/errors"
)

// DefaultDepotAscent is the number of directory levels between the support
// library file and the depot root. It encodes the install layout contract
//
//	<depot-root>/<lib-dir>/<library-file>
//
// A deployment that nests the library deeper must set Config.DepotAscent to
// match; resolution never guesses.
const DefaultDepotAscent = 2

// resolveDepot derives the depot root from the resolved library path by
// ascending exactly ascent levels. Pure path arithmetic: no filesystem
// checks, no trailing separator on the result. A path too shallow for the
// ascent fails loudly instead of silently resolving the wrong depot.
func resolveDepot(path string, ascent int) (string, error) {
	if ascent <= 0 {
		ascent = DefaultDepotAscent
	}

	p := filepath.Clean(path)
	for i := 0; i < ascent; i++ {
		parent := filepath.Dir(p)
		if parent == p {
			return "", errors.Layout(path, ascent)
		}
		p = parent
	}
	return p, nil
}
