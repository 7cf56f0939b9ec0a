// Package loader provides the default support-library locator.
//
// The bootstrap pipeline only needs two things from a loader: open a library
// by its build-configured name, and report the absolute filesystem path the
// resulting handle is backed by. That path is the anchor for all depot
// resolution, so this package evaluates symlinks before reporting it.
//
// The OS loader resolves against the filesystem rather than a dynamic
// linker: the runtime here is pure Go and its "support library" is the
// precompiled image bundle shipped next to the host binary. Hosts embedding
// a native runtime can supply their own rtboot.Loader instead.
package loader
