package boot

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/rtboot"
	"github.com/wippyai/rtboot/loader"
	"github.com/wippyai/rtboot/runtime"
)

// DefaultLibraryName is the build-configured support library name, normally
// injected at link time:
//
//	go build -ldflags "-X github.com/wippyai/rtboot/boot.DefaultLibraryName=libapp.img.wasm"
//
// Leaving it empty and not setting Config.LibraryName is a fatal
// configuration error: the build did not say which library backs the runtime.
var DefaultLibraryName string

// Runtime is the narrow surface the shim drives. *runtime.Runtime satisfies
// it; tests substitute fakes.
type Runtime interface {
	SetupArgs(args []string)
	SetEnviron(env rtboot.Environ)
	Init(ctx context.Context, opts *runtime.Options) error
	AtExit(code int)
}

// Config carries everything the bootstrap pipeline needs. The zero value is
// usable in a deployed binary: defaults are the linked-in library name, the
// process arguments and environment, the filesystem loader, and a fresh
// runtime.
type Config struct {
	// LibraryName names the support library to locate. Empty means
	// DefaultLibraryName.
	LibraryName string

	// Args is the process argv, program name first. Nil means os.Args.
	Args []string

	// DepotAscent is the number of directory levels between the library file
	// and the depot root. Zero means DefaultDepotAscent.
	DepotAscent int

	Loader  rtboot.Loader
	Environ rtboot.Environ
	Runtime Runtime
	Logger  *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.LibraryName == "" {
		c.LibraryName = DefaultLibraryName
	}
	if c.Args == nil {
		c.Args = os.Args
	}
	if c.DepotAscent == 0 {
		c.DepotAscent = DefaultDepotAscent
	}
	if c.Loader == nil {
		c.Loader = loader.New()
	}
	if c.Environ == nil {
		c.Environ = rtboot.ProcessEnviron()
	}
	if c.Runtime == nil {
		c.Runtime = runtime.New()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
