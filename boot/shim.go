package boot

import (
	"context"
	goerrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/rtboot/errors"
	"github.com/wippyai/rtboot/runtime"
)

// State is the shim's lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Shim is the bootstrap lifecycle controller. It moves Uninitialized ->
// Running -> Terminated, driving the argument forwarding, library location,
// depot resolution and environment configuration steps in that order before
// handing control to the runtime.
//
// A Shim is single-threaded by contract: one goroutine calls Init once, and
// later Shutdown once, at the very end of main.
type Shim struct {
	cfg         Config
	state       State
	args        []string
	opts        *runtime.Options
	libraryPath string
	depot       string
}

// New returns an Uninitialized shim. Zero-value Config fields are defaulted;
// see Config.
func New(cfg Config) *Shim {
	return &Shim{cfg: cfg.withDefaults()}
}

// State returns the current lifecycle state.
func (s *Shim) State() State { return s.state }

// Runtime returns the runtime the shim drives.
func (s *Shim) Runtime() Runtime { return s.cfg.Runtime }

// Args returns the arguments left for the host application after the
// runtime's option parser consumed its own flags. Nil before Init.
func (s *Shim) Args() []string { return s.args }

// LibraryPath returns the resolved support-library path. Empty before Init.
func (s *Shim) LibraryPath() string { return s.libraryPath }

// Depot returns the resolved depot root. Empty before Init.
func (s *Shim) Depot() string { return s.depot }

// Init runs the bootstrap pipeline and brings the runtime up. Valid only
// from Uninitialized. Unrecoverable configuration errors (missing library
// name, unresolvable library, broken install layout) terminate the process
// through the configured logger's Fatal path without reaching the runtime;
// recoverable failures are returned and leave the shim Uninitialized.
func (s *Shim) Init(ctx context.Context) error {
	if s.state != StateUninitialized {
		return errors.BadState(errors.PhaseInit, s.state.String(), StateUninitialized.String())
	}

	opts, args, err := s.forwardArgs()
	if err != nil {
		return s.failed(err)
	}

	libPath, err := s.locate(s.cfg.LibraryName)
	if err != nil {
		return s.failed(err)
	}

	depot, err := resolveDepot(libPath, s.cfg.DepotAscent)
	if err != nil {
		return s.failed(err)
	}

	if err := configureEnvironment(s.cfg.Environ, depot, libPath, opts); err != nil {
		return s.failed(err)
	}

	if err := s.cfg.Runtime.Init(ctx, opts); err != nil {
		return s.failed(err)
	}

	s.opts = opts
	s.args = args
	s.libraryPath = libPath
	s.depot = depot
	s.state = StateRunning

	s.cfg.Logger.Info("bootstrap complete",
		zap.String("library", libPath),
		zap.String("depot", depot))
	return nil
}

// Shutdown hands the final exit code to the runtime's exit hook and
// terminates the process with it. Valid only from Running; it does not
// return in the normal case. Call exactly once, at the very end of main.
func (s *Shim) Shutdown(code int) {
	if s.state != StateRunning {
		s.cfg.Logger.Fatal("shutdown outside running state",
			zap.Stringer("state", s.state),
			zap.Int("code", code))
		return // reached only under a test fatal hook
	}

	s.state = StateTerminated
	s.cfg.Logger.Info("runtime shutdown", zap.Int("code", code))
	s.cfg.Runtime.AtExit(code)
}

// failed routes fatal bootstrap errors to the logger's non-returning Fatal
// path and hands everything else back to the caller.
func (s *Shim) failed(err error) error {
	var be *errors.Error
	if goerrors.As(err, &be) && be.Fatal() {
		s.cfg.Logger.Fatal("bootstrap failed", zap.Error(err))
	}
	return err
}
