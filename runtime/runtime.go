package runtime

import (
	"context"
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/rtboot"
	"github.com/wippyai/rtboot/errors"
)

// Environment keys the bootstrap shim writes and the runtime reads. The
// depot key carries a trailing path separator; the load-path key carries the
// fixed current-project sentinel.
const (
	EnvDepotPath = "DEPOT_PATH"
	EnvLoadPath  = "LOAD_PATH"

	// LoadPathCurrentProject resolves module load paths relative to the
	// current project environment.
	LoadPathCurrentProject = "@"
)

// ExitHookExport is the optional image export AtExit invokes with the final
// process exit code before the engine is released.
const ExitHookExport = "atexit"

// compiledDirName is the depot subdirectory backing the compilation cache.
const compiledDirName = "compiled"

// Runtime is the embedded runtime the bootstrap shim drives. It caches the
// process arguments, loads the precompiled image named by Options.ImageFile
// at Init, and hands the final exit code to the image's exit hook at AtExit.
type Runtime struct {
	mu       sync.Mutex
	environ  rtboot.Environ
	exitFunc func(int)
	args     []string
	engine   wazero.Runtime
	cache    wazero.CompilationCache
	module   api.Module
	opts     *Options
}

// New returns an uninitialized runtime reading the real process environment
// and terminating via os.Exit.
func New() *Runtime {
	return &Runtime{}
}

// SetEnviron overrides where the runtime reads its depot and load-path
// configuration from. Must be called before Init.
func (r *Runtime) SetEnviron(env rtboot.Environ) {
	r.mu.Lock()
	r.environ = env
	r.mu.Unlock()
}

// SetExitFunc overrides the process-terminating call AtExit finishes with.
func (r *Runtime) SetExitFunc(fn func(int)) {
	r.mu.Lock()
	r.exitFunc = fn
	r.mu.Unlock()
}

// SetupArgs caches the process arguments for the guest. The slice is copied;
// later rewrites by the option parser do not reach the cache.
func (r *Runtime) SetupArgs(args []string) {
	r.mu.Lock()
	r.args = append([]string(nil), args...)
	r.mu.Unlock()
}

// Args returns the cached process arguments.
func (r *Runtime) Args() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.args...)
}

// Initialized reports whether Init has completed.
func (r *Runtime) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.module != nil
}

// Options returns the configuration the runtime was initialized with, or nil
// before Init.
func (r *Runtime) Options() *Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

// Init loads the precompiled image named by opts.ImageFile and brings the
// guest up. The depot directory read from the environment backs the
// compilation cache, so warm starts skip recompilation; the cached process
// arguments and both environment keys are forwarded to the guest. If the
// image exports _initialize it runs before Init returns.
func (r *Runtime) Init(ctx context.Context, opts *Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.module != nil {
		return errors.BadState(errors.PhaseInit, "running", "uninitialized")
	}
	if opts == nil || opts.ImageFile == "" {
		return errors.InvalidInput(errors.PhaseInit, "options carry no image file")
	}

	image, err := os.ReadFile(opts.ImageFile)
	if err != nil {
		return errors.Runtime(errors.PhaseInit, "read image", err)
	}

	env := r.environ
	if env == nil {
		env = rtboot.ProcessEnviron()
	}
	depot := strings.TrimSuffix(env.Getenv(EnvDepotPath), string(filepath.Separator))

	cfg := wazero.NewRuntimeConfig()
	if depot != "" {
		cfg = r.withDepotCache(cfg, depot)
	}

	engine := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, engine)

	mcfg := wazero.NewModuleConfig().
		WithStdin(os.Stdin).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithStartFunctions() // lifecycle is explicit, never implicit _start
	if len(r.args) > 0 {
		mcfg = mcfg.WithArgs(r.args...)
	}
	for _, key := range []string{EnvDepotPath, EnvLoadPath} {
		if v := env.Getenv(key); v != "" {
			mcfg = mcfg.WithEnv(key, v)
		}
	}
	if opts.Threads > 0 {
		mcfg = mcfg.WithEnv("RT_THREADS", strconv.Itoa(opts.Threads))
	}

	mod, err := engine.InstantiateWithConfig(ctx, image, mcfg)
	if err != nil {
		_ = engine.Close(ctx)
		return errors.Runtime(errors.PhaseInit, "instantiate image", err)
	}

	if initFn := mod.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = engine.Close(ctx)
			return errors.Runtime(errors.PhaseInit, "run image initializer", err)
		}
	}

	if !opts.Quiet {
		Logger().Info("runtime initialized",
			zap.String("image", opts.ImageFile),
			zap.String("depot", depot))
	}

	r.engine = engine
	r.module = mod
	r.opts = opts
	return nil
}

// withDepotCache attaches a file-backed compilation cache under the depot.
// Cache trouble degrades to cold compilation, it never blocks init.
func (r *Runtime) withDepotCache(cfg wazero.RuntimeConfig, depot string) wazero.RuntimeConfig {
	dir := filepath.Join(depot, compiledDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		Logger().Warn("compilation cache unavailable", zap.String("dir", dir), zap.Error(err))
		return cfg
	}
	cache, err := wazero.NewCompilationCacheWithDir(dir)
	if err != nil {
		Logger().Warn("compilation cache unavailable", zap.String("dir", dir), zap.Error(err))
		return cfg
	}
	r.cache = cache
	return cfg.WithCompilationCache(cache)
}

// Module exposes the instantiated image for hosts needing direct access to
// exports, globals, or linear memory. Nil before Init and after AtExit.
func (r *Runtime) Module() api.Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.module
}

// Exports returns the image's exported function names, sorted.
func (r *Runtime) Exports() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.module == nil {
		return nil
	}
	defs := r.module.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportDefinition returns the type definition of a named export, or nil.
func (r *Runtime) ExportDefinition(name string) api.FunctionDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.module == nil {
		return nil
	}
	return r.module.ExportedFunctionDefinitions()[name]
}

// Call invokes a named export with raw stack parameters.
func (r *Runtime) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	r.mu.Lock()
	mod := r.module
	r.mu.Unlock()

	if mod == nil {
		return nil, errors.BadState(errors.PhaseInit, "uninitialized", "running")
	}
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseInit, fmt.Sprintf("image has no export %q", name))
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Runtime(errors.PhaseInit, fmt.Sprintf("call %s", name), err)
	}
	return results, nil
}

// AtExit invokes the image's exit hook with code, releases the engine, and
// terminates the process with the same code. It does not return in the
// normal case; only a test-installed exit function makes it resumable.
func (r *Runtime) AtExit(code int) {
	r.mu.Lock()
	exit := r.exitFunc
	if exit == nil {
		exit = os.Exit
	}

	if r.module != nil {
		ctx := context.Background()
		if hook := r.module.ExportedFunction(ExitHookExport); hook != nil {
			if _, err := hook.Call(ctx, api.EncodeI32(int32(code))); err != nil {
				var exitErr *sys.ExitError
				if !goerrors.As(err, &exitErr) {
					Logger().Warn("exit hook failed", zap.Int("code", code), zap.Error(err))
				}
			}
		}
		_ = r.engine.Close(ctx)
		r.module = nil
		r.engine = nil
	}
	if r.cache != nil {
		_ = r.cache.Close(context.Background())
		r.cache = nil
	}
	r.mu.Unlock()

	exit(code)
}
