package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	rterrors "github.com/wippyai/rtboot/errors"
)

// testImage is a minimal precompiled image exercising the full lifecycle
// contract:
//
//	(module
//	  (global $last (mut i32) (i32.const -1))
//	  (global $init (mut i32) (i32.const 0))
//	  (func $add (param i32 i32) (result i32) local.get 0 local.get 1 i32.add)
//	  (func $atexit (param i32) local.get 0 global.set $last)
//	  (func $initialize (i32.const 1) global.set $init)
//	  (export "add" (func $add))
//	  (export "atexit" (func $atexit))
//	  (export "_initialize" (func $initialize))
//	  (export "last_code" (global $last))
//	  (export "init_ran" (global $init)))
var testImage = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic + version
	// type section: (i32,i32)->i32, (i32)->(), ()->()
	0x01, 0x0e, 0x03,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x60, 0x01, 0x7f, 0x00,
	0x60, 0x00, 0x00,
	// function section
	0x03, 0x04, 0x03, 0x00, 0x01, 0x02,
	// global section: (mut i32) = -1, (mut i32) = 0
	0x06, 0x0b, 0x02,
	0x7f, 0x01, 0x41, 0x7f, 0x0b,
	0x7f, 0x01, 0x41, 0x00, 0x0b,
	// export section
	0x07, 0x35, 0x05,
	0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // "add" func 0
	0x06, 0x61, 0x74, 0x65, 0x78, 0x69, 0x74, 0x00, 0x01, // "atexit" func 1
	0x0b, 0x5f, 0x69, 0x6e, 0x69, 0x74, 0x69, 0x61, 0x6c, 0x69, 0x7a, 0x65, 0x00, 0x02, // "_initialize" func 2
	0x09, 0x6c, 0x61, 0x73, 0x74, 0x5f, 0x63, 0x6f, 0x64, 0x65, 0x03, 0x00, // "last_code" global 0
	0x08, 0x69, 0x6e, 0x69, 0x74, 0x5f, 0x72, 0x61, 0x6e, 0x03, 0x01, // "init_ran" global 1
	// code section
	0x0a, 0x17, 0x03,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // add
	0x06, 0x00, 0x20, 0x00, 0x24, 0x00, 0x0b, // atexit
	0x06, 0x00, 0x41, 0x01, 0x24, 0x01, 0x0b, // _initialize
}

type fakeEnviron map[string]string

func (e fakeEnviron) Setenv(key, value string) error {
	e[key] = value
	return nil
}

func (e fakeEnviron) Getenv(key string) string { return e[key] }

// newInitialized writes the test image under <depot>/lib and returns a
// runtime initialized against it plus the depot root.
func newInitialized(t *testing.T) (*Runtime, string) {
	t.Helper()
	depot := t.TempDir()
	libDir := filepath.Join(depot, "lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatal(err)
	}
	imagePath := filepath.Join(libDir, "libapp.img.wasm")
	if err := os.WriteFile(imagePath, testImage, 0o644); err != nil {
		t.Fatal(err)
	}

	r := New()
	r.SetEnviron(fakeEnviron{
		EnvDepotPath: depot + string(filepath.Separator),
		EnvLoadPath:  LoadPathCurrentProject,
	})
	r.SetupArgs([]string{"app", "work"})

	opts := DefaultOptions()
	opts.ImageFile = imagePath
	opts.Quiet = true
	if err := r.Init(context.Background(), opts); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		if r.Initialized() {
			r.SetExitFunc(func(int) {})
			r.AtExit(0)
		}
	})
	return r, depot
}

func TestInit(t *testing.T) {
	r, depot := newInitialized(t)

	if !r.Initialized() {
		t.Fatal("Initialized() = false after Init")
	}

	// _initialize ran before Init returned.
	g := r.Module().ExportedGlobal("init_ran")
	if g == nil {
		t.Fatal("image does not export init_ran")
	}
	if got := int32(g.Get()); got != 1 {
		t.Errorf("init_ran = %d, want 1", got)
	}

	// The depot backs the compilation cache.
	if _, err := os.Stat(filepath.Join(depot, compiledDirName)); err != nil {
		t.Errorf("compilation cache dir missing: %v", err)
	}

	want := []string{"_initialize", "add", "atexit"}
	got := r.Exports()
	if len(got) != len(want) {
		t.Fatalf("Exports() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Exports() = %v, want %v", got, want)
		}
	}
}

func TestInit_Twice(t *testing.T) {
	r, _ := newInitialized(t)

	err := r.Init(context.Background(), r.Options())
	if !errors.Is(err, rterrors.BadState(rterrors.PhaseInit, "", "")) {
		t.Errorf("second Init = %v, want bad_state", err)
	}
}

func TestInit_MissingImage(t *testing.T) {
	r := New()
	r.SetEnviron(fakeEnviron{})

	if err := r.Init(context.Background(), nil); err == nil {
		t.Error("Init(nil options) succeeded")
	}
	if err := r.Init(context.Background(), DefaultOptions()); err == nil {
		t.Error("Init with empty ImageFile succeeded")
	}

	opts := DefaultOptions()
	opts.ImageFile = filepath.Join(t.TempDir(), "nope.wasm")
	if err := r.Init(context.Background(), opts); err == nil {
		t.Error("Init with absent image file succeeded")
	}
	if r.Initialized() {
		t.Error("runtime initialized despite failed Init")
	}
}

func TestCall(t *testing.T) {
	r, _ := newInitialized(t)

	results, err := r.Call(context.Background(), "add", 2, 3)
	if err != nil {
		t.Fatalf("Call(add): %v", err)
	}
	if len(results) != 1 || int32(results[0]) != 5 {
		t.Errorf("add(2,3) = %v, want [5]", results)
	}

	if _, err := r.Call(context.Background(), "missing"); err == nil {
		t.Error("Call of missing export succeeded")
	}
}

func TestCall_Uninitialized(t *testing.T) {
	r := New()
	_, err := r.Call(context.Background(), "add")
	if !errors.Is(err, rterrors.BadState(rterrors.PhaseInit, "", "")) {
		t.Errorf("Call before Init = %v, want bad_state", err)
	}
}

func TestAtExit_HookObservesCode(t *testing.T) {
	for _, code := range []int{0, 1, 42, 255} {
		r, _ := newInitialized(t)

		// The hook is the exact function AtExit will invoke; calling it
		// directly shows the guest observes the code it is handed.
		if _, err := r.Call(context.Background(), ExitHookExport, uint64(uint32(code))); err != nil {
			t.Fatalf("call exit hook: %v", err)
		}
		if got := int32(r.Module().ExportedGlobal("last_code").Get()); got != int32(code) {
			t.Errorf("exit hook observed %d, want %d", got, code)
		}

		var exited []int
		r.SetExitFunc(func(c int) { exited = append(exited, c) })
		r.AtExit(code)

		if len(exited) != 1 || exited[0] != code {
			t.Errorf("AtExit(%d) terminated with %v", code, exited)
		}
		if r.Initialized() {
			t.Error("runtime still initialized after AtExit")
		}
	}
}

func TestAtExit_Uninitialized(t *testing.T) {
	r := New()
	var got int
	r.SetExitFunc(func(c int) { got = c })
	r.AtExit(3)
	if got != 3 {
		t.Errorf("AtExit before Init exited with %d, want 3", got)
	}
}

func TestArgsCache(t *testing.T) {
	r := New()
	args := []string{"app", "--threads", "4", "run"}
	r.SetupArgs(args)
	args[1] = "mutated"

	got := r.Args()
	if got[1] != "--threads" {
		t.Error("argument cache aliases the caller's slice")
	}
}
