package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/rtboot"
	rterrors "github.com/wippyai/rtboot/errors"
)

// installFixture lays out <root>/lib/<name> and returns root plus the full
// library path.
func installFixture(t *testing.T, name string) (root, libPath string) {
	t.Helper()
	root = t.TempDir()
	libDir := filepath.Join(root, "lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatal(err)
	}
	libPath = filepath.Join(libDir, name)
	if err := os.WriteFile(libPath, []byte("\x00asm"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, libPath
}

func TestOpen_BareName(t *testing.T) {
	root, libPath := installFixture(t, "libapp.img.wasm")

	l := &OS{SearchPath: []string{filepath.Join(root, "lib")}}
	h, err := l.Open("libapp.img.wasm", rtboot.ScopeDefault)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if h.Name() != "libapp.img.wasm" {
		t.Errorf("Name() = %q", h.Name())
	}

	got, err := l.PathForHandle(h)
	if err != nil {
		t.Fatalf("PathForHandle: %v", err)
	}
	want, _ := filepath.EvalSymlinks(libPath)
	if got != want {
		t.Errorf("PathForHandle = %q, want %q", got, want)
	}

	// Parent-of-parent of the resolved path is the install root.
	wantRoot, _ := filepath.EvalSymlinks(root)
	if depot := filepath.Dir(filepath.Dir(got)); depot != wantRoot {
		t.Errorf("parent-of-parent = %q, want depot root %q", depot, wantRoot)
	}
}

func TestOpen_ExplicitPath(t *testing.T) {
	_, libPath := installFixture(t, "libapp.img.wasm")

	l := New()
	h, err := l.Open(libPath, rtboot.ScopeDefault)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := l.PathForHandle(h)
	if err != nil {
		t.Fatalf("PathForHandle: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("resolved path %q is not absolute", got)
	}
}

func TestOpen_ResolvesSymlinks(t *testing.T) {
	root, libPath := installFixture(t, "libapp.img.wasm")

	linkDir := filepath.Join(root, "current")
	if err := os.Symlink(filepath.Join(root, "lib"), linkDir); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	l := New()
	h, err := l.Open(filepath.Join(linkDir, "libapp.img.wasm"), rtboot.ScopeDefault)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := l.PathForHandle(h)
	if err != nil {
		t.Fatalf("PathForHandle: %v", err)
	}
	want, _ := filepath.EvalSymlinks(libPath)
	if got != want {
		t.Errorf("symlinked open resolved to %q, want real path %q", got, want)
	}
}

func TestOpen_EmptyName(t *testing.T) {
	l := New()
	_, err := l.Open("", rtboot.ScopeDefault)
	if !errors.Is(err, rterrors.MissingName()) {
		t.Errorf("Open(\"\") = %v, want missing_name", err)
	}
}

func TestOpen_NotFound(t *testing.T) {
	l := &OS{SearchPath: []string{t.TempDir()}}
	_, err := l.Open("libnope.img.wasm", rtboot.ScopeDefault)
	if !errors.Is(err, rterrors.NotFound("libnope.img.wasm", nil)) {
		t.Errorf("Open = %v, want not_found", err)
	}
}

func TestOpen_RejectsDirectory(t *testing.T) {
	root := t.TempDir()
	l := New()
	_, err := l.Open(root, rtboot.ScopeDefault)
	if err == nil {
		t.Fatal("Open of a directory succeeded")
	}
}

func TestPathForHandle_ForeignHandle(t *testing.T) {
	l := New()
	if _, err := l.PathForHandle(foreignHandle{}); err == nil {
		t.Fatal("PathForHandle accepted a foreign handle")
	}

	other := New()
	_, libPath := installFixture(t, "libapp.img.wasm")
	h, err := other.Open(libPath, rtboot.ScopeDefault)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.PathForHandle(h); !errors.Is(err, rterrors.UnresolvedPath("libapp.img.wasm")) {
		t.Errorf("PathForHandle of another loader's handle = %v, want unresolved_path", err)
	}
}

type foreignHandle struct{}

func (foreignHandle) Name() string { return "foreign" }
