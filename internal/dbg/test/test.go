package test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

var tmpDir string

// Supported reports whether fixtures can be built and traced here:
// tracing is linux/amd64 only and the fixtures need a C compiler.
func Supported() bool {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		return false
	}
	_, err := exec.LookPath("cc")
	return err == nil
}

// Build compiles a C fixture with debug info, no optimization, a frame
// pointer and no PIE, so link-time addresses equal runtime addresses.
// Tests on unsupported machines are skipped.
func Build(t *testing.T, name string) string {
	t.Helper()
	if !Supported() {
		t.Skip("fixture toolchain unavailable")
	}

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot find source file")
	}
	fixt := filepath.Join(filepath.Dir(filename), "fixtures", name+".c")
	binary := filepath.Join(tmpDir, name)

	flags := []string{"-g", "-O0", "-fno-omit-frame-pointer", "-fno-pie", "-no-pie", "-o", binary, fixt}

	cmd := exec.Command("cc", flags...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build fixture: %v\n%s", err, out)
	}
	return binary
}

func Run(m *testing.M) int {
	var err error
	tmpDir, err = os.MkdirTemp("", "minidbg-")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)
	return code
}
