// Package nativetest compiles the C test engine in testdata into a shared
// library so loader tests can dlopen a real request_conversion. Tests skip
// when no C compiler is available.
package nativetest

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Variant selects the behaviour compiled into the test engine.
type Variant string

const (
	// Table converts にほんご to 日本語 and echoes anything else.
	Table Variant = ""
	// Overrun writes 8 bytes past output_len.
	Overrun Variant = "ANCO_OVERRUN"
	// Garbage fills the unused tail with 0xFF.
	Garbage Variant = "ANCO_GARBAGE"
	// NoEntry builds a library without request_conversion.
	NoEntry Variant = "ANCO_NO_ENTRY"
)

// Build compiles the engine variant into t.TempDir and returns the library
// path.
func Build(t testing.TB, v Variant) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test engine build is not supported on windows")
	}

	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	if _, err := exec.LookPath(strings.Fields(cc)[0]); err != nil {
		t.Skipf("no C compiler: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate nativetest sources")
	}
	src := filepath.Join(filepath.Dir(file), "testdata", "engine.c")

	out := filepath.Join(t.TempDir(), LibraryName(v))
	args := append(strings.Fields(cc)[1:], "-shared", "-fPIC", "-o", out)
	if v != Table {
		args = append(args, "-D"+string(v))
	}
	args = append(args, src)

	cmd := exec.Command(strings.Fields(cc)[0], args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build test engine: %v\n%s", err, output)
	}
	return out
}

// LibraryName returns the platform file name for a variant.
func LibraryName(v Variant) string {
	base := "libanco_test"
	if v != Table {
		base += "_" + strings.ToLower(strings.TrimPrefix(string(v), "ANCO_"))
	}
	if runtime.GOOS == "darwin" {
		return base + ".dylib"
	}
	return base + ".so"
}
