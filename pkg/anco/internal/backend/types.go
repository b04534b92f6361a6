package backend

import "errors"

// Symbol is the engine entry point resolved by Open.
const Symbol = "request_conversion"

var (
	// ErrLoad reports that the shared library could not be opened.
	ErrLoad = errors.New("anco/internal/backend: cannot load library")

	// ErrSymbol reports that the library does not export Symbol.
	ErrSymbol = errors.New("anco/internal/backend: symbol not found")

	// ErrClosed is returned when calling into a closed Library.
	ErrClosed = errors.New("anco/internal/backend: library closed")

	// ErrCGONotEnabled signals that the package was compiled without cgo and
	// therefore cannot talk to the native library.
	ErrCGONotEnabled = errors.New("anco/internal/backend: cgo not enabled")
)

// checkBuffers validates the slices handed to Call. Both must be non-empty so
// that &b[0] is addressable, and input must carry its NUL terminator.
func checkBuffers(input, output []byte) error {
	if len(input) == 0 || input[len(input)-1] != 0 {
		return errors.New("anco/internal/backend: input must be NUL-terminated")
	}
	if len(output) == 0 {
		return errors.New("anco/internal/backend: output buffer is empty")
	}
	return nil
}
