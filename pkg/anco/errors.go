package anco

import (
	"errors"
	"fmt"

	"github.com/kanakanji/anco-go/pkg/anco/internal/backend"
)

var (
	// ErrLibraryLoad reports that the engine library could not be located or
	// loaded on this platform/architecture.
	ErrLibraryLoad = errors.New("anco: library load failed")

	// ErrSymbolResolution reports that the engine does not export
	// request_conversion (or, for wasm engines, one of the required exports).
	ErrSymbolResolution = errors.New("anco: symbol resolution failed")

	// ErrEncoding reports that the engine output is not valid UTF-8.
	ErrEncoding = errors.New("anco: output is not valid UTF-8")

	// ErrBufferOverrun reports that the engine wrote past the declared output
	// length into the guard region.
	ErrBufferOverrun = errors.New("anco: engine wrote past output buffer")

	// ErrTruncated reports that no NUL terminator was found in the output
	// after all configured attempts.
	ErrTruncated = errors.New("anco: output truncated")

	// ErrClosed is returned by operations on a closed Client.
	ErrClosed = errors.New("anco: client closed")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("anco: invalid parameter")

	// ErrCGONotEnabled signals that the package was compiled without cgo and
	// therefore cannot dlopen the engine.
	ErrCGONotEnabled = backend.ErrCGONotEnabled
)

// Error wraps an underlying error with the operation that failed.
type Error struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("anco.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// EncodingError describes where decoding of the engine output failed.
type EncodingError struct {
	// Offset is the index of the first byte that does not start a valid
	// UTF-8 sequence.
	Offset int
	// Len is the number of bytes that were decoded.
	Len int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v: invalid byte at offset %d of %d", ErrEncoding, e.Offset, e.Len)
}

// Is lets errors.Is(err, ErrEncoding) match.
func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

func opError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// remapError converts backend errors to the public taxonomy. The backend
// detail stays in the chain so errors.Is works for both layers.
func remapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrSymbol):
		return fmt.Errorf("%w: %w", ErrSymbolResolution, err)
	case errors.Is(err, backend.ErrLoad), errors.Is(err, backend.ErrCGONotEnabled):
		return fmt.Errorf("%w: %w", ErrLibraryLoad, err)
	case errors.Is(err, backend.ErrClosed):
		return ErrClosed
	}
	return err
}
