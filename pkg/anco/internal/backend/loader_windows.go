//go:build windows

package backend

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Library is an opened engine DLL with request_conversion resolved.
type Library struct {
	path string

	mu   sync.Mutex
	dll  *windows.DLL
	proc *windows.Proc
}

// Open loads the DLL at path and resolves Symbol.
func Open(path string) (*Library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	proc, err := dll.FindProc(Symbol)
	if err != nil {
		_ = dll.Release()
		return nil, fmt.Errorf("%w: %s: %v", ErrSymbol, Symbol, err)
	}
	return &Library{path: path, dll: dll, proc: proc}, nil
}

// Path returns the path the library was opened from.
func (l *Library) Path() string { return l.path }

// Call invokes request_conversion(input, output, len(output)).
func (l *Library) Call(input, output []byte) error {
	if err := checkBuffers(input, output); err != nil {
		return err
	}
	l.mu.Lock()
	proc := l.proc
	l.mu.Unlock()
	if proc == nil {
		return ErrClosed
	}

	// The returned error is GetLastError, which a void function leaves
	// meaningless; it is ignored on purpose.
	_, _, _ = proc.Call(
		uintptr(unsafe.Pointer(&input[0])),
		uintptr(unsafe.Pointer(&output[0])),
		uintptr(len(output)),
	)
	return nil
}

// Close releases the DLL. Calling Close twice is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dll == nil {
		return nil
	}
	err := l.dll.Release()
	l.dll = nil
	l.proc = nil
	if err != nil {
		return fmt.Errorf("release %s: %w", l.path, err)
	}
	return nil
}
