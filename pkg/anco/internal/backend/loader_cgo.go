//go:build cgo && !windows

package backend

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef void (*anco_request_conversion_fn)(const char*, char*, intptr_t);

static void anco_call(void* fn, const char* input, char* output, intptr_t output_len) {
	((anco_request_conversion_fn)fn)(input, output, output_len);
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// Library is an opened engine library with request_conversion resolved.
type Library struct {
	path string

	mu     sync.Mutex
	handle unsafe.Pointer
	fn     unsafe.Pointer
}

// Open loads the shared library at path and resolves Symbol.
//
// dlerror state is per thread, so the calling goroutine is pinned to its OS
// thread until the message has been read.
func Open(path string) (*Library, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	C.dlerror()
	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoad, dlerror())
	}

	csym := C.CString(Symbol)
	defer C.free(unsafe.Pointer(csym))

	C.dlerror()
	fn := C.dlsym(handle, csym)
	if fn == nil {
		msg := dlerror()
		C.dlclose(handle)
		return nil, fmt.Errorf("%w: %s: %s", ErrSymbol, Symbol, msg)
	}

	return &Library{path: path, handle: handle, fn: fn}, nil
}

func dlerror() string {
	if msg := C.dlerror(); msg != nil {
		return C.GoString(msg)
	}
	return "unknown dl error"
}

// Path returns the path the library was opened from.
func (l *Library) Path() string { return l.path }

// Call invokes request_conversion(input, output, len(output)). The engine
// may write up to len(output) bytes; input must be NUL-terminated.
//
// Both slices are Go memory containing no Go pointers and are not retained
// by the callee, which satisfies the cgo pointer passing rules.
func (l *Library) Call(input, output []byte) error {
	if err := checkBuffers(input, output); err != nil {
		return err
	}
	l.mu.Lock()
	fn := l.fn
	l.mu.Unlock()
	if fn == nil {
		return ErrClosed
	}

	C.anco_call(fn,
		(*C.char)(unsafe.Pointer(&input[0])),
		(*C.char)(unsafe.Pointer(&output[0])),
		C.intptr_t(len(output)),
	)
	runtime.KeepAlive(input)
	runtime.KeepAlive(output)
	return nil
}

// Close releases the dlopen handle. Calling Close twice is a no-op. Close
// must not overlap a Call; anco.Client holds its write lock while closing.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	rc := C.dlclose(l.handle)
	l.handle = nil
	l.fn = nil
	if rc != 0 {
		return fmt.Errorf("dlclose %s: %s", l.path, dlerror())
	}
	return nil
}
