// Package backend hosts the thin loader that links pkg/anco to the native
// conversion engine.
//
// # Design Principles
//
//  1. Isolation: this is the only package that imports "C". Callers see a
//     Library with Go slices in and nothing but errors out.
//  2. Minimal surface: one symbol, request_conversion, is resolved and
//     called. Nothing else in the engine is wrapped.
//  3. Error handling: dlopen/dlsym/LoadDLL failures become ErrLoad or
//     ErrSymbol immediately, with the platform message attached.
//  4. Memory: the engine writes straight into Go-allocated byte slices. No C
//     allocation outlives a call and no pointer is retained by C.
//
// # Build variants
//
//	cgo && !windows   dlopen/dlsym through cgo (loader_cgo.go)
//	windows           golang.org/x/sys/windows LoadDLL, no cgo (loader_windows.go)
//	!cgo && !windows  stub returning ErrCGONotEnabled (loader_stub.go)
//
// # Threading
//
// The engine is not known to be reentrant. Library does no locking of its
// own; serialization is the caller's decision (see anco.Config.Concurrent).
package backend
