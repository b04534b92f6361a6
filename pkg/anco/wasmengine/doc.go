// Package wasmengine runs a WebAssembly build of the conversion engine on
// wazero and exposes it as an anco.Engine.
//
// # Guest ABI
//
// The module must export:
//
//	memory                                    linear memory
//	malloc(size i32) i32                      allocation in guest memory
//	request_conversion(in i32, out i32, len i32)
//
// and may export free(ptr i32) and _initialize (WASI reactor init, run once
// per instantiation). WASI preview1 imports are provided.
//
// Each call copies the NUL-terminated input and the whole output slice
// (guard region included) into guest memory, runs request_conversion with
// len(output), and copies cap(output) bytes back so that anco.Client can
// check its guard.
//
// # Loading
//
//	engine, err := wasmengine.Open(ctx, "file:///opt/anco/anco.wasm")
//	client, err := anco.New(engine, anco.Config{TrimAtNUL: true})
//
// Open accepts any URL viant/afs understands: file://, mem://
// and the cloud storage schemes registered with afs.
//
// # Cancellation
//
// The runtime closes a module whose call context is cancelled. The next call
// instantiates the module again, so engine state kept in guest memory is
// lost after a cancellation.
package wasmengine
