// Package anco is a Go binding for the anco kana-to-kanji conversion engine.
//
// The engine is a prebuilt native library exporting one C entry point:
//
//	void request_conversion(const char *input, char *output, intptr_t output_len);
//
// All linguistic work (dictionaries, candidate ranking, learning) happens
// inside the engine. This package loads it, marshals buffers and decodes the
// result.
//
// # Quick start
//
//	client, err := anco.Open(anco.Config{LibraryPath: "/opt/anco/libanco.so"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	kanji, err := client.Convert("にほんご")
//
// When LibraryPath is empty the path comes from $ANCO_LIBRARY_PATH, then the
// platform default name (see DefaultLibraryName) resolved by the dynamic
// loader.
//
// # Buffer contract
//
// For an input of n UTF-8 bytes the engine receives n+1 bytes (NUL included)
// and an output buffer of BufferFactor*(n+1) bytes. Nothing guarantees that
// the engine's result fits; the ratio is a heuristic. Two safeguards are
// available:
//
//   - A guard region of canary bytes follows the output buffer. An engine that
//     writes past output_len lands in memory the client owns and the call
//     fails with ErrBufferOverrun instead of corrupting the heap. Overruns
//     larger than the guard are still undefined behaviour.
//   - With MaxAttempts > 1 an output lacking a NUL terminator is treated as
//     truncated and retried with a doubled buffer.
//
// By default the whole output buffer is decoded, so results carry the NUL
// padding the engine left behind. Set TrimAtNUL to cut at the terminator.
//
// # Engines
//
// Open uses the native loader. New accepts any Engine, for example a
// WebAssembly build hosted by package wasmengine, or a double from
// package enginetest.
//
// # Errors
//
//	ErrLibraryLoad       library missing, incompatible, or cgo disabled
//	ErrSymbolResolution  request_conversion not exported
//	ErrEncoding          output is not valid UTF-8 (*EncodingError)
//	ErrBufferOverrun     engine wrote into the guard region
//	ErrTruncated         no terminator after MaxAttempts
//	ErrClosed            client already closed
//
// None of them are retried.
//
// # Threading
//
// Calls block until the engine returns; there is no timeout inside the
// engine. The engine is not known to be reentrant, so calls are serialized
// unless Config.Concurrent is set.
package anco
