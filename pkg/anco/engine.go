package anco

import (
	"context"

	"github.com/kanakanji/anco-go/pkg/anco/internal/backend"
)

// Engine is the foreign side of a conversion: something that implements the
// request_conversion contract.
//
// input is UTF-8 terminated by a single NUL. The engine writes its result into
// output and must not write more than len(output) bytes. cap(output) may
// exceed len(output); those bytes belong to the caller's overrun guard.
type Engine interface {
	RequestConversion(ctx context.Context, input, output []byte) error
	Close() error
}

// nativeEngine calls request_conversion in a dlopen'ed library. The foreign
// call cannot be interrupted, so ctx is not consulted.
type nativeEngine struct {
	lib *backend.Library
}

func (e *nativeEngine) RequestConversion(_ context.Context, input, output []byte) error {
	return remapError(e.lib.Call(input, output))
}

func (e *nativeEngine) Close() error {
	return remapError(e.lib.Close())
}
