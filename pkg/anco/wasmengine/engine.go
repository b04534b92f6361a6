package wasmengine

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/viant/afs"
	"go.uber.org/multierr"

	"github.com/kanakanji/anco-go/pkg/anco"
	"github.com/kanakanji/anco-go/pkg/anco/logging"
)

const (
	exportMemory  = "memory"
	exportMalloc  = "malloc"
	exportFree    = "free"
	exportConvert = "request_conversion"
	exportInit    = "_initialize"
)

// Option customizes an Engine.
type Option func(*options)

type options struct {
	memoryLimitPages uint32
	logger           logging.Logger
}

// WithMemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
// wazero default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) { o.memoryLimitPages = pages }
}

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Engine hosts one instance of the guest module. Calls are serialized.
type Engine struct {
	mu       sync.Mutex
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	logger   logging.Logger
	closed   bool

	mod     api.Module
	malloc  api.Function
	free    api.Function
	convert api.Function
}

var _ anco.Engine = (*Engine)(nil)

// Open downloads the module at url with afs and compiles it.
func Open(ctx context.Context, url string, opts ...Option) (*Engine, error) {
	data, err := afs.New().DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", anco.ErrLibraryLoad, url, err)
	}
	return New(ctx, data, opts...)
}

// New compiles wasm, checks the guest ABI and instantiates the module.
func New(ctx context.Context, wasm []byte, opts ...Option) (*Engine, error) {
	o := options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if o.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(o.memoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("%w: instantiate WASI: %w", anco.ErrLibraryLoad, err)
	}

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("%w: compile: %w", anco.ErrLibraryLoad, err)
	}
	if err := checkExports(compiled); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}

	e := &Engine{runtime: r, compiled: compiled, logger: o.logger.With("engine", "wasm")}
	if err := e.instantiate(ctx); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	return e, nil
}

// checkExports verifies the guest ABI before anything is instantiated.
func checkExports(compiled wazero.CompiledModule) error {
	if _, ok := compiled.ExportedMemories()[exportMemory]; !ok {
		return fmt.Errorf("%w: wasm export %q", anco.ErrSymbolResolution, exportMemory)
	}

	i32 := api.ValueTypeI32
	want := map[string]struct{ params, results []api.ValueType }{
		exportConvert: {[]api.ValueType{i32, i32, i32}, nil},
		exportMalloc:  {[]api.ValueType{i32}, []api.ValueType{i32}},
	}
	funcs := compiled.ExportedFunctions()
	for name, sig := range want {
		def, ok := funcs[name]
		if !ok {
			return fmt.Errorf("%w: wasm export %q", anco.ErrSymbolResolution, name)
		}
		if !sameTypes(def.ParamTypes(), sig.params) || !sameTypes(def.ResultTypes(), sig.results) {
			return fmt.Errorf("%w: wasm export %q has signature %v -> %v",
				anco.ErrSymbolResolution, name, def.ParamTypes(), def.ResultTypes())
		}
	}
	return nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (e *Engine) instantiate(ctx context.Context) error {
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions(exportInit)
	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, cfg)
	if err != nil {
		return fmt.Errorf("%w: instantiate: %w", anco.ErrLibraryLoad, err)
	}
	e.mod = mod
	e.malloc = mod.ExportedFunction(exportMalloc)
	e.free = mod.ExportedFunction(exportFree)
	e.convert = mod.ExportedFunction(exportConvert)
	e.logger.Debug(ctx, "module instantiated", "has_free", e.free != nil)
	return nil
}

// RequestConversion implements anco.Engine.
func (e *Engine) RequestConversion(ctx context.Context, input, output []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return anco.ErrClosed
	}
	full := output[:cap(output)]
	if len(input) > math.MaxInt32 || len(full) > math.MaxInt32 {
		return fmt.Errorf("%w: buffer exceeds guest address space", anco.ErrInvalidParameter)
	}
	if e.mod == nil || e.mod.IsClosed() {
		e.logger.Debug(ctx, "module closed, instantiating again")
		if err := e.instantiate(ctx); err != nil {
			return err
		}
	}

	inPtr, err := e.alloc(ctx, len(input))
	if err != nil {
		return err
	}
	defer e.release(ctx, inPtr)

	outPtr, err := e.alloc(ctx, len(full))
	if err != nil {
		return err
	}
	defer e.release(ctx, outPtr)

	mem := e.mod.Memory()
	if !mem.Write(inPtr, input) || !mem.Write(outPtr, full) {
		return fmt.Errorf("wasm: malloc returned memory outside the guest heap")
	}

	if _, err := e.convert.Call(ctx, uint64(inPtr), uint64(outPtr), uint64(len(output))); err != nil {
		return fmt.Errorf("wasm: %s: %w", exportConvert, err)
	}

	result, ok := mem.Read(outPtr, uint32(len(full)))
	if !ok {
		return fmt.Errorf("wasm: output buffer no longer addressable")
	}
	copy(full, result)
	return nil
}

func (e *Engine) alloc(ctx context.Context, size int) (uint32, error) {
	res, err := e.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("wasm: %s(%d): %w", exportMalloc, size, err)
	}
	ptr := api.DecodeU32(res[0])
	if ptr == 0 {
		return 0, fmt.Errorf("wasm: %s(%d) returned NULL", exportMalloc, size)
	}
	return ptr, nil
}

func (e *Engine) release(ctx context.Context, ptr uint32) {
	if e.free == nil || e.mod.IsClosed() {
		return
	}
	if _, err := e.free.Call(ctx, uint64(ptr)); err != nil {
		e.logger.Debug(ctx, "free failed", "error", err)
	}
}

// Close closes the module and the runtime. A second Close is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	ctx := context.Background()
	var err error
	if e.mod != nil && !e.mod.IsClosed() {
		err = multierr.Append(err, e.mod.Close(ctx))
	}
	err = multierr.Append(err, e.runtime.Close(ctx))
	return err
}
