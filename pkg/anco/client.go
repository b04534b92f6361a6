package anco

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kanakanji/anco-go/pkg/anco/internal/backend"
	"github.com/kanakanji/anco-go/pkg/anco/kana"
	"github.com/kanakanji/anco-go/pkg/anco/logging"
)

// Client converts kana to kanji through an Engine. It owns the engine for
// its whole lifetime and releases it on Close.
type Client struct {
	cfg    Config
	engine Engine
	logger logging.Logger
	path   string

	// mu is held for reading by every engine call, until the engine returns,
	// and for writing by Close.
	mu     sync.RWMutex
	closed bool

	// callMu serializes engine calls unless cfg.Concurrent is set.
	callMu sync.Mutex
}

// Open loads the native engine library and resolves request_conversion.
//
// Errors match ErrLibraryLoad when the library is missing or cannot be
// loaded on this platform (including builds without cgo), and
// ErrSymbolResolution when the entry point is absent.
func Open(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, opError("open", err)
	}

	path := ResolveLibraryPath(cfg)
	if strings.ContainsAny(path, `/\`) {
		if _, err := os.Stat(path); err != nil {
			return nil, opError("open", fmt.Errorf("%w: %w", ErrLibraryLoad, err))
		}
	}

	lib, err := backend.Open(path)
	if err != nil {
		return nil, opError("open", remapError(err))
	}

	c := newClient(&nativeEngine{lib: lib}, cfg)
	c.path = path
	c.logger.Info(context.Background(), "engine library loaded", "path", path)
	return c, nil
}

// New wraps an already constructed engine, such as a wasmengine.Engine or a
// test double. The client takes ownership and closes the engine on Close.
func New(engine Engine, cfg Config) (*Client, error) {
	if engine == nil {
		return nil, opError("new", fmt.Errorf("%w: nil engine", ErrInvalidParameter))
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, opError("new", err)
	}
	return newClient(engine, cfg), nil
}

func newClient(engine Engine, cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		engine: engine,
		logger: cfg.Logger.With("component", "anco"),
	}
}

// Config returns the effective configuration, defaults applied.
func (c *Client) Config() Config { return c.cfg }

// LibraryPath returns the path the native library was loaded from, or an
// empty string for clients built with New.
func (c *Client) LibraryPath() string { return c.path }

// Convert is ConvertContext with a background context.
func (c *Client) Convert(text string) (string, error) {
	return c.ConvertContext(context.Background(), text)
}

// ConvertContext sends text to the engine and returns what the engine wrote.
//
// The text is encoded as UTF-8 plus NUL and the engine receives an output
// buffer of BufferFactor times that length. The whole buffer is decoded as
// UTF-8 unless TrimAtNUL is set, so an identity engine yields text followed
// by NUL padding.
//
// The call blocks until the engine returns. If ctx is done first the caller
// gets ctx's error while the foreign call finishes in the background with
// its own buffers.
func (c *Client) ConvertContext(ctx context.Context, text string) (string, error) {
	if c == nil {
		return "", opError("convert", ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return "", opError("convert", err)
	}

	if c.cfg.NormalizeInput {
		text = kana.Normalize(text)
	}
	input := encodeInput(text)
	n, ok := outputSize(len(input), c.cfg.BufferFactor)
	if !ok {
		return "", opError("convert", fmt.Errorf("%w: input of %d bytes exceeds the %d byte output limit",
			ErrInvalidParameter, len(input), maxOutputSize))
	}

	var out []byte
	// Buffers still held by a detached engine call are wiped by that call.
	detached := false
	if c.cfg.ZeroizeBuffers {
		defer func() {
			if !detached {
				wipe(input, out)
			}
		}()
	}

	for attempt := 1; ; attempt++ {
		if out != nil && c.cfg.ZeroizeBuffers {
			wipe(nil, out)
		}
		out = newOutput(n, c.cfg.GuardSize)
		c.logger.Debug(ctx, "request conversion",
			logging.Redacted("text"), logging.TextSize("text", text),
			"output_len", n, "attempt", attempt)

		var err error
		if detached, err = c.invoke(ctx, input, out); err != nil {
			return "", opError("convert", err)
		}
		if !guardIntact(out) {
			c.logger.Warn(ctx, "engine wrote past output buffer", "output_len", n, "guard", c.cfg.GuardSize)
			return "", opError("convert", fmt.Errorf("%w: declared %d bytes", ErrBufferOverrun, n))
		}
		if c.cfg.MaxAttempts <= 1 || terminated(out) {
			break
		}
		if attempt >= c.cfg.MaxAttempts {
			return "", opError("convert", fmt.Errorf("%w: no terminator in %d bytes after %d attempts", ErrTruncated, n, attempt))
		}
		if n > maxOutputSize/2 {
			return "", opError("convert", fmt.Errorf("%w: no terminator in %d bytes, output limit reached", ErrTruncated, n))
		}
		n *= 2
	}

	result, err := decodeOutput(out, c.cfg.TrimAtNUL)
	if err != nil {
		c.logger.Warn(ctx, "engine output is not UTF-8", "error", err)
		return "", opError("convert", err)
	}
	return result, nil
}

// wipe zeroes input and the whole of out, guard region included.
func wipe(input, out []byte) {
	ZeroizeBytes(input)
	ZeroizeBytes(out[:cap(out)])
}

// invoke runs one engine call under the client's locks. The locks are
// released when the engine returns, which can be after invoke itself has
// returned on ctx cancellation; detached is true in that case and the
// buffers belong to the running call, which wipes them before releasing the
// locks when ZeroizeBuffers is set.
func (c *Client) invoke(ctx context.Context, input, output []byte) (detached bool, err error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false, ErrClosed
	}

	var (
		stateMu   sync.Mutex
		finished  bool
		abandoned bool
	)
	run := func() error {
		defer c.mu.RUnlock()
		defer func() {
			stateMu.Lock()
			finished = true
			if abandoned && c.cfg.ZeroizeBuffers {
				wipe(input, output)
			}
			stateMu.Unlock()
		}()
		if !c.cfg.Concurrent {
			c.callMu.Lock()
			defer c.callMu.Unlock()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return c.engine.RequestConversion(ctx, input, output)
	}

	if ctx.Done() == nil {
		return false, run()
	}

	done := make(chan error, 1)
	go func() { done <- run() }()
	select {
	case err := <-done:
		return false, err
	case <-ctx.Done():
		stateMu.Lock()
		if finished {
			stateMu.Unlock()
			return false, <-done
		}
		abandoned = true
		stateMu.Unlock()
		return true, ctx.Err()
	}
}

// Close waits for in-flight calls and releases the engine. A second Close
// returns ErrClosed.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true

	err := c.engine.Close()
	if err != nil && !errors.Is(err, ErrClosed) {
		return opError("close", err)
	}
	c.logger.Info(context.Background(), "engine closed", "path", c.path)
	return nil
}
