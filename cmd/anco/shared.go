package main

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kanakanji/anco-go/internal/config"
	"github.com/kanakanji/anco-go/pkg/anco"
	"github.com/kanakanji/anco-go/pkg/anco/logging"
	"github.com/kanakanji/anco-go/pkg/anco/wasmengine"
)

type clientFactory func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*anco.Client, error)

// app carries what sub-commands share: the global options, the I/O streams
// and the lazily built logger.
type app struct {
	streams
	opts *Options

	newClient clientFactory
	zap       *zap.Logger
}

func newApp(s streams, newClient clientFactory) *app {
	return &app{streams: s, newClient: newClient}
}

func (a *app) close() {
	if a.zap != nil {
		_ = a.zap.Sync()
	}
}

func (a *app) logger() logging.Logger {
	if a.zap == nil {
		a.zap = newZapLogger(a.opts.Verbose, a.err)
	}
	return logging.NewZap(a.zap)
}

// loadConfig reads the -f file (if any) and applies the engine flags on top.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.opts.Config)
	if err != nil {
		return nil, err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) applyFlags(cfg *config.Config) {
	if a.opts.Library != "" {
		cfg.Engine = config.EngineNative
		cfg.LibraryPath = a.opts.Library
	}
	if a.opts.Wasm != "" {
		cfg.Engine = config.EngineWasm
		cfg.WasmURL = a.opts.Wasm
	}
}

func (a *app) client(ctx context.Context, cfg *config.Config) (*anco.Client, error) {
	return a.newClient(ctx, cfg, a.logger())
}

func openClient(ctx context.Context, cfg *config.Config, logger logging.Logger) (*anco.Client, error) {
	cc := cfg.ClientConfig()
	cc.Logger = logger

	if cfg.Engine != config.EngineWasm {
		return anco.Open(cc)
	}

	engine, err := wasmengine.Open(ctx, cfg.WasmURL, wasmengine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	client, err := anco.New(engine, cc)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	return client, nil
}

// newZapLogger writes console-formatted debug logs when verbose, JSON
// warnings and errors otherwise.
func newZapLogger(verbose bool, w io.Writer) *zap.Logger {
	sink := zapcore.Lock(zapcore.AddSync(w))
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, sink, zapcore.DebugLevel), zap.Development())
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, sink, zapcore.WarnLevel))
}
