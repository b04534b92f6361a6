package anco_test

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanakanji/anco-go/pkg/anco"
	"github.com/kanakanji/anco-go/pkg/anco/enginetest"
	"github.com/kanakanji/anco-go/pkg/anco/logging"
)

func newClient(t *testing.T, engine anco.Engine, cfg anco.Config) *anco.Client {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	client, err := anco.New(engine, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConvertEchoReturnsInputWithPadding(t *testing.T) {
	client := newClient(t, &enginetest.Echo{}, anco.Config{})

	inputs := []string{"a", "hello world", "にほんご", "カタカナ", "かなmixed123", "ー"}
	for _, s := range inputs {
		got, err := client.Convert(s)
		require.NoError(t, err, s)
		assert.Len(t, got, anco.BufferSize(s, anco.DefaultBufferFactor), s)
		assert.Equal(t, s, strings.TrimRight(got, "\x00"), s)
		assert.Empty(t, strings.Trim(got[len(s):], "\x00"), "tail must be NUL padding for %q", s)
	}
}

func TestConvertEmptyInput(t *testing.T) {
	client := newClient(t, &enginetest.Echo{}, anco.Config{})

	got, err := client.Convert("")
	require.NoError(t, err)
	assert.Equal(t, "\x00\x00", got)
	assert.Equal(t, 2, anco.BufferSize("", anco.DefaultBufferFactor))
}

func TestConvertSampleTable(t *testing.T) {
	client := newClient(t, enginetest.Sample(), anco.Config{TrimAtNUL: true})

	got, err := client.Convert("にほんご")
	require.NoError(t, err)
	assert.Equal(t, "日本語", got)

	got, err = client.Convert("あずーきーのへんかんえんじんがうごいた")
	require.NoError(t, err)
	assert.Equal(t, "Azooki(変換エンジン)が動いた", got)

	got, err = client.Convert("みち")
	require.NoError(t, err)
	assert.Equal(t, "みち", got)
}

func TestConvertGarbageTailIsEncodingError(t *testing.T) {
	client := newClient(t, &enginetest.GarbageTail{}, anco.Config{})

	_, err := client.Convert("かな")
	require.ErrorIs(t, err, anco.ErrEncoding)

	var encErr *anco.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, len("かな")+1, encErr.Offset)
	assert.Equal(t, anco.BufferSize("かな", 2), encErr.Len)
}

func TestConvertGarbageTailTrimmed(t *testing.T) {
	client := newClient(t, &enginetest.GarbageTail{}, anco.Config{TrimAtNUL: true})

	got, err := client.Convert("かな")
	require.NoError(t, err)
	assert.Equal(t, "かな", got)
}

func TestConvertDetectsOverrun(t *testing.T) {
	client := newClient(t, &enginetest.Overrun{Extra: 4}, anco.Config{})

	_, err := client.Convert("かな")
	require.ErrorIs(t, err, anco.ErrBufferOverrun)
}

func TestConvertWithoutGuardCannotDetectOverrun(t *testing.T) {
	engine := &enginetest.Overrun{Extra: 4}
	client := newClient(t, engine, anco.Config{GuardSize: -1, TrimAtNUL: true})

	got, err := client.Convert("かな")
	require.NoError(t, err)
	assert.Equal(t, "かな", got)
}

func TestConvertGrowsTruncatedOutput(t *testing.T) {
	engine := &enginetest.Repeat{Times: 3}
	client := newClient(t, engine, anco.Config{MaxAttempts: 3, TrimAtNUL: true})

	got, err := client.Convert("abc")
	require.NoError(t, err)
	assert.Equal(t, "abcabcabc", got)
	assert.Equal(t, 2, engine.Calls())
}

func TestConvertTruncatedWithoutRetry(t *testing.T) {
	engine := &enginetest.Repeat{Times: 3}
	client := newClient(t, engine, anco.Config{})

	got, err := client.Convert("abc")
	require.NoError(t, err)
	assert.Equal(t, "abcabcab", got)
	assert.Equal(t, 1, engine.Calls())
}

func TestConvertGiveUpAfterMaxAttempts(t *testing.T) {
	engine := &enginetest.Repeat{Times: 10}
	client := newClient(t, engine, anco.Config{MaxAttempts: 2})

	_, err := client.Convert("abc")
	require.ErrorIs(t, err, anco.ErrTruncated)
	assert.Equal(t, 2, engine.Calls())
}

func TestConvertNormalizeInput(t *testing.T) {
	client := newClient(t, &enginetest.Echo{}, anco.Config{NormalizeInput: true, TrimAtNUL: true})

	got, err := client.Convert("ｶﾅＡ")
	require.NoError(t, err)
	assert.Equal(t, "カナA", got)
}

func TestConvertZeroizeKeepsResult(t *testing.T) {
	client := newClient(t, enginetest.Sample(), anco.Config{ZeroizeBuffers: true, TrimAtNUL: true})

	got, err := client.Convert("にほんご")
	require.NoError(t, err)
	assert.Equal(t, "日本語", got)
}

// capturing records every buffer handed to the wrapped engine, guard
// region included.
type capturing struct {
	anco.Engine
	mu      sync.Mutex
	buffers [][]byte
}

func (c *capturing) RequestConversion(ctx context.Context, input, output []byte) error {
	c.mu.Lock()
	c.buffers = append(c.buffers, input, output[:cap(output)])
	c.mu.Unlock()
	return c.Engine.RequestConversion(ctx, input, output)
}

func (c *capturing) allZero() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, buf := range c.buffers {
		for _, b := range buf {
			if b != 0 {
				return false
			}
		}
	}
	return true
}

func TestConvertZeroizeWipesEveryBuffer(t *testing.T) {
	boom := errors.New("engine exploded")
	tests := []struct {
		name    string
		engine  anco.Engine
		cfg     anco.Config
		wantErr error
		calls   int
	}{
		{"success", enginetest.Sample(), anco.Config{TrimAtNUL: true}, nil, 1},
		{"grown on retry", &enginetest.Repeat{Times: 3}, anco.Config{MaxAttempts: 3}, nil, 2},
		{"truncated", &enginetest.Repeat{Times: 10}, anco.Config{MaxAttempts: 2}, anco.ErrTruncated, 2},
		{"overrun", &enginetest.Overrun{Extra: 8}, anco.Config{}, anco.ErrBufferOverrun, 1},
		{"encoding", &enginetest.GarbageTail{}, anco.Config{}, anco.ErrEncoding, 1},
		{"engine error", &enginetest.Failing{Err: boom}, anco.Config{}, boom, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &capturing{Engine: tt.engine}
			cfg := tt.cfg
			cfg.ZeroizeBuffers = true
			client := newClient(t, engine, cfg)

			_, err := client.Convert("secret")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.Len(t, engine.buffers, 2*tt.calls)
			assert.True(t, engine.allZero(), "buffers left after Convert")
		})
	}
}

func TestConvertZeroizeAfterCancelledCall(t *testing.T) {
	blocking := enginetest.NewBlocking()
	engine := &capturing{Engine: blocking}
	client := newClient(t, engine, anco.Config{ZeroizeBuffers: true})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := client.ConvertContext(ctx, "secret")
		errc <- err
	}()

	<-blocking.Entered
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	assert.False(t, engine.allZero(), "buffers wiped while the engine still runs")

	// Close waits for the abandoned call, which wipes before it returns.
	blocking.Unblock()
	require.NoError(t, client.Close())
	assert.True(t, engine.allZero(), "buffers left after the abandoned call")
}

func TestConvertWithoutZeroizeKeepsBuffers(t *testing.T) {
	engine := &capturing{Engine: &enginetest.Echo{}}
	client := newClient(t, engine, anco.Config{})

	_, err := client.Convert("secret")
	require.NoError(t, err)
	assert.False(t, engine.allZero())
}

func TestConvertEngineError(t *testing.T) {
	boom := errors.New("engine exploded")
	client := newClient(t, &enginetest.Failing{Err: boom}, anco.Config{})

	_, err := client.Convert("かな")
	require.ErrorIs(t, err, boom)

	var opErr *anco.Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "convert", opErr.Op)
}

func TestCloseLifecycle(t *testing.T) {
	engine := &enginetest.Echo{}
	client, err := anco.New(engine, anco.Config{Logger: logging.Discard()})
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.True(t, engine.Closed())
	assert.ErrorIs(t, client.Close(), anco.ErrClosed)

	_, err = client.Convert("かな")
	assert.ErrorIs(t, err, anco.ErrClosed)
	assert.Equal(t, 0, engine.Calls())

	var nilClient *anco.Client
	assert.NoError(t, nilClient.Close())
}

func TestNewValidation(t *testing.T) {
	_, err := anco.New(nil, anco.Config{})
	assert.ErrorIs(t, err, anco.ErrInvalidParameter)

	_, err = anco.New(&enginetest.Echo{}, anco.Config{BufferFactor: -1, MaxAttempts: -2})
	assert.ErrorIs(t, err, anco.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "buffer factor -1")
	assert.Contains(t, err.Error(), "max attempts -2")
}

func TestConfigDefaults(t *testing.T) {
	client := newClient(t, &enginetest.Echo{}, anco.Config{})
	cfg := client.Config()
	assert.Equal(t, anco.DefaultBufferFactor, cfg.BufferFactor)
	assert.Equal(t, anco.DefaultGuardSize, cfg.GuardSize)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Empty(t, client.LibraryPath())
}

func TestConvertCancelledBeforeCall(t *testing.T) {
	engine := &enginetest.Echo{}
	client := newClient(t, engine, anco.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ConvertContext(ctx, "かな")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, engine.Calls())
}

func TestConvertCancelledWhileEngineRuns(t *testing.T) {
	engine := enginetest.NewBlocking()
	client, err := anco.New(engine, anco.Config{Logger: logging.Discard()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := client.ConvertContext(ctx, "かな")
		errc <- err
	}()

	<-engine.Entered
	cancel()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("ConvertContext did not return after cancel")
	}

	closed := make(chan error, 1)
	go func() { closed <- client.Close() }()
	select {
	case <-closed:
		t.Fatal("Close returned while the engine call was still running")
	case <-time.After(50 * time.Millisecond):
	}

	engine.Unblock()
	require.NoError(t, <-closed)
	assert.True(t, engine.Closed())
}

func TestConvertSerializedByDefault(t *testing.T) {
	engine := enginetest.NewBlocking()
	client := newClient(t, engine, anco.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Convert("かな")
		}()
	}

	<-engine.Entered
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, engine.MaxInFlight())

	engine.Unblock()
	wg.Wait()
	assert.Equal(t, 4, engine.Calls())
	assert.Equal(t, 1, engine.MaxInFlight())
}

func TestConvertConcurrentWhenAllowed(t *testing.T) {
	engine := enginetest.NewBlocking()
	client := newClient(t, engine, anco.Config{Concurrent: true})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Convert("かな")
		}()
	}

	require.Eventually(t, func() bool { return engine.MaxInFlight() == 3 },
		5*time.Second, 5*time.Millisecond)
	engine.Unblock()
	wg.Wait()
}

func TestOpenMissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), anco.DefaultLibraryName())
	client, err := anco.Open(anco.Config{LibraryPath: path, Logger: logging.Discard()})
	require.ErrorIs(t, err, anco.ErrLibraryLoad)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Nil(t, client)
}

func TestResolveLibraryPath(t *testing.T) {
	t.Setenv(anco.EnvLibraryPath, "")
	assert.Equal(t, anco.DefaultLibraryName(), anco.ResolveLibraryPath(anco.Config{}))

	t.Setenv(anco.EnvLibraryPath, "/opt/anco/libanco.so")
	assert.Equal(t, "/opt/anco/libanco.so", anco.ResolveLibraryPath(anco.Config{}))
	assert.Equal(t, "/other/libanco.so", anco.ResolveLibraryPath(anco.Config{LibraryPath: "/other/libanco.so"}))
}
