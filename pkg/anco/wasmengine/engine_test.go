package wasmengine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/kanakanji/anco-go/pkg/anco"
	"github.com/kanakanji/anco-go/pkg/anco/logging"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func newEngine(t *testing.T, name string) *Engine {
	t.Helper()
	engine, err := New(context.Background(), readFixture(t, name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestRequestConversionEchoes(t *testing.T) {
	engine := newEngine(t, "echo.wasm")

	input := append([]byte("にほんご"), 0)
	output := make([]byte, 2*len(input))
	require.NoError(t, engine.RequestConversion(context.Background(), input, output))

	assert.True(t, bytes.HasPrefix(output, input))
	assert.Equal(t, make([]byte, len(output)-len(input)), output[len(input):])
}

func TestRequestConversionCopiesGuardBack(t *testing.T) {
	engine := newEngine(t, "overrun.wasm")

	input := []byte("a\x00")
	buf := bytes.Repeat([]byte{0xA5}, 8)
	output := buf[:4]
	require.NoError(t, engine.RequestConversion(context.Background(), input, output))

	assert.Equal(t, []byte("a\x00"), output[:2])
	assert.Equal(t, byte('*'), buf[4], "byte written at out+len must reach the caller")
	assert.Equal(t, byte(0xA5), buf[5])
}

func TestClientOverWasm(t *testing.T) {
	client, err := anco.New(newEngine(t, "echo.wasm"), anco.Config{Logger: logging.Discard()})
	require.NoError(t, err)

	got, err := client.Convert("かな")
	require.NoError(t, err)
	assert.Len(t, got, anco.BufferSize("かな", 2))
	assert.Equal(t, "かな", strings.TrimRight(got, "\x00"))

	got, err = client.Convert("")
	require.NoError(t, err)
	assert.Equal(t, "\x00\x00", got)
}

func TestClientDetectsWasmOverrun(t *testing.T) {
	client, err := anco.New(newEngine(t, "overrun.wasm"), anco.Config{Logger: logging.Discard()})
	require.NoError(t, err)

	_, err = client.Convert("かな")
	require.ErrorIs(t, err, anco.ErrBufferOverrun)
}

func TestNewRejectsMissingExport(t *testing.T) {
	_, err := New(context.Background(), readFixture(t, "noentry.wasm"))
	require.ErrorIs(t, err, anco.ErrSymbolResolution)
	assert.Contains(t, err.Error(), exportConvert)
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New(context.Background(), []byte("not a wasm module"))
	require.ErrorIs(t, err, anco.ErrLibraryLoad)
}

func TestOpenFromMemURL(t *testing.T) {
	ctx := context.Background()
	url := "mem://localhost/engines/echo.wasm"
	fs := afs.New()
	require.NoError(t, fs.Upload(ctx, url, 0o644, bytes.NewReader(readFixture(t, "echo.wasm"))))

	engine, err := Open(ctx, url, WithLogger(logging.Discard()), WithMemoryLimitPages(16))
	require.NoError(t, err)
	defer engine.Close()

	output := make([]byte, 4)
	require.NoError(t, engine.RequestConversion(ctx, []byte("a\x00"), output))
	assert.Equal(t, []byte("a\x00\x00\x00"), output)
}

func TestOpenFromFileURL(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("testdata", "echo.wasm"))
	require.NoError(t, err)

	engine, err := Open(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	require.NoError(t, engine.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), "mem://localhost/engines/missing.wasm")
	require.ErrorIs(t, err, anco.ErrLibraryLoad)
}

func TestReinstantiateAfterModuleClosed(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, "echo.wasm")
	require.NoError(t, engine.mod.Close(ctx))

	output := make([]byte, 4)
	require.NoError(t, engine.RequestConversion(ctx, []byte("a\x00"), output))
	assert.Equal(t, byte('a'), output[0])
	assert.False(t, engine.mod.IsClosed())
}

func TestCloseEngine(t *testing.T) {
	engine, err := New(context.Background(), readFixture(t, "echo.wasm"))
	require.NoError(t, err)

	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())
	err = engine.RequestConversion(context.Background(), []byte{0}, make([]byte, 2))
	assert.ErrorIs(t, err, anco.ErrClosed)
}
