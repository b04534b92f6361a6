package anco

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/kanakanji/anco-go/pkg/anco/logging"
)

const (
	// EnvLibraryPath names the environment variable consulted when
	// Config.LibraryPath is empty.
	EnvLibraryPath = "ANCO_LIBRARY_PATH"

	// DefaultBufferFactor sizes the output buffer at twice the encoded
	// input, NUL included.
	DefaultBufferFactor = 2

	// DefaultGuardSize is the number of canary bytes placed after the
	// declared output length.
	DefaultGuardSize = 64

	// MaxBufferFactor and MaxGuardSize bound the corresponding Config
	// fields.
	MaxBufferFactor = 1 << 10
	MaxGuardSize    = 1 << 20

	// MaxOutputSize caps the output length handed to the engine, guard
	// excluded. Inputs that would need more fail with ErrInvalidParameter
	// and growth on retry stops there with ErrTruncated.
	MaxOutputSize = 1 << 30
)

// Config expresses the knobs of a Client. The zero value is usable: the
// library is found through $ANCO_LIBRARY_PATH or the platform default name,
// calls are serialized and the output is decoded whole.
type Config struct {
	// LibraryPath locates the engine shared library. A bare file name is
	// resolved by the platform loader's search path.
	LibraryPath string

	// BufferFactor multiplies the encoded input length (NUL included) to get
	// the output buffer length. Zero means DefaultBufferFactor.
	BufferFactor int

	// GuardSize is the number of canary bytes allocated past the output
	// buffer. Zero means DefaultGuardSize; a negative value disables the
	// guard.
	GuardSize int

	// MaxAttempts bounds the grow-and-retry loop. With a value above one an
	// output without NUL terminator is retried with a doubled buffer.
	MaxAttempts int

	// TrimAtNUL cuts the decoded result at the first NUL byte instead of
	// returning the whole buffer.
	TrimAtNUL bool

	// NormalizeInput folds half-width katakana and full-width ASCII before
	// the text is encoded.
	NormalizeInput bool

	// Concurrent lets calls enter the engine in parallel. Leave it false
	// unless the engine is known to be reentrant.
	Concurrent bool

	// ZeroizeBuffers wipes the encoded input and every output buffer of a
	// call, guard included, before Convert returns. Buffers of a call
	// abandoned on ctx cancellation are wiped when the engine returns.
	ZeroizeBuffers bool

	// Logger receives client events. Nil means logging.New(nil).
	Logger logging.Logger
}

func (c Config) withDefaults() Config {
	if c.BufferFactor == 0 {
		c.BufferFactor = DefaultBufferFactor
	}
	if c.GuardSize == 0 {
		c.GuardSize = DefaultGuardSize
	}
	if c.GuardSize < 0 {
		c.GuardSize = 0
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 1
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	return c
}

func (c Config) validate() error {
	var errs []error
	if c.BufferFactor < 1 || c.BufferFactor > MaxBufferFactor {
		errs = append(errs, fmt.Errorf("%w: buffer factor %d (want 1..%d)", ErrInvalidParameter, c.BufferFactor, MaxBufferFactor))
	}
	if c.GuardSize > MaxGuardSize {
		errs = append(errs, fmt.Errorf("%w: guard size %d (max %d)", ErrInvalidParameter, c.GuardSize, MaxGuardSize))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: max attempts %d", ErrInvalidParameter, c.MaxAttempts))
	}
	return errors.Join(errs...)
}

// DefaultLibraryName returns the engine library file name for the running
// platform.
func DefaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin", "ios":
		return "libanco.dylib"
	case "windows":
		return "anco.dll"
	default:
		return "libanco.so"
	}
}

// ResolveLibraryPath applies the lookup order used by Open: the configured
// path, then $ANCO_LIBRARY_PATH, then DefaultLibraryName.
func ResolveLibraryPath(cfg Config) string {
	if cfg.LibraryPath != "" {
		return cfg.LibraryPath
	}
	if p := os.Getenv(EnvLibraryPath); p != "" {
		return p
	}
	return DefaultLibraryName()
}
