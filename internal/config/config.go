// Package config loads the anco CLI configuration from TOML, YAML or JSON
// files, applies environment overrides and can hot-reload on change.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kanakanji/anco-go/pkg/anco"
)

// Engine kinds.
const (
	EngineNative = "native"
	EngineWasm   = "wasm"
)

// Environment variables consulted by ApplyEnvOverrides.
const (
	EnvLibraryPath  = anco.EnvLibraryPath
	EnvWasmURL      = "ANCO_WASM_URL"
	EnvBufferFactor = "ANCO_BUFFER_FACTOR"
)

// SupportedEncodings lists the canonical input_encoding values understood by
// the CLI.
var SupportedEncodings = []string{"utf-8", "shift_jis", "euc-jp", "iso-2022-jp"}

var encodingAliases = map[string]string{
	"":            "utf-8",
	"utf-8":       "utf-8",
	"utf8":        "utf-8",
	"shift_jis":   "shift_jis",
	"shift-jis":   "shift_jis",
	"sjis":        "shift_jis",
	"euc-jp":      "euc-jp",
	"eucjp":       "euc-jp",
	"iso-2022-jp": "iso-2022-jp",
}

// CanonicalEncoding maps an encoding name or alias, case-insensitively, to
// one of SupportedEncodings. The empty name is UTF-8.
func CanonicalEncoding(name string) (string, bool) {
	canonical, ok := encodingAliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// Config is the on-disk configuration of the CLI.
type Config struct {
	Engine      string `toml:"engine" yaml:"engine" json:"engine"`
	LibraryPath string `toml:"library_path" yaml:"library_path" json:"library_path"`
	WasmURL     string `toml:"wasm_url" yaml:"wasm_url" json:"wasm_url"`

	BufferFactor int `toml:"buffer_factor" yaml:"buffer_factor" json:"buffer_factor"`
	GuardSize    int `toml:"guard_size" yaml:"guard_size" json:"guard_size"`
	MaxAttempts  int `toml:"max_attempts" yaml:"max_attempts" json:"max_attempts"`

	TrimAtNUL      bool `toml:"trim_at_nul" yaml:"trim_at_nul" json:"trim_at_nul"`
	NormalizeInput bool `toml:"normalize_input" yaml:"normalize_input" json:"normalize_input"`
	Concurrent     bool `toml:"concurrent" yaml:"concurrent" json:"concurrent"`
	ZeroizeBuffers bool `toml:"zeroize_buffers" yaml:"zeroize_buffers" json:"zeroize_buffers"`

	InputEncoding string `toml:"input_encoding" yaml:"input_encoding" json:"input_encoding"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine:        EngineNative,
		BufferFactor:  anco.DefaultBufferFactor,
		GuardSize:     anco.DefaultGuardSize,
		MaxAttempts:   1,
		TrimAtNUL:     true,
		InputEncoding: "utf-8",
	}
}

// ApplyEnvOverrides replaces fields with the values of the ANCO_*
// environment variables that are set.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvLibraryPath); v != "" {
		c.LibraryPath = v
	}
	if v := os.Getenv(EnvWasmURL); v != "" {
		c.WasmURL = v
		c.Engine = EngineWasm
	}
	if v := os.Getenv(EnvBufferFactor); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvBufferFactor, err)
		}
		c.BufferFactor = n
	}
	return nil
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ClientConfig maps c onto the client options. The caller sets the logger.
func (c *Config) ClientConfig() anco.Config {
	return anco.Config{
		LibraryPath:    c.LibraryPath,
		BufferFactor:   c.BufferFactor,
		GuardSize:      c.GuardSize,
		MaxAttempts:    c.MaxAttempts,
		TrimAtNUL:      c.TrimAtNUL,
		NormalizeInput: c.NormalizeInput,
		Concurrent:     c.Concurrent,
		ZeroizeBuffers: c.ZeroizeBuffers,
	}
}
