package config

import (
	"fmt"
	"strings"

	"github.com/kanakanji/anco-go/pkg/anco"
)

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks c and returns ValidationErrors listing every problem.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch c.Engine {
	case EngineNative:
	case EngineWasm:
		if c.WasmURL == "" {
			add("wasm_url", "required when engine is %q", EngineWasm)
		}
	default:
		add("engine", "must be %q or %q, got %q", EngineNative, EngineWasm, c.Engine)
	}

	if c.BufferFactor < 1 || c.BufferFactor > anco.MaxBufferFactor {
		add("buffer_factor", "must be between 1 and %d, got %d", anco.MaxBufferFactor, c.BufferFactor)
	}
	if c.GuardSize > anco.MaxGuardSize {
		add("guard_size", "must be at most %d, got %d", anco.MaxGuardSize, c.GuardSize)
	}
	if c.MaxAttempts < 0 {
		add("max_attempts", "must not be negative, got %d", c.MaxAttempts)
	}
	if _, ok := CanonicalEncoding(c.InputEncoding); !ok {
		add("input_encoding", "unsupported %q (want one of %s)", c.InputEncoding, strings.Join(SupportedEncodings, ", "))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
