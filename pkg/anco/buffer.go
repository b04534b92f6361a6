package anco

import (
	"bytes"
	"unicode/utf8"
)

// guardByte fills the overrun guard. Engines write UTF-8 or NUL, neither of
// which produces 0xA5 at a sequence start.
const guardByte = 0xA5

// BufferSize returns the output length used for text: factor times the UTF-8
// length plus the NUL terminator. A factor below one is treated as one.
func BufferSize(text string, factor int) int {
	if factor < 1 {
		factor = 1
	}
	return factor * (len(text) + 1)
}

// maxOutputSize is MaxOutputSize; tests lower it.
var maxOutputSize = MaxOutputSize

// outputSize returns factor times inLen, or false when that exceeds
// maxOutputSize.
func outputSize(inLen, factor int) (int, bool) {
	if factor < 1 {
		factor = 1
	}
	if inLen > maxOutputSize/factor {
		return 0, false
	}
	return factor * inLen, true
}

// encodeInput returns text as UTF-8 with a trailing NUL.
func encodeInput(text string) []byte {
	input := make([]byte, len(text)+1)
	copy(input, text)
	return input
}

// newOutput allocates n bytes for the engine plus guard canary bytes. The
// returned slice has length n and capacity n+guard.
func newOutput(n, guard int) []byte {
	buf := make([]byte, n+guard)
	for i := n; i < len(buf); i++ {
		buf[i] = guardByte
	}
	return buf[:n]
}

// guardIntact reports whether the bytes between len(out) and cap(out) still
// hold the canary.
func guardIntact(out []byte) bool {
	for _, b := range out[len(out):cap(out)] {
		if b != guardByte {
			return false
		}
	}
	return true
}

func terminated(out []byte) bool {
	return bytes.IndexByte(out, 0) >= 0
}

// decodeOutput turns the engine output into a string. Without trim the whole
// buffer is decoded, NUL padding included.
func decodeOutput(out []byte, trim bool) (string, error) {
	if trim {
		if i := bytes.IndexByte(out, 0); i >= 0 {
			out = out[:i]
		}
	}
	if !utf8.Valid(out) {
		return "", &EncodingError{Offset: invalidOffset(out), Len: len(out)}
	}
	return string(out), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
