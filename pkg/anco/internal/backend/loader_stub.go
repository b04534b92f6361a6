//go:build !cgo && !windows

package backend

// Library is unavailable without cgo.
type Library struct{}

// Open always fails with ErrCGONotEnabled in non-cgo builds.
func Open(string) (*Library, error) {
	return nil, ErrCGONotEnabled
}

// Path returns an empty string.
func (l *Library) Path() string { return "" }

// Call always fails with ErrCGONotEnabled.
func (l *Library) Call([]byte, []byte) error {
	return ErrCGONotEnabled
}

// Close is a no-op.
func (l *Library) Close() error { return nil }
