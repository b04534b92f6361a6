// Package internalcheck holds repository policy tests that inspect the
// package graph with golang.org/x/tools/go/packages:
//
//   - only pkg/anco/internal/backend may import "C";
//   - packages that handle conversion buffers never hex-format them, since
//     the bytes are user input.
//
// It has no non-test code and is not meant to be imported.
package internalcheck
