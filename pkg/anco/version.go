package anco

// Version is the wrapper version, populated at build time via
//
//	-ldflags "-X github.com/kanakanji/anco-go/pkg/anco.Version=v1.2.3"
var Version = "v0.0.0-in-progress"

// WrapperVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}
