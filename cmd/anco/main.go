// Command anco drives the anco conversion engine from the command line.
//
// Subcommands: convert, session, evaluate and version. Engine and buffer
// settings come from a TOML/YAML/JSON file given with -f, the ANCO_*
// environment variables and the --library/--wasm flags, in increasing order
// of precedence.
package main

import (
	"os"
)

func main() {
	os.Exit(Run(os.Args[1:], defaultStreams()))
}
