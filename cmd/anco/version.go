package main

import (
	"fmt"

	"github.com/kanakanji/anco-go/internal/config"
	"github.com/kanakanji/anco-go/pkg/anco"
)

// VersionCmd prints the wrapper version and where the engine would be
// loaded from. It does not load the engine.
type VersionCmd struct {
	app *app
}

func (c *VersionCmd) Execute(_ []string) error {
	cfg, err := c.app.loadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.out, "anco-go %s\n", anco.WrapperVersion())
	if cfg.Engine == config.EngineWasm {
		fmt.Fprintf(c.app.out, "engine: wasm %s\n", cfg.WasmURL)
		return nil
	}
	fmt.Fprintf(c.app.out, "engine: native %s\n", anco.ResolveLibraryPath(cfg.ClientConfig()))
	return nil
}
