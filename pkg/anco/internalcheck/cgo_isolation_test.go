package internalcheck

import (
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const (
	modulePath     = "github.com/kanakanji/anco-go"
	backendPackage = modulePath + "/pkg/anco/internal/backend"
)

func TestOnlyBackendImportsC(t *testing.T) {
	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles,
		Tests: true,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var findings []string
	seen := map[string]bool{}
	fset := token.NewFileSet()
	for _, pkg := range pkgs {
		if pkg.PkgPath == backendPackage {
			continue
		}
		// GoFiles covers the current build, IgnoredFiles the other build
		// variants.
		files := append(append([]string{}, pkg.GoFiles...), pkg.IgnoredFiles...)
		for _, name := range files {
			if seen[name] || !strings.HasSuffix(name, ".go") {
				continue
			}
			seen[name] = true

			f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", name, err)
			}
			for _, imp := range f.Imports {
				if path, _ := strconv.Unquote(imp.Path.Value); path == "C" {
					findings = append(findings, fset.Position(imp.Pos()).String())
				}
			}
		}
	}

	if len(findings) > 0 {
		t.Fatalf("cgo outside %s:\n%s", backendPackage, strings.Join(findings, "\n"))
	}
	if len(seen) == 0 {
		t.Fatal("no files inspected")
	}
}
