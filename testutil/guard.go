// Package testutil holds test helpers that enforce the import boundary
// between remote components and the host implementation.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Module is the import path prefix of this repository.
const Module = "remotehost"

// HostAPI is the only package tree of this module a component may import.
const HostAPI = Module + "/pkg/hostapi"

// AssertNoDirectImports parses the non-test .go files in dir and fails when an
// import path satisfies forbidden. Build tags are not evaluated.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, "direct import", reason, viols)
}

// AssertNoTransitiveDependency loads pattern relative to dir and fails when
// any package in its dependency graph satisfies forbidden.
func AssertNoTransitiveDependency(t testing.TB, dir, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	deps, err := loadDeps(dir, pattern)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	var viols []string
	for _, p := range deps {
		if forbidden(p) {
			viols = append(viols, p)
		}
	}
	failIfViolations(t, "transitive dependency", reason, viols)
}

// OutsideHostAPI matches packages of this module other than the hostapi
// tree. Standard library and third-party paths never match.
func OutsideHostAPI(path string) bool {
	if path != Module && !strings.HasPrefix(path, Module+"/") {
		return false
	}
	return path != HostAPI && !strings.HasPrefix(path, HostAPI+"/")
}

func loadDeps(dir, pattern string) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps, Dir: dir}
	roots, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	packages.Visit(roots, nil, func(p *packages.Package) {
		for path := range p.Imports {
			seen[path] = true
		}
	})
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			ip := strings.Trim(imp.Path.Value, `"`)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, kind, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden %s detected (%s):\n%s", kind, reason, strings.Join(viols, "\n"))
	}
}
