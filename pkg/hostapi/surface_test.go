package hostapi

// The aggregated surface must re-export every exported name of the latest
// generation and of the shared vocabulary, and type names must be true
// aliases so values flow between the packages without conversion.

import (
	"go/types" //nolint:depguard // reflective inspection of the exported surface
	"sort"
	"testing"

	"golang.org/x/tools/go/packages" //nolint:depguard // test-time package loading
)

func loadSurface(t *testing.T) map[string]*packages.Package {
	t.Helper()
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles}
	pkgs, err := packages.Load(cfg, ".", "./v1", "./common")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("packages load errors present")
	}
	out := make(map[string]*packages.Package, len(pkgs))
	for _, p := range pkgs {
		out[p.Name] = p
	}
	for _, name := range []string{"hostapi", "v1", "common"} {
		if out[name] == nil {
			t.Fatalf("package %s not loaded", name)
		}
	}
	return out
}

func exportedNames(scope *types.Scope) []string {
	var names []string
	for _, name := range scope.Names() {
		if scope.Lookup(name).Exported() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func TestAggregatedSurfaceReexportsEverything(t *testing.T) {
	pkgs := loadSurface(t)
	agg := pkgs["hostapi"].Types.Scope()
	for _, src := range []string{"v1", "common"} {
		scope := pkgs[src].Types.Scope()
		for _, name := range exportedNames(scope) {
			got := agg.Lookup(name)
			if got == nil {
				t.Errorf("hostapi does not re-export %s.%s", src, name)
				continue
			}
			want := scope.Lookup(name)
			wantTN, ok := want.(*types.TypeName)
			if !ok {
				continue
			}
			gotTN, ok := got.(*types.TypeName)
			if !ok {
				t.Errorf("hostapi.%s is not a type", name)
				continue
			}
			if !gotTN.IsAlias() {
				t.Errorf("hostapi.%s is a new type, want an alias of %s.%s", name, src, name)
				continue
			}
			if wantTN.Type().(*types.Named).TypeParams().Len() > 0 {
				continue
			}
			if !types.Identical(gotTN.Type(), wantTN.Type()) {
				t.Errorf("hostapi.%s is not identical to %s.%s", name, src, name)
			}
		}
	}
}

func TestAggregatedSurfaceAddsNothing(t *testing.T) {
	pkgs := loadSurface(t)
	v1Scope := pkgs["v1"].Types.Scope()
	commonScope := pkgs["common"].Types.Scope()
	for _, name := range exportedNames(pkgs["hostapi"].Types.Scope()) {
		if v1Scope.Lookup(name) == nil && commonScope.Lookup(name) == nil {
			t.Errorf("hostapi.%s has no counterpart in v1 or common", name)
		}
	}
}
