package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"remotehost/testutil"
)

// TestPluginsUseHostAPIOnly walks every plugin package and rejects direct
// imports of this module outside pkg/hostapi. Test files may use the host to
// mount the plugin.
func TestPluginsUseHostAPIOnly(t *testing.T) {
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("read plugins dir: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(".", e.Name())
		t.Run(e.Name(), func(t *testing.T) {
			testutil.AssertNoDirectImports(t, dir, testutil.OutsideHostAPI, "plugins depend on pkg/hostapi only")
			testutil.AssertNoTransitiveDependency(t, dir, ".", testutil.OutsideHostAPI, "plugins must not reach the host through another package")
		})
	}
}
