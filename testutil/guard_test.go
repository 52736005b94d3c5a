package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		in      string
		outside bool
	}{
		{"remotehost/internal/host", true},
		{"remotehost/pkg/hostapi", false},
		{"remotehost/pkg/hostapi/v1", false},
		{"remotehost/pkg/hostapisomething", true},
		{"remotehost/cmd/hostctl", true},
		{"remotehost", true},
		{"remotehostile/x", false},
		{"github.com/x/y/internal/z", false},
		{"fmt", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.outside, OutsideHostAPI(tc.in))
		})
	}
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600))
	}
	write("a.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"remotehost/internal/host\"\n)\nvar _ = fmt.Sprint\nvar _ host.State\n")
	write("a_test.go", "package tmp\nimport \"remotehost/internal/catalog\"\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o750))

	viols, err := directImportViolations(dir, OutsideHostAPI)
	require.NoError(t, err)
	assert.Equal(t, []string{"remotehost/internal/host (in a.go)"}, viols)

	var r recorder
	failIfViolations(&r, "direct import", "components", viols)
	assert.Contains(t, r.msg, "forbidden direct import detected (components)")

	r = recorder{}
	failIfViolations(&r, "direct import", "none", nil)
	assert.Empty(t, r.msg)
}

func TestAssertNoDirectImportsAllowsClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte("package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }\n"), 0o600))
	AssertNoDirectImports(t, dir, OutsideHostAPI, "none")
}

func TestHostAPIHasNoHostDependency(t *testing.T) {
	AssertNoTransitiveDependency(t, "..", "./pkg/hostapi/...", OutsideHostAPI, "the component API must not pull in the host")
}
