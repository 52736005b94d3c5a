// Command hostctl inspects component manifests, publishes them to the
// manifest repository and maintains the installed-component catalog.
//
// Configuration comes from REMOTEHOST_* environment variables; see
// internal/config.
package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var (
	version  = "dev"
	exitFunc = os.Exit
)

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr, nil))
}

// cli runs hostctl with args. environ replaces the process environment when
// non-nil.
func cli(args []string, stdout, stderr io.Writer, environ map[string]string) int {
	root := newRootCmd(&app{stdout: stdout, stderr: stderr, environ: environ})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if isUsage(err) {
			return exitUsage
		}
		return exitError
	}
	return exitOK
}
