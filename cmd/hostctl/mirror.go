package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"remotehost/pkg/hostapi"
)

func newMirrorCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Print the enumeration mirrors shared with script hosts",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			switch format {
			case "json":
				out := make(map[string]hostapi.Mirror)
				for _, m := range hostapi.Mirrors() {
					out[m.Name()] = m
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "js":
				return hostapi.WriteJSModule(a.stdout)
			default:
				return usageError{fmt.Errorf("unknown format %q (want json or js)", format)}
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or js")
	return cmd
}
