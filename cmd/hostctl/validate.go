package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"remotehost/internal/manifest"
)

type validation struct {
	File     string              `json:"file"`
	Key      string              `json:"key,omitempty"`
	Valid    bool                `json:"valid"`
	Error    string              `json:"error,omitempty"`
	Loadable []manifest.Loadable `json:"loadable,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest>...",
		Short: "Validate manifest files and list their loadable controls",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, files []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			results := make([]validation, 0, len(files))
			failed := 0
			for _, f := range files {
				r := validateFile(f, cfg.Constraint())
				if !r.Valid {
					failed++
				}
				results = append(results, r)
			}
			if err := a.printValidations(results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d manifests invalid", failed, len(files))
			}
			return nil
		},
	}
}

func validateFile(path, constraint string) validation {
	r := validation{File: path}
	m, err := manifest.DecodeFile(path)
	if err == nil {
		r.Key = m.Key()
		err = errors.Join(manifest.Validate(m), manifest.Compatible(m, constraint))
	}
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Valid = true
	r.Loadable, r.Warnings = manifest.Resolve(m)
	return r
}

func (a *app) printValidations(results []validation) error {
	if a.jsonMode {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, r := range results {
		if !r.Valid {
			fmt.Fprintf(tw, "FAIL\t%s\t%s\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(tw, "OK\t%s\t%s\n", r.File, r.Key)
		for _, l := range r.Loadable {
			fmt.Fprintf(tw, "\t%s\t%s (%s) loader %s\n", l.Scope, l.ControlName, l.ControlID, l.Loader)
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(a.stderr, "warning: %s: %s\n", r.File, w)
		}
	}
	return tw.Flush()
}
