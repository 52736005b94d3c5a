package main

import (
	"bytes"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"remotehost/internal/manifest"
	"remotehost/pkg/hostapi"
)

// publishKey is where a manifest is stored in the repository:
// <prefix>/<vendor>/<component>/<version>.<format>.
func publishKey(prefix string, m hostapi.ComponentMetadata, format manifest.Format) string {
	return path.Join(prefix, m.VendorName, m.ComponentName, m.ComponentVersion) + "." + string(format)
}

func newPublishCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "publish <manifest>...",
		Short: "Validate manifests and upload them to the manifest repository",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			ctx := cmd.Context()
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log := a.logger(cfg)
			store, err := a.openBlobs(ctx, cfg)
			if err != nil {
				return err
			}
			var errs []error
			for _, f := range files {
				m, err := manifest.DecodeFile(f)
				if err == nil {
					err = errors.Join(manifest.Validate(m), manifest.Compatible(m, cfg.Constraint()))
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f, err))
					continue
				}
				format := manifest.FormatForPath(f)
				var buf bytes.Buffer
				if err := manifest.Encode(&buf, m, format); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f, err))
					continue
				}
				key := publishKey(prefix, m, format)
				info, err := store.Put(ctx, key, &buf)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f, err))
					continue
				}
				log.Info("Published {Component} to {Key}", m.Key(), info.Key)
				fmt.Fprintf(a.stdout, "%s\t%s\n", info.Key, info.ETag)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "repository key prefix, for example components/")
	return cmd
}
