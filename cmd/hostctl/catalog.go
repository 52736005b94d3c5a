package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"remotehost/internal/catalog"
	"remotehost/internal/host"
	"remotehost/internal/manifest"
	"remotehost/pkg/hostapi"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and update the installed-component catalog",
	}
	cmd.AddCommand(newCatalogImportCmd(a), newCatalogRegisterCmd(a), newCatalogListCmd(a), newCatalogRemoveCmd(a))
	return cmd
}

func newCatalogImportCmd(a *app) *cobra.Command {
	var (
		prefix      string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import manifests from the repository into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := a.config()
			if err != nil {
				return err
			}
			blobs, err := a.openBlobs(ctx, cfg)
			if err != nil {
				return err
			}
			store, err := a.openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			im := &catalog.Importer{
				Blobs:       blobs,
				Catalog:     store,
				Constraint:  cfg.Constraint(),
				Concurrency: concurrency,
				Logger:      a.logger(cfg),
			}
			report, importErr := im.Import(ctx, prefix)
			if a.jsonMode {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(a.stdout, "imported %d, unchanged %d, failed %d\n",
					len(report.Imported), len(report.Unchanged), len(report.Failed))
			}
			return importErr
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "only import keys under this prefix")
	cmd.Flags().IntVar(&concurrency, "concurrency", catalog.DefaultImportConcurrency, "parallel document fetches")
	return cmd
}

func newCatalogRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <manifest>...",
		Short: "Register local manifests with the host and record them in the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) (err error) {
			ctx := cmd.Context()
			cfg, err := a.config()
			if err != nil {
				return err
			}
			h, err := host.FromConfig(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, h.Close(ctx)) }()
			var errs []error
			for _, f := range files {
				m, err := manifest.DecodeFile(f)
				if err == nil {
					err = h.RegisterBundle(ctx, hostapi.NewBundle(m))
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", f, err))
					continue
				}
				fmt.Fprintf(a.stdout, "registered %s\n", m.Key())
			}
			return errors.Join(errs...)
		},
	}
}

func newCatalogListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store, err := a.openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			recs, err := store.List(ctx)
			if err != nil {
				return err
			}
			if a.jsonMode {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tCONTROLS\tSOURCE\tINSTALLED")
			for _, r := range recs {
				names := make([]string, 0, len(r.Manifest.Controls))
				for _, c := range r.Manifest.Controls {
					names = append(names, c.Name)
				}
				source := r.Source
				if source == "" {
					source = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key, strings.Join(names, ","), source, r.InstalledAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newCatalogRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <vendor/component@version>",
		Short: "Remove a record from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.config()
			if err != nil {
				return err
			}
			store, err := a.openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%s: %w", args[0], catalog.ErrNotFound)
			}
			fmt.Fprintf(a.stdout, "removed %s\n", args[0])
			return nil
		},
	}
}
