package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"remotehost/internal/blob"
	"remotehost/internal/catalog"
	"remotehost/internal/config"
	"remotehost/internal/logging"
	"remotehost/pkg/hostapi"
)

type app struct {
	stdout  io.Writer
	stderr  io.Writer
	environ map[string]string

	logLevel string
	jsonMode bool
}

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsage(err error) bool {
	var u usageError
	return errors.As(err, &u) || strings.HasPrefix(err.Error(), "unknown command")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hostctl",
		Short:         "Manage remote component manifests and the component catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides REMOTEHOST_LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(a),
		newValidateCmd(a),
		newMirrorCmd(a),
		newPublishCmd(a),
		newCatalogCmd(a),
	)
	for _, c := range root.Commands() {
		markArgErrors(c)
	}
	return root
}

// markArgErrors turns positional argument errors into usage errors.
func markArgErrors(c *cobra.Command) {
	for _, sub := range c.Commands() {
		markArgErrors(sub)
	}
	if args := c.Args; args != nil {
		c.Args = func(cmd *cobra.Command, in []string) error {
			if err := args(cmd, in); err != nil {
				return usageError{err}
			}
			return nil
		}
	}
}

func (a *app) config() (config.Host, error) {
	var (
		cfg config.Host
		err error
	)
	if a.environ != nil {
		cfg, err = config.LoadFrom(a.environ)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Host{}, err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	return cfg, nil
}

func (a *app) logger(cfg config.Host) *logging.Logger {
	return logging.New(a.stderr, cfg.LogLevel)
}

func (a *app) openBlobs(ctx context.Context, cfg config.Host) (blob.Store, error) {
	s, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open manifest repository: %w", err)
	}
	return s, nil
}

func (a *app) openCatalog(ctx context.Context, cfg config.Host) (catalog.Store, error) {
	s, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return s, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hostctl version and host API version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := fmt.Fprintf(a.stdout, "hostctl %s (host api %s)\n", version, hostapi.HostAPIVersion)
			return err
		},
	}
}
