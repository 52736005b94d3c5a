package host

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"remotehost/internal/catalog"
	"remotehost/internal/config"
	"remotehost/internal/metrics"
	"remotehost/internal/settings"
)

// FromConfig builds a host from process configuration: logger at the
// configured level, the configured catalog, component settings read from
// SettingsFile and metrics registered with reg (nil leaves them
// unregistered). Close on the returned host also closes the catalog.
func FromConfig(ctx context.Context, cfg config.Host, reg prometheus.Registerer) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var provider settings.Provider = settings.Static{}
	if cfg.SettingsFile != "" {
		f, err := settings.Open(cfg.SettingsFile)
		if err != nil {
			return nil, err
		}
		provider = f
	}
	rec, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	store, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	h := New(Options{
		Logger:       cfg.Logger(),
		Metrics:      rec,
		Settings:     provider,
		Catalog:      store,
		SupportedAPI: cfg.Constraint(),
	})
	h.ownsCatalog = true
	return h, nil
}
