// Package config reads host configuration from REMOTEHOST_* environment
// variables.
package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/caarlos0/env/v11"

	"remotehost/internal/blob"
	"remotehost/internal/catalog"
	"remotehost/internal/logging"
	"remotehost/internal/manifest"
)

// Prefix is prepended to every variable name.
const Prefix = "REMOTEHOST_"

// Host is the process-wide configuration.
type Host struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// SettingsFile is the viper document holding per-component settings.
	SettingsFile string `env:"SETTINGS_FILE"`
	// APIConstraint is the host API version range manifests must declare.
	APIConstraint string         `env:"API_CONSTRAINT" envDefault:"^1.0.0"`
	Catalog       catalog.Config `envPrefix:"CATALOG_"`
	Blob          blob.Config    `envPrefix:"BLOB_"`
}

// Load parses the process environment.
func Load() (Host, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Host, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Host, error) {
	var h Host
	if err := env.ParseWithOptions(&h, opts); err != nil {
		return Host{}, fmt.Errorf("parse env: %w", err)
	}
	if err := h.Validate(); err != nil {
		return Host{}, err
	}
	return h, nil
}

// Validate checks values the env parser cannot.
func (h Host) Validate() error {
	switch h.Catalog.Driver {
	case catalog.DriverMemory, catalog.DriverSQLite, catalog.DriverPostgres:
	default:
		return fmt.Errorf("%sCATALOG_DRIVER: unknown driver %q", Prefix, h.Catalog.Driver)
	}
	switch h.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory, blob.DriverS3:
	default:
		return fmt.Errorf("%sBLOB_DRIVER: unknown driver %q", Prefix, h.Blob.Driver)
	}
	if h.Blob.Driver == blob.DriverS3 && h.Blob.S3Bucket == "" {
		return fmt.Errorf("%sBLOB_S3_BUCKET required for the s3 driver", Prefix)
	}
	if _, err := semver.NewConstraint(h.Constraint()); err != nil {
		return fmt.Errorf("%sAPI_CONSTRAINT: %w", Prefix, err)
	}
	return nil
}

// Constraint returns APIConstraint or the default for this host version.
func (h Host) Constraint() string {
	if h.APIConstraint == "" {
		return manifest.DefaultConstraint
	}
	return h.APIConstraint
}

// Logger builds the process logger at LogLevel.
func (h Host) Logger() *logging.Logger {
	return logging.New(nil, h.LogLevel)
}
