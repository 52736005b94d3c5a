// Package catalog persists the components installed on a host. A record is
// written when a manifest is imported and read back when the host starts to
// know which component releases it may mount.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remotehost/pkg/hostapi/common"
)

// Driver identifies a catalog backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("catalog: component not found")

// Record is one installed component release.
type Record struct {
	// Key is Manifest.Key(): vendor/component@version.
	Key      string                   `json:"key"`
	Manifest common.ComponentMetadata `json:"manifest"`
	// Source is the manifest repository key the record was imported from.
	Source string `json:"source,omitempty"`
	// Digest is the repository ETag of the imported document.
	Digest      string    `json:"digest,omitempty"`
	InstalledAt time.Time `json:"installedAt"`
}

// NewRecord builds a record for m stamped with now.
func NewRecord(m common.ComponentMetadata, now time.Time) Record {
	return Record{Key: m.Key(), Manifest: m.Clone(), InstalledAt: now.UTC()}
}

// Store persists records. Put replaces a record with the same key.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, key string) (Record, error)
	// List returns every record ordered by key.
	List(ctx context.Context) ([]Record, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
	Close() error
}

// Config selects and parameterizes a driver. Field tags are read by
// internal/config under the REMOTEHOST_CATALOG_ prefix.
type Config struct {
	Driver      Driver `env:"DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./remotehost.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// Open returns the store described by cfg. An empty driver means sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case "", DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}

func checkRecord(rec Record) error {
	if rec.Key == "" {
		return errors.New("catalog: record key required")
	}
	if want := rec.Manifest.Key(); rec.Key != want {
		return fmt.Errorf("catalog: record key %q does not match manifest %q", rec.Key, want)
	}
	return nil
}
