package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"remotehost/internal/blob"
	"remotehost/internal/logging"
	"remotehost/internal/manifest"
)

// DefaultImportConcurrency bounds parallel document fetches.
const DefaultImportConcurrency = 8

// Importer copies manifest documents from a blob repository into a catalog.
type Importer struct {
	Blobs   blob.Store
	Catalog Store
	// Constraint is the host API range accepted; empty means
	// manifest.DefaultConstraint.
	Constraint  string
	Concurrency int
	Logger      *logging.Logger
	Now         func() time.Time
}

// ImportReport lists what an import did, each slice sorted by blob key.
type ImportReport struct {
	Imported  []string
	Unchanged []string
	Failed    []string
}

// Import processes every .json, .yaml or .yml document under prefix. A
// document whose digest matches the stored record is left alone. Failures of
// individual documents do not stop the others; they are joined into the
// returned error, each prefixed with its key.
func (im *Importer) Import(ctx context.Context, prefix string) (ImportReport, error) {
	var report ImportReport
	infos, err := im.Blobs.List(ctx, prefix)
	if err != nil {
		return report, fmt.Errorf("list manifests: %w", err)
	}
	limit := im.Concurrency
	if limit <= 0 {
		limit = DefaultImportConcurrency
	}
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, info := range infos {
		if !isManifestDocument(info.Key) {
			continue
		}
		g.Go(func() error {
			changed, err := im.importOne(gctx, info)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed = append(report.Failed, info.Key)
				errs = append(errs, fmt.Errorf("%s: %w", info.Key, err))
				im.logger().Error(err, "Import of {Key} failed", info.Key)
			case changed:
				report.Imported = append(report.Imported, info.Key)
			default:
				report.Unchanged = append(report.Unchanged, info.Key)
			}
			return nil
		})
	}
	_ = g.Wait()
	slices.Sort(report.Imported)
	slices.Sort(report.Unchanged)
	slices.Sort(report.Failed)
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	im.logger().Info("Imported {Imported} manifests from {Prefix}, {Unchanged} unchanged, {Failed} failed",
		len(report.Imported), prefix, len(report.Unchanged), len(report.Failed))
	return report, errors.Join(errs...)
}

func (im *Importer) importOne(ctx context.Context, info blob.Info) (bool, error) {
	_, rc, err := im.Blobs.Get(ctx, info.Key)
	if err != nil {
		return false, err
	}
	m, err := manifest.Decode(rc, manifest.FormatForPath(info.Key))
	_ = rc.Close()
	if err != nil {
		return false, err
	}
	if err := manifest.Validate(m); err != nil {
		return false, err
	}
	if err := manifest.Compatible(m, im.Constraint); err != nil {
		return false, err
	}
	existing, err := im.Catalog.Get(ctx, m.Key())
	switch {
	case err == nil && info.ETag != "" && existing.Digest == info.ETag:
		return false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return false, err
	}
	rec := NewRecord(m, im.now())
	rec.Source = info.Key
	rec.Digest = info.ETag
	if err := im.Catalog.Put(ctx, rec); err != nil {
		return false, err
	}
	im.logger().Debug("Installed {Component} from {Key}", rec.Key, info.Key)
	return true, nil
}

func (im *Importer) logger() *logging.Logger {
	if im.Logger == nil {
		return logging.Discard()
	}
	return im.Logger
}

func (im *Importer) now() time.Time {
	if im.Now == nil {
		return time.Now()
	}
	return im.Now()
}

func isManifestDocument(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
