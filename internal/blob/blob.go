// Package blob is the manifest repository: a flat document store holding
// component manifests before they are imported into the catalog. Drivers live
// in the fs, memory and s3 subpackages; Open picks one from Config.
package blob

import (
	"context"
	"fmt"

	"remotehost/internal/blob/core"
	"remotehost/internal/blob/fs"
	"remotehost/internal/blob/memory"
	"remotehost/internal/blob/s3"
)

type (
	// Driver identifies a blob backend.
	Driver = core.Driver
	// Info describes a stored document.
	Info = core.Info
	// Store is the interface every driver implements.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound   = core.ErrNotFound
	ErrInvalidKey = core.ErrInvalidKey
)

// Config selects and parameterizes a driver. Field tags are read by
// internal/config under the REMOTEHOST_BLOB_ prefix.
type Config struct {
	Driver            Driver `env:"DRIVER" envDefault:"fs"`
	FSRoot            string `env:"FS_ROOT" envDefault:"./manifests"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3PathStyle       bool   `env:"S3_PATH_STYLE"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

// Open returns the store described by cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverMemory:
		return memory.New(), nil
	case DriverS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("blob driver s3 requires a bucket")
		}
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
