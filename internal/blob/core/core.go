// Package core defines the manifest repository abstraction shared by the
// blob drivers.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver identifies a blob backend.
type Driver string

const (
	// DriverFilesystem keeps documents under a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 keeps documents in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps documents in process memory.
	DriverMemory Driver = "memory"
)

// Info describes a stored document.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a flat key/value repository of manifest documents. Put replaces
// any existing document under the same key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports whether a document was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns documents whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	// ErrNotFound is returned by Get and Head for missing keys.
	ErrNotFound = errors.New("blob: not found")
	// ErrInvalidKey is returned for keys that are empty or escape the store.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// CleanKey validates key and returns its slash-separated canonical form.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q traverses upward", ErrInvalidKey, key)
		}
	}
	clean := path.Clean(key)
	if clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}

// ContentType guesses the media type of a manifest document from its key.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
