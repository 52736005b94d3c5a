// Package fs stores manifest documents as plain files under a root
// directory, so a checked-out manifest tree can be imported as is.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"remotehost/internal/blob/core"
)

// DefaultRoot is used when New is given an empty root.
const DefaultRoot = "./manifests"

// Store implements core.Store on the local filesystem. ETags are the sha256
// of the file content and are computed on read.
type Store struct {
	root string
}

// New returns a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string { return s.root }

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

func (s *Store) pathFor(key string) (string, string, error) {
	k, err := core.CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader) (core.Info, error) {
	k, p, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return core.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return core.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return core.Info{}, fmt.Errorf("write %s: %w", k, err)
	}
	if err := tmp.Close(); err != nil {
		return core.Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return core.Info{}, err
	}
	return s.stat(k, p)
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	k, p, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	info, err := s.stat(k, p)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return core.Info{}, nil, notFound(k, err)
	}
	return info, f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	k, p, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	return s.stat(k, p)
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	_, p, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var out []core.Info
	err := filepath.WalkDir(s.root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.stat(key, p)
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b core.Info) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (s *Store) stat(key, p string) (core.Info, error) {
	f, err := os.Open(p)
	if err != nil {
		return core.Info{}, notFound(key, err)
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		return core.Info{}, err
	}
	if st.IsDir() {
		return core.Info{}, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return core.Info{}, err
	}
	return core.Info{
		Key:          key,
		Size:         st.Size(),
		ContentType:  core.ContentType(key),
		ETag:         hex.EncodeToString(h.Sum(nil)),
		LastModified: st.ModTime().UTC(),
	}, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}

var _ core.Store = (*Store)(nil)
