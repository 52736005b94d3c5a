// Package settings serves component settings configured on the server, the
// data behind the getSettings call of the component API.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"remotehost/pkg/hostapi/common"
)

// Provider returns the settings of one component.
type Provider interface {
	Settings(ctx context.Context, component common.ComponentMetadata) (map[string]string, error)
}

// Static serves settings from a map keyed by "vendor/component".
type Static map[string]map[string]string

// Settings returns a copy of the component's settings, or an empty map.
func (s Static) Settings(ctx context.Context, component common.ComponentMetadata) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := s[component.VendorName+"/"+component.ComponentName]
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}

// File serves settings from a configuration file read with viper. Settings
// live under components.<vendor>.<component>; viper folds keys to lower case.
//
//	components:
//	  acme:
//	    widgets:
//	      endpoint: https://widgets.example.com
type File struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
}

// Open reads the settings file at path. A missing file yields an empty
// provider rather than an error.
func Open(path string) (*File, error) {
	f := &File{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reload re-reads the file.
func (f *File) Reload() error {
	v := viper.New()
	if f.path != "" {
		v.SetConfigFile(f.path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read settings %s: %w", f.path, err)
			}
		}
	}
	f.mu.Lock()
	f.v = v
	f.mu.Unlock()
	return nil
}

// Settings returns the component's settings, or an empty map.
func (f *File) Settings(ctx context.Context, component common.ComponentMetadata) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	v := f.v
	f.mu.RUnlock()
	key := strings.Join([]string{"components", component.VendorName, component.ComponentName}, ".")
	return v.GetStringMapString(key), nil
}
