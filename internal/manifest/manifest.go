// Package manifest decodes, validates and resolves remote component
// manifests into the set of controls a host can load.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"remotehost/pkg/hostapi/common"
	v1 "remotehost/pkg/hostapi/v1"
)

// Format is a manifest document encoding.
type Format string

// Supported encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultConstraint accepts every host API version of the current major
// generation.
const DefaultConstraint = "^" + v1.HostAPIVersion

// FormatForPath picks the format from a file extension; anything that is not
// .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a single manifest document.
func Decode(r io.Reader, format Format) (common.ComponentMetadata, error) {
	var m common.ComponentMetadata
	data, err := io.ReadAll(r)
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return m, fmt.Errorf("decode yaml manifest: %w", err)
		}
	case FormatJSON, "":
		if err := json.Unmarshal(data, &m); err != nil {
			return m, fmt.Errorf("decode json manifest: %w", err)
		}
	default:
		return m, fmt.Errorf("unsupported manifest format %q", format)
	}
	return m, nil
}

// DecodeFile reads the manifest at path.
func DecodeFile(path string) (common.ComponentMetadata, error) {
	f, err := os.Open(path) //nolint:gosec // path supplied by the operator
	if err != nil {
		return common.ComponentMetadata{}, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f, FormatForPath(path))
}

// Encode writes m in the given format.
func Encode(w io.Writer, m common.ComponentMetadata, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
}

// Validate reports every structural problem of m at once.
func Validate(m common.ComponentMetadata) error {
	var errs []error
	if strings.TrimSpace(m.VendorName) == "" {
		errs = append(errs, errors.New("vendorName required"))
	}
	if strings.TrimSpace(m.ComponentName) == "" {
		errs = append(errs, errors.New("componentName required"))
	}
	if m.ComponentVersion == "" {
		errs = append(errs, errors.New("componentVersion required"))
	} else if _, err := semver.NewVersion(m.ComponentVersion); err != nil {
		errs = append(errs, fmt.Errorf("componentVersion %q: %w", m.ComponentVersion, err))
	}
	if m.HostAPIVersion != "" {
		if _, err := semver.NewVersion(m.HostAPIVersion); err != nil {
			errs = append(errs, fmt.Errorf("hostApiVersion %q: %w", m.HostAPIVersion, err))
		}
	}
	ids := make(map[common.Guid]struct{}, len(m.Controls))
	for i, c := range m.Controls {
		label := fmt.Sprintf("controls[%d]", i)
		if c.ID.IsZero() {
			errs = append(errs, fmt.Errorf("%s: id required", label))
		} else if _, dup := ids[c.ID]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate control id %s", label, c.ID))
		}
		ids[c.ID] = struct{}{}
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name required", label))
		}
		names := make(map[string]struct{}, len(c.Loaders))
		for j, l := range c.Loaders {
			if l.Name == "" {
				errs = append(errs, fmt.Errorf("%s.loaders[%d]: name required", label, j))
				continue
			}
			if _, dup := names[l.Name]; dup {
				errs = append(errs, fmt.Errorf("%s.loaders[%d]: duplicate loader %s", label, j, l.Name))
			}
			names[l.Name] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// Compatible reports whether the host API version declared by m satisfies
// constraint. An undeclared version means the host's current version.
func Compatible(m common.ComponentMetadata, constraint string) error {
	if constraint == "" {
		constraint = DefaultConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("host api constraint %q: %w", constraint, err)
	}
	declared := m.HostAPIVersion
	if declared == "" {
		declared = v1.HostAPIVersion
	}
	v, err := semver.NewVersion(declared)
	if err != nil {
		return fmt.Errorf("hostApiVersion %q: %w", declared, err)
	}
	if ok, reasons := c.Validate(v); !ok {
		return fmt.Errorf("%s requires host api %s: %w", m.Key(), declared, errors.Join(reasons...))
	}
	return nil
}
