package common

import "fmt"

// LoaderMetadata names a control entry point and the scope it mounts into.
type LoaderMetadata struct {
	Name  string       `json:"name" yaml:"name"`
	Scope RuntimeScope `json:"scope" yaml:"scope"`
}

// ControlMetadata declares one mountable control of a component.
type ControlMetadata struct {
	ID      Guid             `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Loaders []LoaderMetadata `json:"loaders" yaml:"loaders"`
}

// Loader returns the first loader declared for scope.
func (c ControlMetadata) Loader(scope RuntimeScope) (LoaderMetadata, bool) {
	for _, l := range c.Loaders {
		if l.Scope == scope {
			return l, true
		}
	}
	return LoaderMetadata{}, false
}

// ComponentMetadata is the manifest a remote component author ships.
type ComponentMetadata struct {
	VendorName       string            `json:"vendorName" yaml:"vendorName"`
	ComponentName    string            `json:"componentName" yaml:"componentName"`
	ComponentVersion string            `json:"componentVersion" yaml:"componentVersion"`
	Controls         []ControlMetadata `json:"controls" yaml:"controls"`
	// HostAPIVersion is the contract version the component was built
	// against. Empty means the host's current version.
	HostAPIVersion string `json:"hostApiVersion,omitempty" yaml:"hostApiVersion,omitempty"`
}

// Key identifies a component release: vendor/component@version.
func (m ComponentMetadata) Key() string {
	return fmt.Sprintf("%s/%s@%s", m.VendorName, m.ComponentName, m.ComponentVersion)
}

// Control returns the control with the given id.
func (m ComponentMetadata) Control(id Guid) (ControlMetadata, bool) {
	for _, c := range m.Controls {
		if c.ID == id {
			return c, true
		}
	}
	return ControlMetadata{}, false
}

// Clone returns a deep copy.
func (m ComponentMetadata) Clone() ComponentMetadata {
	out := m
	out.Controls = make([]ControlMetadata, len(m.Controls))
	for i, c := range m.Controls {
		c.Loaders = append([]LoaderMetadata(nil), c.Loaders...)
		out.Controls[i] = c
	}
	return out
}

// ModuleLicense is a licensed host module visible to controls.
type ModuleLicense struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// CoverActionMetadata describes an action available on a cover.
type CoverActionMetadata struct {
	ID          Guid   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ControlInfo carries control-specific parameters from the host.
type ControlInfo struct {
	// PropertyName is the entity property bound to the control, if any.
	PropertyName string `json:"propertyName,omitempty"`
}

// CleanupFunc is returned by a loader and called once when the control is
// unmounted.
type CleanupFunc func()

// Container is the mount point a control renders into. The host decides what
// backs it; the contract only needs a stable identity.
type Container interface {
	MountID() string
}

// ContainerID is a Container identified by a plain string.
type ContainerID string

func (c ContainerID) MountID() string { return string(c) }
