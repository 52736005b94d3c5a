package manifest

import (
	"fmt"

	"remotehost/pkg/hostapi/common"
)

// Loadable is one control loader the host can mount.
type Loadable struct {
	Component   string
	ControlID   common.Guid
	ControlName string
	Loader      string
	Scope       common.RuntimeScope
}

// Resolve flattens m into loadable controls in manifest order. Loaders with
// a scope this host does not know are skipped and reported as warnings.
func Resolve(m common.ComponentMetadata) ([]Loadable, []string) {
	var (
		out      []Loadable
		warnings []string
	)
	key := m.Key()
	for _, c := range m.Controls {
		for _, l := range c.Loaders {
			if !l.Scope.IsKnown() {
				warnings = append(warnings, fmt.Sprintf("%s: control %s loader %s has unknown scope %q, skipped", key, c.ID, l.Name, l.Scope))
				continue
			}
			out = append(out, Loadable{
				Component:   key,
				ControlID:   c.ID,
				ControlName: c.Name,
				Loader:      l.Name,
				Scope:       l.Scope,
			})
		}
	}
	return out, warnings
}

// ForScope keeps the loadables targeting scope.
func ForScope(loadables []Loadable, scope common.RuntimeScope) []Loadable {
	var out []Loadable
	for _, l := range loadables {
		if l.Scope == scope {
			out = append(out, l)
		}
	}
	return out
}
