package v1

import "remotehost/pkg/hostapi/common"

// Context is a snapshot of the host environment. A control receives one at
// load time and a new one on every update; a snapshot never changes after
// delivery.
type Context struct {
	UserID         *int64
	CurrentCulture *string
	Theme          common.Theme
	ClientID       *string
	Tenant         *string
	ModuleLicenses []common.ModuleLicense
	Logger         common.Logger
}

// Clone returns a snapshot sharing no mutable state with c.
func (c Context) Clone() Context {
	out := Context{
		UserID:         clonePtr(c.UserID),
		CurrentCulture: clonePtr(c.CurrentCulture),
		Theme:          c.Theme,
		ClientID:       clonePtr(c.ClientID),
		Tenant:         clonePtr(c.Tenant),
		Logger:         c.Logger,
	}
	if c.ModuleLicenses != nil {
		out.ModuleLicenses = append([]common.ModuleLicense(nil), c.ModuleLicenses...)
	}
	if out.Logger == nil {
		out.Logger = common.NopLogger{}
	}
	return out
}

// HasLicense reports whether a module license with the given name is present.
func (c Context) HasLicense(name string) bool {
	for _, l := range c.ModuleLicenses {
		if l.Name == name {
			return true
		}
	}
	return false
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
