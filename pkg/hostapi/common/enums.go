package common

// RuntimeScope is the host surface a control loader targets.
type RuntimeScope string

// Runtime scopes supported by the host.
const (
	// ScopeCard mounts a control inside an entity card.
	ScopeCard RuntimeScope = "Card"
	// ScopeCover mounts a control on a cover (summary view).
	ScopeCover RuntimeScope = "Cover"
)

// runtimeScopes is the only table of RuntimeScope values. Everything that
// enumerates scopes, including the runtime mirror, is derived from it.
var runtimeScopes = [...]RuntimeScope{ScopeCard, ScopeCover}

// RuntimeScopes returns the known scopes in declaration order.
func RuntimeScopes() []RuntimeScope {
	out := make([]RuntimeScope, len(runtimeScopes))
	copy(out, runtimeScopes[:])
	return out
}

// ParseRuntimeScope returns the scope named s. The match is case-sensitive.
func ParseRuntimeScope(s string) (RuntimeScope, bool) {
	for _, scope := range runtimeScopes {
		if string(scope) == s {
			return scope, true
		}
	}
	return RuntimeScope(s), false
}

// IsKnown reports whether the scope is one this host version understands.
// Unknown values survive decoding so newer manifests do not break older hosts.
func (s RuntimeScope) IsKnown() bool {
	_, ok := ParseRuntimeScope(string(s))
	return ok
}

func (s RuntimeScope) String() string { return string(s) }

// Theme is the visual theme the host shell is rendered with.
type Theme string

// Themes supported by the host.
const (
	// ThemeDefault is the light theme.
	ThemeDefault Theme = "Default"
	// ThemeNight is the dark theme.
	ThemeNight Theme = "Night"
)

var themes = [...]Theme{ThemeDefault, ThemeNight}

// Themes returns the known themes in declaration order.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes[:])
	return out
}

// ParseTheme returns the theme named s. The match is case-sensitive.
func ParseTheme(s string) (Theme, bool) {
	for _, theme := range themes {
		if string(theme) == s {
			return theme, true
		}
	}
	return Theme(s), false
}

// IsKnown reports whether the theme is one this host version understands.
func (t Theme) IsKnown() bool {
	_, ok := ParseTheme(string(t))
	return ok
}

// OrDefault returns t when known and ThemeDefault otherwise.
func (t Theme) OrDefault() Theme {
	if t.IsKnown() {
		return t
	}
	return ThemeDefault
}

func (t Theme) String() string { return string(t) }
