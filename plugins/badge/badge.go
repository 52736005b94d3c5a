// Package badge is the reference remote component. It shows how a component
// is written against remotehost/pkg/hostapi alone: a card control that
// renders a status badge for the bound entity and a cover control that lists
// the cover actions. Both re-render when the host theme changes.
package badge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"remotehost/pkg/hostapi"
)

// Manifest coordinates.
const (
	Vendor    = "acme"
	Component = "widgets"
	Version   = "1.0.0"

	BadgeControl   hostapi.Guid = "c1"
	SummaryControl hostapi.Guid = "c2"

	// DefaultProperty is shown when neither the control info nor the
	// component settings name a property.
	DefaultProperty = "Status"
)

// ErrNoSurface is returned when the container cannot display text.
var ErrNoSurface = errors.New("badge: container is not a Surface")

// Surface is a container that can display text. Hosts that want to show
// the badge pass a container implementing it.
type Surface interface {
	hostapi.Container
	Render(text string)
}

// Manifest describes the component.
func Manifest() hostapi.ComponentMetadata {
	return hostapi.ComponentMetadata{
		VendorName:       Vendor,
		ComponentName:    Component,
		ComponentVersion: Version,
		HostAPIVersion:   hostapi.HostAPIVersion,
		Controls: []hostapi.ControlMetadata{
			{ID: BadgeControl, Name: "Badge", Loaders: []hostapi.LoaderMetadata{{Name: "main", Scope: hostapi.ScopeCard}}},
			{ID: SummaryControl, Name: "Summary", Loaders: []hostapi.LoaderMetadata{{Name: "summary", Scope: hostapi.ScopeCover}}},
		},
	}
}

// Bundle binds the manifest to the entry points.
func Bundle() *hostapi.StaticBundle {
	return hostapi.NewBundle(Manifest()).
		Handle(BadgeControl, "main", LoadBadge).
		Handle(SummaryControl, "summary", LoadSummary)
}

type badge struct {
	surface  Surface
	entity   hostapi.Entity
	property hostapi.PropertyInfo
	index    int
	approve  func() bool

	mu    sync.Mutex
	theme hostapi.Theme
}

// LoadBadge mounts the card control.
func LoadBadge(ctx context.Context, args hostapi.LoaderArgs) (hostapi.CleanupFunc, error) {
	card, ok := hostapi.AsCard(args.API)
	if !ok {
		return nil, fmt.Errorf("badge: mounted with a %s API", kindOf(args.API))
	}
	surface, ok := args.Container.(Surface)
	if !ok {
		return nil, ErrNoSurface
	}
	settings, err := card.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("badge settings: %w", err)
	}
	name := args.ControlInfo.PropertyName
	if name == "" {
		name = settings["property"]
	}
	if name == "" {
		name = DefaultProperty
	}
	ent := card.Entity()
	prop, idx, ok := ent.Info().Property(name)
	if !ok {
		return nil, &hostapi.PropertyError{Property: name, Err: hostapi.ErrUnknownProperty}
	}
	b := &badge{
		surface:  surface,
		entity:   ent,
		property: prop,
		index:    idx,
		approve:  func() bool { return card.CanExecuteAction("approve") },
		theme:    args.InitialContext.Theme.OrDefault(),
	}
	b.render()
	card.OnControlUpdate(b.update)
	args.InitialContext.Logger.Info("Badge mounted for entity {Entity} showing {Property}", ent.ID(), prop.Name)
	return func() {
		card.OnControlUpdate(nil)
		surface.Render("")
	}, nil
}

func (b *badge) update(ctx hostapi.Context) {
	b.mu.Lock()
	b.theme = ctx.Theme.OrDefault()
	b.mu.Unlock()
	b.render()
}

func (b *badge) render() {
	b.mu.Lock()
	theme := b.theme
	b.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", strings.ToLower(string(theme)), b.entity.DisplayValue())
	state := b.entity.State()
	switch {
	case !state.IsEnabled:
		sb.WriteString(" · read-only")
	case b.index < len(state.Properties) && !state.Properties[b.index].IsEnabled:
		fmt.Fprintf(&sb, " · %s read-only", b.property.DisplayValue)
	}
	if lock := b.entity.LockInfo(); lock != nil && lock.IsLocked && !lock.IsLockedByMe {
		fmt.Fprintf(&sb, " · locked by %s", lock.OwnerName)
	}
	if b.approve() {
		sb.WriteString(" · approve")
	}
	b.surface.Render(sb.String())
}

type summary struct {
	surface Surface
	actions []hostapi.CoverActionMetadata

	mu    sync.Mutex
	theme hostapi.Theme
}

// LoadSummary mounts the cover control.
func LoadSummary(_ context.Context, args hostapi.LoaderArgs) (hostapi.CleanupFunc, error) {
	cover, ok := hostapi.AsCover(args.API)
	if !ok {
		return nil, fmt.Errorf("summary: mounted with a %s API", kindOf(args.API))
	}
	surface, ok := args.Container.(Surface)
	if !ok {
		return nil, ErrNoSurface
	}
	s := &summary{surface: surface, actions: cover.ActionsMetadata(), theme: args.InitialContext.Theme.OrDefault()}
	s.render()
	cover.OnControlUpdate(func(ctx hostapi.Context) {
		s.mu.Lock()
		s.theme = ctx.Theme.OrDefault()
		s.mu.Unlock()
		s.render()
	})
	return func() { surface.Render("") }, nil
}

func (s *summary) render() {
	s.mu.Lock()
	theme := s.theme
	s.mu.Unlock()
	titles := make([]string, 0, len(s.actions))
	for _, a := range s.actions {
		titles = append(titles, a.Title)
	}
	if len(titles) == 0 {
		titles = append(titles, "no actions")
	}
	s.surface.Render(fmt.Sprintf("[%s] %s", strings.ToLower(string(theme)), strings.Join(titles, " | ")))
}

func kindOf(api hostapi.ComponentAPI) string {
	if api == nil {
		return "nil"
	}
	return string(api.Kind())
}
