// Package v1 is the first generation of the capability surface handed to
// remote controls. Hosts and components that need to stay on this
// generation import it directly; everyone else uses remotehost/pkg/hostapi,
// which always aliases the latest generation.
package v1

import (
	"context"

	"remotehost/pkg/hostapi/common"
)

// Version names this API generation.
const Version = "v1"

// HostAPIVersion is the semantic version of the contract implemented by
// this package. Manifests declare it as hostApiVersion.
const HostAPIVersion = "1.0.0"

// Kind discriminates the hosting surface an API object serves.
type Kind string

// API kinds.
const (
	KindCard  Kind = "card"
	KindCover Kind = "cover"
)

// Scope returns the runtime scope matching the kind.
func (k Kind) Scope() (common.RuntimeScope, bool) {
	switch k {
	case KindCard:
		return common.ScopeCard, true
	case KindCover:
		return common.ScopeCover, true
	default:
		return "", false
	}
}

// KindForScope maps a runtime scope to the API kind served there.
func KindForScope(scope common.RuntimeScope) (Kind, bool) {
	switch scope {
	case common.ScopeCard:
		return KindCard, true
	case common.ScopeCover:
		return KindCover, true
	default:
		return "", false
	}
}

// UpdateHandler receives a fresh context snapshot whenever the host
// environment changes. The host ignores anything it does and never waits on
// it before making progress.
type UpdateHandler func(ctx Context)

// ComponentAPI is the capability base every control receives.
type ComponentAPI interface {
	Kind() Kind
	// Settings returns the component settings configured on the server.
	Settings(ctx context.Context) (map[string]string, error)
	// OnControlUpdate installs the update hook, replacing any previous one.
	// A nil handler removes it.
	OnControlUpdate(h UpdateHandler)
}

// CardAPI is handed to controls mounted in an entity card.
type CardAPI interface {
	ComponentAPI
	// ExecuteAction runs a card action. Failures match
	// common.ErrUnknownAction or common.ErrDisabled.
	ExecuteAction(ctx context.Context, actionName string) error
	// CanExecuteAction is a side-effect free predicate.
	CanExecuteAction(actionName string) bool
	// Entity returns the entity bound to the card.
	Entity() common.Entity
}

// CoverAPI is handed to controls mounted on a cover. Actions are addressed
// by id.
type CoverAPI interface {
	ComponentAPI
	ExecuteAction(ctx context.Context, id common.Guid) error
	// ActionsMetadata lists the available cover actions. The result is a
	// copy and the same on every call.
	ActionsMetadata() []common.CoverActionMetadata
}

// AsCard returns api as a CardAPI when its kind is card.
func AsCard(api ComponentAPI) (CardAPI, bool) {
	if api == nil || api.Kind() != KindCard {
		return nil, false
	}
	card, ok := api.(CardAPI)
	return card, ok
}

// AsCover returns api as a CoverAPI when its kind is cover.
func AsCover(api ComponentAPI) (CoverAPI, bool) {
	if api == nil || api.Kind() != KindCover {
		return nil, false
	}
	cover, ok := api.(CoverAPI)
	return cover, ok
}

// EntityAs returns the card entity as the caller's concrete entity type.
func EntityAs[T common.Entity](api CardAPI) (T, bool) {
	var zero T
	if api == nil {
		return zero, false
	}
	typed, ok := api.Entity().(T)
	return typed, ok
}
