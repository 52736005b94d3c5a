package v1

import (
	"context"

	"remotehost/pkg/hostapi/common"
)

// LoaderArgs is everything a control entry point receives.
type LoaderArgs struct {
	Container      common.Container
	InitialContext Context
	// API is a CardAPI or CoverAPI depending on the loader scope; use
	// AsCard or AsCover.
	API         ComponentAPI
	ControlInfo common.ControlInfo
}

// EntryPoint mounts a control. The returned cleanup is called exactly once
// on unmount. When EntryPoint returns an error the control is not mounted
// and no cleanup is ever called.
type EntryPoint func(ctx context.Context, args LoaderArgs) (common.CleanupFunc, error)

// Bundle is a remote component as seen by the host: its manifest plus the
// entry points named by the manifest's loaders.
type Bundle interface {
	Metadata() common.ComponentMetadata
	EntryPoint(controlID common.Guid, loaderName string) (EntryPoint, bool)
}

// StaticBundle is a Bundle assembled in process.
type StaticBundle struct {
	meta    common.ComponentMetadata
	entries map[entryKey]EntryPoint
}

// NewBundle starts a bundle for the given manifest.
func NewBundle(meta common.ComponentMetadata) *StaticBundle {
	return &StaticBundle{meta: meta.Clone(), entries: make(map[entryKey]EntryPoint)}
}

// Handle binds an entry point to a control loader and returns the bundle
// for chaining.
func (b *StaticBundle) Handle(controlID common.Guid, loaderName string, ep EntryPoint) *StaticBundle {
	b.entries[entryKey{controlID, loaderName}] = ep
	return b
}

// Metadata returns a copy of the manifest.
func (b *StaticBundle) Metadata() common.ComponentMetadata { return b.meta.Clone() }

// EntryPoint returns the entry point bound to the control loader.
func (b *StaticBundle) EntryPoint(controlID common.Guid, loaderName string) (EntryPoint, bool) {
	ep, ok := b.entries[entryKey{controlID, loaderName}]
	return ep, ok && ep != nil
}

type entryKey struct {
	control common.Guid
	loader  string
}
