// Package hostapi is the default import for remote component authors and
// hosts. It re-exports the latest API generation (currently v1) together
// with the shared vocabulary, so most code never names a version. Code that
// must stay on a generation imports remotehost/pkg/hostapi/v1 instead.
package hostapi

import (
	"remotehost/pkg/hostapi/common"
	v1 "remotehost/pkg/hostapi/v1"
)

// Latest API generation.
const (
	Version        = v1.Version
	HostAPIVersion = v1.HostAPIVersion
)

// Capability surface of the latest generation.
type (
	// Kind is an alias of v1.Kind discriminating card and cover APIs.
	Kind = v1.Kind
	// ComponentAPI is an alias of v1.ComponentAPI.
	ComponentAPI = v1.ComponentAPI
	// CardAPI is an alias of v1.CardAPI.
	CardAPI = v1.CardAPI
	// CoverAPI is an alias of v1.CoverAPI.
	CoverAPI = v1.CoverAPI
	// Context is an alias of v1.Context, the environment snapshot.
	Context = v1.Context
	// UpdateHandler is an alias of v1.UpdateHandler.
	UpdateHandler = v1.UpdateHandler
	// LoaderArgs is an alias of v1.LoaderArgs.
	LoaderArgs = v1.LoaderArgs
	// EntryPoint is an alias of v1.EntryPoint.
	EntryPoint = v1.EntryPoint
	// Bundle is an alias of v1.Bundle.
	Bundle = v1.Bundle
	// StaticBundle is an alias of v1.StaticBundle.
	StaticBundle = v1.StaticBundle
)

// API kinds.
const (
	KindCard  = v1.KindCard
	KindCover = v1.KindCover
)

var (
	KindForScope = v1.KindForScope
	AsCard       = v1.AsCard
	AsCover      = v1.AsCover
	NewBundle    = v1.NewBundle
)

// EntityAs returns the card entity as the caller's concrete entity type.
func EntityAs[T Entity](api CardAPI) (T, bool) {
	return v1.EntityAs[T](api)
}

// Shared vocabulary.
type (
	Guid                    = common.Guid
	RuntimeScope            = common.RuntimeScope
	Theme                   = common.Theme
	Mirror                  = common.Mirror
	MirrorEntry             = common.MirrorEntry
	Logger                  = common.Logger
	NopLogger               = common.NopLogger
	PropertyKind            = common.PropertyKind
	PropertyInfo            = common.PropertyInfo
	EnumPropertyValue       = common.EnumPropertyValue
	NavigationPropertyValue = common.NavigationPropertyValue
	EntityInfo              = common.EntityInfo
	PropertyState           = common.PropertyState
	EntityState             = common.EntityState
	LockInfo                = common.LockInfo
	Entity                  = common.Entity
	LoaderMetadata          = common.LoaderMetadata
	ControlMetadata         = common.ControlMetadata
	ComponentMetadata       = common.ComponentMetadata
	ModuleLicense           = common.ModuleLicense
	CoverActionMetadata     = common.CoverActionMetadata
	ControlInfo             = common.ControlInfo
	CleanupFunc             = common.CleanupFunc
	Container               = common.Container
	ContainerID             = common.ContainerID
	PropertyError           = common.PropertyError
	ActionError             = common.ActionError
	LoadError               = common.LoadError
)

// ChildEntity is an alias of common.ChildEntity.
type ChildEntity[R Entity] = common.ChildEntity[R]

// ChildEntityCollection is an alias of common.ChildEntityCollection.
type ChildEntityCollection[R Entity, T ChildEntity[R]] = common.ChildEntityCollection[R, T]

// MapChildren applies fn to a snapshot of c and returns the results.
func MapChildren[R Entity, T ChildEntity[R], U any](c ChildEntityCollection[R, T], fn func(item T, index int) U) []U {
	return common.MapChildren(c, fn)
}

// Enumeration values.
const (
	ScopeCard          = common.ScopeCard
	ScopeCover         = common.ScopeCover
	ThemeDefault       = common.ThemeDefault
	ThemeNight         = common.ThemeNight
	PropertyPlain      = common.PropertyPlain
	PropertyEnum       = common.PropertyEnum
	PropertyNavigation = common.PropertyNavigation
)

// Error taxonomy.
var (
	ErrUnknownProperty = common.ErrUnknownProperty
	ErrUnknownAction   = common.ErrUnknownAction
	ErrDisabled        = common.ErrDisabled
	ErrValidation      = common.ErrValidation
	ErrLoadFailure     = common.ErrLoadFailure
)

var (
	NewGuid             = common.NewGuid
	ParseGuid           = common.ParseGuid
	RuntimeScopes       = common.RuntimeScopes
	ParseRuntimeScope   = common.ParseRuntimeScope
	Themes              = common.Themes
	ParseTheme          = common.ParseTheme
	RuntimeScopeMirror  = common.RuntimeScopeMirror
	ThemeMirror         = common.ThemeMirror
	Mirrors             = common.Mirrors
	WriteJSModule       = common.WriteJSModule
	PlainProperty       = common.PlainProperty
	EnumProperty        = common.EnumProperty
	NavigationProperty  = common.NavigationProperty
	CheckStateAlignment = common.CheckStateAlignment
)
