// Package host runs remote controls. It keeps the registered component
// bundles, mounts their loaders with a scoped API object, tracks each
// control through its lifecycle and fans context changes out to mounted
// controls.
package host

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"remotehost/internal/catalog"
	"remotehost/internal/logging"
	"remotehost/internal/manifest"
	"remotehost/internal/metrics"
	"remotehost/internal/settings"
	"remotehost/pkg/hostapi/common"
	v1 "remotehost/pkg/hostapi/v1"
)

const tracerName = "remotehost/internal/host"

// Mount resolution failures. Entry point failures are reported as
// *common.LoadError instead.
var (
	ErrUnknownComponent = errors.New("host: component not registered")
	ErrUnknownControl   = errors.New("host: control not declared by component")
	ErrNoLoader         = errors.New("host: control has no loader for scope")
	ErrMissingBackend   = errors.New("host: mount request lacks a backend for scope")
	ErrClosed           = errors.New("host: closed")
)

// Options configures a Host. Every field is optional.
type Options struct {
	Logger   *logging.Logger
	Metrics  *metrics.Recorder
	Settings settings.Provider
	// Catalog records registered bundles when set.
	Catalog catalog.Store
	// SupportedAPI is the host API version range bundles must declare.
	// Empty means manifest.DefaultConstraint.
	SupportedAPI   string
	TracerProvider trace.TracerProvider
	// Context is the initial environment snapshot.
	Context v1.Context
	Now     func() time.Time
}

// Host owns bundles and mounted controls. It is safe for concurrent use.
type Host struct {
	log      *logging.Logger
	metrics  *metrics.Recorder
	settings settings.Provider
	catalog  catalog.Store
	api      string
	tracer   trace.Tracer
	now      func() time.Time

	ownsCatalog bool
	closeOnce   sync.Once

	// mu guards everything below. It is taken before any Control.mu.
	mu       sync.Mutex
	bundles  map[string]v1.Bundle
	current  v1.Context
	controls map[string]*Control
	closed   bool
}

// New builds a host from opts.
func New(opts Options) *Host {
	h := &Host{
		log:      opts.Logger,
		metrics:  opts.Metrics,
		settings: opts.Settings,
		catalog:  opts.Catalog,
		api:      opts.SupportedAPI,
		now:      opts.Now,
		bundles:  make(map[string]v1.Bundle),
		current:  opts.Context.Clone(),
		controls: make(map[string]*Control),
	}
	if h.log == nil {
		h.log = logging.Discard()
	}
	if h.settings == nil {
		h.settings = settings.Static{}
	}
	if h.api == "" {
		h.api = manifest.DefaultConstraint
	}
	if h.now == nil {
		h.now = time.Now
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	h.tracer = tp.Tracer(tracerName)
	return h
}

// RegisterBundle validates the bundle manifest, checks it against the
// supported host API range and makes it mountable. Registering the same
// component release again replaces the previous bundle.
func (h *Host) RegisterBundle(ctx context.Context, b v1.Bundle) error {
	if b == nil {
		return errors.New("host: nil bundle")
	}
	meta := b.Metadata()
	if err := manifest.Validate(meta); err != nil {
		return fmt.Errorf("bundle %s: %w", meta.Key(), err)
	}
	if err := manifest.Compatible(meta, h.api); err != nil {
		return err
	}
	_, warnings := manifest.Resolve(meta)
	for _, w := range warnings {
		h.log.Warning("{Warning}", w)
	}
	if h.catalog != nil {
		if err := h.catalog.Put(ctx, catalog.NewRecord(meta, h.now())); err != nil {
			return fmt.Errorf("record bundle %s: %w", meta.Key(), err)
		}
	}
	h.mu.Lock()
	h.bundles[meta.Key()] = b
	h.mu.Unlock()
	h.log.Info("Registered {Component} with {Controls} controls", meta.Key(), len(meta.Controls))
	return nil
}

// Bundles lists the manifests of registered bundles ordered by key.
func (h *Host) Bundles() []common.ComponentMetadata {
	h.mu.Lock()
	out := make([]common.ComponentMetadata, 0, len(h.bundles))
	for _, b := range h.bundles {
		out = append(out, b.Metadata())
	}
	h.mu.Unlock()
	slices.SortFunc(out, func(a, b common.ComponentMetadata) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

// Context returns a copy of the current environment snapshot.
func (h *Host) Context() v1.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Clone()
}

// UpdateContext applies mutate to a copy of the current snapshot, makes the
// result current and schedules its delivery to every control. It never
// waits for update handlers.
func (h *Host) UpdateContext(mutate func(*v1.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.current.Clone()
	if mutate != nil {
		mutate(&next)
	}
	h.current = next
	for _, c := range h.controls {
		c.enqueue(next)
	}
}

// MountRequest names the control to mount and carries the host objects the
// scoped API is built from.
type MountRequest struct {
	// Component is the registered component key, vendor/component@version.
	Component   string
	ControlID   common.Guid
	Scope       common.RuntimeScope
	Container   common.Container
	ControlInfo common.ControlInfo
	// Card is required when Scope is Card.
	Card *CardBackend
	// Cover is optional when Scope is Cover; nil means no actions.
	Cover *CoverBackend
}

// Mount resolves the loader for req.Scope and runs its entry point. On
// success the control is Mounted; when the entry point fails the control
// returns to Unloaded, its cleanup is never called and the error is a
// *common.LoadError.
func (h *Host) Mount(ctx context.Context, req MountRequest) (c *Control, err error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "host.Mount", trace.WithAttributes(
		attribute.String("component", req.Component),
		attribute.String("control.id", string(req.ControlID)),
		attribute.String("scope", string(req.Scope)),
	))
	defer func() {
		h.metrics.Observe(ctx, "mount", err == nil, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	c, ep, err := h.prepare(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("mount.id", c.id), attribute.String("loader", c.loader.Name))

	c.log.Debug("Loading {Control} with loader {Loader}", c.control.Name, c.loader.Name)
	cleanup, err := c.run(ctx, ep)
	if err != nil {
		h.detach(c)
		c.setState(StateUnloaded)
		loadErr := &common.LoadError{Control: c.control.Name, Loader: c.loader.Name, Err: err}
		c.log.Error(err, "Loader {Loader} of {Control} failed", c.loader.Name, c.control.Name)
		return nil, loadErr
	}
	if !h.complete(c, cleanup) {
		c.log.Info("Host closed while {Control} was loading", c.control.Name)
		return nil, ErrClosed
	}
	h.metrics.Mounted()
	c.log.Info("Mounted {Control} in {Container}", c.control.Name, mountID(req.Container))
	return c, nil
}

// prepare resolves req and attaches a Loading control to the host so that
// context changes made while the entry point runs are not lost.
func (h *Host) prepare(req MountRequest) (*Control, v1.EntryPoint, error) {
	kind, ok := v1.KindForScope(req.Scope)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown scope %q", ErrNoLoader, req.Scope)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrClosed
	}
	b, ok := h.bundles[req.Component]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownComponent, req.Component)
	}
	meta := b.Metadata()
	cm, ok := meta.Control(req.ControlID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s in %s", ErrUnknownControl, req.ControlID, req.Component)
	}
	loader, ok := cm.Loader(req.Scope)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s has no %s loader", ErrNoLoader, cm.Name, req.Scope)
	}
	c := newControl(h, meta, cm, loader, req)
	api, err := h.buildAPI(kind, c, req)
	if err != nil {
		return nil, nil, err
	}
	c.api = api
	ep, ok := b.EntryPoint(cm.ID, loader.Name)
	if !ok {
		ep = func(context.Context, v1.LoaderArgs) (common.CleanupFunc, error) {
			return nil, fmt.Errorf("bundle %s exports no entry point for loader %s", meta.Key(), loader.Name)
		}
	}
	c.initial = h.current.Clone()
	h.controls[c.id] = c
	return c, ep, nil
}

// complete marks c Mounted unless the host was closed while it loaded. A
// control loaded into a closed host is detached and its cleanup runs.
func (h *Host) complete(c *Control, cleanup common.CleanupFunc) bool {
	h.mu.Lock()
	if !h.closed {
		c.mounted(cleanup)
		h.mu.Unlock()
		return true
	}
	delete(h.controls, c.id)
	h.mu.Unlock()
	c.setState(StateUnloaded)
	_ = c.runCleanup(cleanup)
	return false
}

func (h *Host) buildAPI(kind v1.Kind, c *Control, req MountRequest) (v1.ComponentAPI, error) {
	switch kind {
	case v1.KindCard:
		if req.Card == nil || req.Card.Entity == nil {
			return nil, fmt.Errorf("%w: card needs an entity", ErrMissingBackend)
		}
		return newCardAPI(c, *req.Card), nil
	case v1.KindCover:
		var backend CoverBackend
		if req.Cover != nil {
			backend = *req.Cover
		}
		return newCoverAPI(c, backend), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrMissingBackend, kind)
	}
}

func (h *Host) detach(c *Control) {
	h.mu.Lock()
	delete(h.controls, c.id)
	h.mu.Unlock()
}

// Controls returns the attached controls ordered by mount id.
func (h *Host) Controls() []*Control {
	h.mu.Lock()
	out := make([]*Control, 0, len(h.controls))
	for _, c := range h.controls {
		out = append(out, c)
	}
	h.mu.Unlock()
	slices.SortFunc(out, func(a, b *Control) int { return strings.Compare(a.id, b.id) })
	return out
}

// Control returns the attached control with the given mount id.
func (h *Host) Control(id string) (*Control, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.controls[id]
	return c, ok
}

// Close unmounts every control and rejects further mounts. Controls still
// loading are cleaned up by their Mount once the entry point returns. A
// catalog opened by FromConfig is closed too.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	var errs []error
	for _, c := range h.Controls() {
		if err := c.Unmount(ctx); err != nil && !errors.Is(err, ErrStillLoading) {
			errs = append(errs, err)
		}
	}
	if h.ownsCatalog && h.catalog != nil {
		h.closeOnce.Do(func() {
			if err := h.catalog.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close catalog: %w", err))
			}
		})
	}
	return errors.Join(errs...)
}

func mountID(c common.Container) string {
	if c == nil {
		return ""
	}
	return c.MountID()
}
