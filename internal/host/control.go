package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"remotehost/internal/logging"
	"remotehost/internal/metrics"
	"remotehost/pkg/hostapi/common"
	v1 "remotehost/pkg/hostapi/v1"
)

// State is the lifecycle stage of a control.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateMounted
	StateUnmounting
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "Unloaded"
	case StateLoading:
		return "Loading"
	case StateMounted:
		return "Mounted"
	case StateUnmounting:
		return "Unmounting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrStillLoading is returned by Unmount while the entry point runs.
var ErrStillLoading = errors.New("host: control is still loading")

// Control is one mounted (or mounting) control instance.
type Control struct {
	id        string
	host      *Host
	component common.ComponentMetadata
	control   common.ControlMetadata
	loader    common.LoaderMetadata
	container common.Container
	info      common.ControlInfo
	api       v1.ComponentAPI
	log       *logging.Logger
	initial   v1.Context

	// gate is held while an update handler runs.
	gate chan struct{}
	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	mu       sync.Mutex
	state    State
	stopping bool
	cleanup  common.CleanupFunc
	handler  v1.UpdateHandler
	pending  *v1.Context
}

func newControl(h *Host, meta common.ComponentMetadata, cm common.ControlMetadata, loader common.LoaderMetadata, req MountRequest) *Control {
	id := common.NewGuid().String()
	return &Control{
		id:        id,
		host:      h,
		component: meta,
		control:   cm,
		loader:    loader,
		container: req.Container,
		info:      req.ControlInfo,
		log:       h.log.With("component", meta.Key(), "control", cm.Name, "mount", id),
		gate:      make(chan struct{}, 1),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		state:     StateLoading,
	}
}

// ID is the mount id, unique per mount.
func (c *Control) ID() string { return c.id }

// Component returns the manifest of the owning component.
func (c *Control) Component() common.ComponentMetadata { return c.component.Clone() }

// Metadata returns the control declaration.
func (c *Control) Metadata() common.ControlMetadata {
	out := c.control
	out.Loaders = append([]common.LoaderMetadata(nil), c.control.Loaders...)
	return out
}

// Loader returns the loader the control was mounted with.
func (c *Control) Loader() common.LoaderMetadata { return c.loader }

// API returns the API object handed to the entry point.
func (c *Control) API() v1.ComponentAPI { return c.api }

// State returns the current lifecycle stage.
func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Control) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// active reports whether API calls from the control are still served.
func (c *Control) active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopping && (c.state == StateLoading || c.state == StateMounted)
}

func (c *Control) setHandler(h v1.UpdateHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// snapshot returns a fresh copy of ctx carrying the control's logger.
func (c *Control) snapshot(ctx v1.Context) v1.Context {
	out := ctx.Clone()
	out.Logger = c.log
	return out
}

func (c *Control) run(ctx context.Context, ep v1.EntryPoint) (cleanup common.CleanupFunc, err error) {
	defer func() {
		if r := recover(); r != nil {
			cleanup, err = nil, fmt.Errorf("entry point panicked: %v", r)
		}
	}()
	return ep(ctx, v1.LoaderArgs{
		Container:      c.container,
		InitialContext: c.snapshot(c.initial),
		API:            c.api,
		ControlInfo:    c.info,
	})
}

// mounted completes a successful load and starts update delivery. Changes
// made while loading are delivered right away.
func (c *Control) mounted(cleanup common.CleanupFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup = cleanup
	c.state = StateMounted
	go c.dispatch()
	if c.pending != nil {
		c.signal()
	}
}

// enqueue replaces any undelivered snapshot with next. Called with
// Host.mu held, which orders snapshots across concurrent updates.
func (c *Control) enqueue(next v1.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopping || (c.state != StateLoading && c.state != StateMounted) {
		return
	}
	if c.pending != nil {
		c.host.metrics.Update(metrics.UpdateCoalesced)
	}
	c.pending = &next
	if c.state == StateMounted {
		c.signal()
	}
}

func (c *Control) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Control) dispatch() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case <-c.wake:
		}
		if !c.deliverPending() {
			return
		}
	}
}

// deliverPending hands the pending snapshot to the handler. It reports
// false once the control is stopping.
func (c *Control) deliverPending() bool {
	c.gate <- struct{}{}
	defer func() { <-c.gate }()

	c.mu.Lock()
	if c.stopping || c.state != StateMounted {
		c.mu.Unlock()
		return false
	}
	snap, handler := c.pending, c.handler
	c.pending = nil
	c.mu.Unlock()

	switch {
	case snap == nil:
	case handler == nil:
		c.host.metrics.Update(metrics.UpdateDropped)
	default:
		c.deliver(handler, *snap)
	}
	return true
}

func (c *Control) deliver(handler v1.UpdateHandler, snap v1.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.host.metrics.Update(metrics.UpdatePanicked)
			c.log.Error(fmt.Errorf("%v", r), "Update handler of {Control} panicked", c.control.Name)
		}
	}()
	handler(c.snapshot(snap))
	c.host.metrics.Update(metrics.UpdateDelivered)
}

// Unmount stops update delivery, waits for an update handler that is
// already running, then calls the cleanup returned by the entry point.
// Cleanup runs exactly once; later calls return nil. Unmount must not be
// called from the control's own update handler unless ctx can expire, since
// it would wait for that handler.
func (c *Control) Unmount(ctx context.Context) (err error) {
	c.mu.Lock()
	switch {
	case c.stopping || c.state == StateUnloaded:
		c.mu.Unlock()
		return nil
	case c.state == StateLoading:
		c.mu.Unlock()
		return ErrStillLoading
	}
	c.stopping = true
	c.mu.Unlock()

	h := c.host
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "host.Unmount", trace.WithAttributes(
		attribute.String("component", c.component.Key()),
		attribute.String("mount.id", c.id),
	))
	defer func() {
		h.metrics.Observe(ctx, "unmount", err == nil, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	waited := c.waitHandler(ctx)
	c.setState(StateUnmounting)
	if waited {
		<-c.gate
	}
	close(c.stop)
	if waited {
		<-c.done
	}
	h.detach(c)

	c.mu.Lock()
	cleanup := c.cleanup
	c.cleanup, c.handler, c.pending = nil, nil, nil
	c.mu.Unlock()
	err = c.runCleanup(cleanup)

	c.setState(StateUnloaded)
	h.metrics.Unmounted()
	c.log.Info("Unmounted {Control}", c.control.Name)
	return err
}

// waitHandler acquires the handler gate. It gives up when ctx ends.
func (c *Control) waitHandler(ctx context.Context) bool {
	select {
	case c.gate <- struct{}{}:
		return true
	case <-ctx.Done():
		c.log.Warning("Unmount of {Control} stopped waiting for its update handler", c.control.Name)
		return false
	}
}

func (c *Control) runCleanup(cleanup common.CleanupFunc) (err error) {
	if cleanup == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup of %s panicked: %v", c.control.Name, r)
			c.log.Error(err, "Cleanup of {Control} panicked", c.control.Name)
		}
	}()
	cleanup()
	return nil
}
