package host

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"remotehost/internal/actions"
	"remotehost/pkg/hostapi/common"
	v1 "remotehost/pkg/hostapi/v1"
)

// CardBackend is what the host exposes to a card control.
type CardBackend struct {
	Entity  common.Entity
	Actions *actions.CardSet
}

// CoverBackend is what the host exposes to a cover control.
type CoverBackend struct {
	Actions *actions.CoverSet
}

// base implements the ComponentAPI part shared by both kinds.
type base struct {
	c *Control
}

func (b base) Settings(ctx context.Context) (map[string]string, error) {
	return b.c.host.settings.Settings(ctx, b.c.component)
}

func (b base) OnControlUpdate(h v1.UpdateHandler) { b.c.setHandler(h) }

// execute runs fn as a traced, timed action. Unmounted controls are refused.
func (b base) execute(ctx context.Context, action string, fn func(context.Context) error) (err error) {
	h := b.c.host
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "host.ExecuteAction", trace.WithAttributes(
		attribute.String("component", b.c.component.Key()),
		attribute.String("mount.id", b.c.id),
		attribute.String("action", action),
	))
	defer func() {
		h.metrics.Observe(ctx, "action", err == nil, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if !b.c.active() {
		return &common.ActionError{Action: action, Err: common.ErrDisabled}
	}
	return fn(ctx)
}

type cardAPI struct {
	base
	entity  common.Entity
	actions *actions.CardSet
}

var _ v1.CardAPI = (*cardAPI)(nil)

func newCardAPI(c *Control, backend CardBackend) *cardAPI {
	set := backend.Actions
	if set == nil {
		set = actions.NewCardSet()
	}
	return &cardAPI{base: base{c: c}, entity: backend.Entity, actions: set}
}

func (a *cardAPI) Kind() v1.Kind { return v1.KindCard }

func (a *cardAPI) Entity() common.Entity { return a.entity }

func (a *cardAPI) ExecuteAction(ctx context.Context, name string) error {
	return a.execute(ctx, name, func(ctx context.Context) error {
		return a.actions.Execute(ctx, name)
	})
}

func (a *cardAPI) CanExecuteAction(name string) bool {
	return a.c.active() && a.actions.CanExecute(name)
}

type coverAPI struct {
	base
	actions *actions.CoverSet
}

var _ v1.CoverAPI = (*coverAPI)(nil)

func newCoverAPI(c *Control, backend CoverBackend) *coverAPI {
	set := backend.Actions
	if set == nil {
		set = actions.NewCoverSet()
	}
	return &coverAPI{base: base{c: c}, actions: set}
}

func (a *coverAPI) Kind() v1.Kind { return v1.KindCover }

func (a *coverAPI) ExecuteAction(ctx context.Context, id common.Guid) error {
	return a.execute(ctx, string(id), func(ctx context.Context) error {
		return a.actions.Execute(ctx, id)
	})
}

func (a *coverAPI) ActionsMetadata() []common.CoverActionMetadata {
	return a.actions.Metadata()
}
