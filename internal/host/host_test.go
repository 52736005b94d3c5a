package host

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"remotehost/internal/actions"
	"remotehost/internal/catalog"
	"remotehost/internal/entity"
	"remotehost/internal/metrics"
	"remotehost/internal/settings"
	"remotehost/pkg/hostapi/common"
	v1 "remotehost/pkg/hostapi/v1"
)

const (
	widgetsKey = "acme/widgets@1.0.0"
	badgeID    = common.Guid("c1")
	panelID    = common.Guid("c2")
)

func widgetsManifest() common.ComponentMetadata {
	return common.ComponentMetadata{
		VendorName:       "acme",
		ComponentName:    "widgets",
		ComponentVersion: "1.0.0",
		Controls: []common.ControlMetadata{
			{ID: badgeID, Name: "Badge", Loaders: []common.LoaderMetadata{{Name: "main", Scope: common.ScopeCard}}},
			{ID: panelID, Name: "Panel", Loaders: []common.LoaderMetadata{{Name: "panel", Scope: common.ScopeCover}}},
		},
	}
}

// recorder collects what a control observes.
type recorder struct {
	api      chan v1.ComponentAPI
	initial  chan v1.Context
	updates  chan v1.Context
	cleanups atomic.Int32
}

func newRecorder() *recorder {
	return &recorder{
		api:     make(chan v1.ComponentAPI, 1),
		initial: make(chan v1.Context, 1),
		updates: make(chan v1.Context, 16),
	}
}

func (r *recorder) entryPoint(ctx context.Context, args v1.LoaderArgs) (common.CleanupFunc, error) {
	r.api <- args.API
	r.initial <- args.InitialContext
	args.API.OnControlUpdate(func(c v1.Context) { r.updates <- c })
	return func() { r.cleanups.Add(1) }, nil
}

func newOrder(t *testing.T) *entity.Record {
	t.Helper()
	rec, err := entity.NewRecord(42, "Order 42", common.EntityInfo{
		TypeID: "order",
		Properties: []common.PropertyInfo{
			common.PlainProperty("Title", entity.TypeString, "Title"),
		},
	})
	require.NoError(t, err)
	return rec
}

func newHost(t *testing.T, opts Options, bundles ...v1.Bundle) *Host {
	t.Helper()
	h := New(opts)
	for _, b := range bundles {
		require.NoError(t, h.RegisterBundle(context.Background(), b))
	}
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
}

func mountBadge(t *testing.T, h *Host, backend *CardBackend) *Control {
	t.Helper()
	c, err := h.Mount(context.Background(), MountRequest{
		Component: widgetsKey,
		ControlID: badgeID,
		Scope:     common.ScopeCard,
		Container: common.ContainerID("slot-1"),
		Card:      backend,
	})
	require.NoError(t, err)
	return c
}

func receive(t *testing.T, ch <-chan v1.Context) v1.Context {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no context delivered")
		return v1.Context{}
	}
}

func TestThemeChangeDeliversOneSnapshot(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{Context: v1.Context{Theme: common.ThemeDefault}},
		v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	assert.Equal(t, StateMounted, c.State())
	assert.Equal(t, common.ThemeDefault, (<-rec.initial).Theme)

	h.UpdateContext(func(ctx *v1.Context) { ctx.Theme = common.ThemeNight })

	got := receive(t, rec.updates)
	assert.Equal(t, common.ThemeNight, got.Theme)
	assert.NotNil(t, got.Logger)
	assert.Never(t, func() bool { return len(rec.updates) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestRejectedLoaderIsNeverCleanedUp(t *testing.T) {
	cause := errors.New("no license")
	var cleanups atomic.Int32
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(context.Context, v1.LoaderArgs) (common.CleanupFunc, error) {
		return func() { cleanups.Add(1) }, cause
	})
	h := newHost(t, Options{}, b)

	_, err := h.Mount(context.Background(), MountRequest{
		Component: widgetsKey, ControlID: badgeID, Scope: common.ScopeCard,
		Card: &CardBackend{Entity: newOrder(t)},
	})
	require.ErrorIs(t, err, common.ErrLoadFailure)
	require.ErrorIs(t, err, cause)
	var loadErr *common.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "Badge", loadErr.Control)
	assert.Equal(t, "main", loadErr.Loader)
	assert.Empty(t, h.Controls())

	require.NoError(t, h.Close(context.Background()))
	assert.Zero(t, cleanups.Load())
}

func TestEntryPointPanicIsLoadFailure(t *testing.T) {
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(context.Context, v1.LoaderArgs) (common.CleanupFunc, error) {
		panic("boom")
	})
	h := newHost(t, Options{}, b)
	_, err := h.Mount(context.Background(), MountRequest{
		Component: widgetsKey, ControlID: badgeID, Scope: common.ScopeCard,
		Card: &CardBackend{Entity: newOrder(t)},
	})
	require.ErrorIs(t, err, common.ErrLoadFailure)
	assert.ErrorContains(t, err, "panicked")
}

func TestMissingEntryPointIsLoadFailure(t *testing.T) {
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()))
	_, err := h.Mount(context.Background(), MountRequest{
		Component: widgetsKey, ControlID: badgeID, Scope: common.ScopeCard,
		Card: &CardBackend{Entity: newOrder(t)},
	})
	require.ErrorIs(t, err, common.ErrLoadFailure)
}

func TestUnmountCallsCleanupOnce(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	require.NoError(t, c.Unmount(context.Background()))
	require.NoError(t, c.Unmount(context.Background()))
	require.NoError(t, h.Close(context.Background()))

	assert.Equal(t, int32(1), rec.cleanups.Load())
	assert.Equal(t, StateUnloaded, c.State())
	_, ok := h.Control(c.ID())
	assert.False(t, ok)
}

func TestNilCleanupIsAllowed(t *testing.T) {
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(context.Context, v1.LoaderArgs) (common.CleanupFunc, error) {
		return nil, nil
	})
	h := newHost(t, Options{}, b)
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	require.NoError(t, c.Unmount(context.Background()))
}

func TestCleanupPanicIsRecovered(t *testing.T) {
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(context.Context, v1.LoaderArgs) (common.CleanupFunc, error) {
		return func() { panic("cleanup") }, nil
	})
	h := newHost(t, Options{}, b)
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	err := c.Unmount(context.Background())
	require.ErrorContains(t, err, "panicked")
	assert.Equal(t, StateUnloaded, c.State())
}

func TestNoUpdatesAfterUnmount(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	require.NoError(t, c.Unmount(context.Background()))

	h.UpdateContext(func(ctx *v1.Context) { ctx.Theme = common.ThemeNight })
	assert.Never(t, func() bool { return len(rec.updates) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, common.ThemeNight, h.Context().Theme)
}

func TestUnmountWaitsForRunningHandler(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var cleanedUp atomic.Bool
	var handlerDone atomic.Bool
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(_ context.Context, args v1.LoaderArgs) (common.CleanupFunc, error) {
		args.API.OnControlUpdate(func(v1.Context) {
			close(entered)
			<-release
			handlerDone.Store(true)
		})
		return func() {
			assert.True(t, handlerDone.Load(), "cleanup ran before the handler returned")
			cleanedUp.Store(true)
		}, nil
	})
	h := newHost(t, Options{}, b)
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	h.UpdateContext(func(ctx *v1.Context) { ctx.Theme = common.ThemeNight })
	<-entered

	unmounted := make(chan error, 1)
	go func() { unmounted <- c.Unmount(context.Background()) }()
	assert.Never(t, cleanedUp.Load, 50*time.Millisecond, 5*time.Millisecond)

	close(release)
	select {
	case err := <-unmounted:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("unmount did not finish")
	}
	assert.True(t, cleanedUp.Load())
}

func TestPendingUpdatesCoalesce(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)

	first := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	got := make(chan v1.Context, 8)
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(_ context.Context, args v1.LoaderArgs) (common.CleanupFunc, error) {
		args.API.OnControlUpdate(func(c v1.Context) {
			got <- c
			once.Do(func() {
				close(first)
				<-release
			})
		})
		return nil, nil
	})
	h := newHost(t, Options{Metrics: rec}, b)
	mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	culture := func(s string) func(*v1.Context) {
		return func(c *v1.Context) { c.CurrentCulture = &s }
	}
	h.UpdateContext(culture("en-US"))
	<-first
	h.UpdateContext(culture("de-DE"))
	h.UpdateContext(culture("fr-FR"))
	h.UpdateContext(culture("nl-NL"))
	close(release)

	assert.Equal(t, "en-US", *receive(t, got).CurrentCulture)
	assert.Equal(t, "nl-NL", *receive(t, got).CurrentCulture)
	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	const want = `
# HELP remotehost_context_updates_total Context update notifications by outcome.
# TYPE remotehost_context_updates_total counter
remotehost_context_updates_total{outcome="coalesced"} 2
remotehost_context_updates_total{outcome="delivered"} 2
`
	assert.Eventually(t, func() bool {
		return testutil.GatherAndCompare(reg, strings.NewReader(want), "remotehost_context_updates_total") == nil
	}, time.Second, 10*time.Millisecond)
}

func TestHandlerPanicIsAbsorbed(t *testing.T) {
	got := make(chan v1.Context, 4)
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(_ context.Context, args v1.LoaderArgs) (common.CleanupFunc, error) {
		args.API.OnControlUpdate(func(c v1.Context) {
			got <- c
			if c.Theme == common.ThemeNight {
				panic("night mode unsupported")
			}
		})
		return nil, nil
	})
	h := newHost(t, Options{}, b)
	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	h.UpdateContext(func(ctx *v1.Context) { ctx.Theme = common.ThemeNight })
	receive(t, got)
	h.UpdateContext(func(ctx *v1.Context) { ctx.Theme = common.ThemeDefault })
	assert.Equal(t, common.ThemeDefault, receive(t, got).Theme)
	assert.Equal(t, StateMounted, c.State())
}

func TestSnapshotsAreIndependent(t *testing.T) {
	rec := newRecorder()
	user := int64(7)
	h := newHost(t, Options{Context: v1.Context{
		UserID:         &user,
		ModuleLicenses: []common.ModuleLicense{{Name: "crm", Version: "1"}},
	}}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))
	mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	initial := <-rec.initial
	*initial.UserID = 99
	initial.ModuleLicenses[0].Name = "changed"

	current := h.Context()
	assert.Equal(t, int64(7), *current.UserID)
	assert.True(t, current.HasLicense("crm"))
}

func TestUpdateDuringLoadIsDeliveredAfterMount(t *testing.T) {
	var h *Host
	got := make(chan v1.Context, 4)
	b := v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", func(_ context.Context, args v1.LoaderArgs) (common.CleanupFunc, error) {
		args.API.OnControlUpdate(func(c v1.Context) { got <- c })
		h.UpdateContext(func(ctx *v1.Context) { ctx.Theme = common.ThemeNight })
		return nil, nil
	})
	h = newHost(t, Options{}, b)
	mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	assert.Equal(t, common.ThemeNight, receive(t, got).Theme)
}

func TestCardActions(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))

	var approved atomic.Int32
	var canChecks atomic.Int32
	set := actions.NewCardSet()
	require.NoError(t, set.Register("approve", actions.Action{
		Execute:    func(context.Context) error { approved.Add(1); return nil },
		CanExecute: func() bool { canChecks.Add(1); return true },
	}))
	require.NoError(t, set.Register("archive", actions.Action{
		Execute:    func(context.Context) error { return nil },
		CanExecute: func() bool { return false },
	}))
	order := newOrder(t)
	c := mountBadge(t, h, &CardBackend{Entity: order, Actions: set})
	card, ok := v1.AsCard(<-rec.api)
	require.True(t, ok)
	_, isCover := v1.AsCover(card)
	assert.False(t, isCover)

	for range 3 {
		assert.True(t, card.CanExecuteAction("approve"))
		assert.False(t, card.CanExecuteAction("archive"))
		assert.False(t, card.CanExecuteAction("missing"))
	}
	assert.Zero(t, approved.Load(), "CanExecuteAction must not execute")

	require.NoError(t, card.ExecuteAction(context.Background(), "approve"))
	assert.Equal(t, int32(1), approved.Load())
	require.ErrorIs(t, card.ExecuteAction(context.Background(), "missing"), common.ErrUnknownAction)
	require.ErrorIs(t, card.ExecuteAction(context.Background(), "archive"), common.ErrDisabled)

	typed, ok := v1.EntityAs[*entity.Record](card)
	require.True(t, ok)
	assert.Same(t, order, typed)

	require.NoError(t, c.Unmount(context.Background()))
	assert.False(t, card.CanExecuteAction("approve"))
	require.ErrorIs(t, card.ExecuteAction(context.Background(), "approve"), common.ErrDisabled)
}

func TestCoverActions(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(panelID, "panel", rec.entryPoint))

	set := actions.NewCoverSet()
	ran := make(chan common.Guid, 1)
	meta := common.CoverActionMetadata{ID: "a1", Title: "Refresh", Description: "Reload the panel"}
	require.NoError(t, set.Register(actions.CoverAction{
		Metadata: meta,
		Action:   actions.Action{Execute: func(context.Context) error { ran <- "a1"; return nil }},
	}))
	_, err := h.Mount(context.Background(), MountRequest{
		Component: widgetsKey, ControlID: panelID, Scope: common.ScopeCover,
		Cover: &CoverBackend{Actions: set},
	})
	require.NoError(t, err)

	cover, ok := v1.AsCover(<-rec.api)
	require.True(t, ok)
	first := cover.ActionsMetadata()
	assert.Equal(t, []common.CoverActionMetadata{meta}, first)
	first[0].Title = "changed"
	assert.Equal(t, []common.CoverActionMetadata{meta}, cover.ActionsMetadata())

	require.NoError(t, cover.ExecuteAction(context.Background(), "a1"))
	assert.Equal(t, common.Guid("a1"), <-ran)
	require.ErrorIs(t, cover.ExecuteAction(context.Background(), "zz"), common.ErrUnknownAction)
}

func TestCoverWithoutBackendHasNoActions(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(panelID, "panel", rec.entryPoint))
	_, err := h.Mount(context.Background(), MountRequest{Component: widgetsKey, ControlID: panelID, Scope: common.ScopeCover})
	require.NoError(t, err)
	cover, ok := v1.AsCover(<-rec.api)
	require.True(t, ok)
	assert.Empty(t, cover.ActionsMetadata())
}

func TestMountResolution(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))
	card := &CardBackend{Entity: newOrder(t)}
	cases := []struct {
		name string
		req  MountRequest
		want error
	}{
		{"unknown component", MountRequest{Component: "acme/other@1.0.0", ControlID: badgeID, Scope: common.ScopeCard, Card: card}, ErrUnknownComponent},
		{"unknown control", MountRequest{Component: widgetsKey, ControlID: "zz", Scope: common.ScopeCard, Card: card}, ErrUnknownControl},
		{"no loader for scope", MountRequest{Component: widgetsKey, ControlID: badgeID, Scope: common.ScopeCover}, ErrNoLoader},
		{"unknown scope", MountRequest{Component: widgetsKey, ControlID: badgeID, Scope: "Sidebar"}, ErrNoLoader},
		{"card without entity", MountRequest{Component: widgetsKey, ControlID: badgeID, Scope: common.ScopeCard}, ErrMissingBackend},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Mount(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.want)
			assert.NotErrorIs(t, err, common.ErrLoadFailure)
		})
	}
	assert.Empty(t, h.Controls())
}

func TestRegisterBundle(t *testing.T) {
	ctx := context.Background()
	store := catalog.NewMemory()
	h := New(Options{Catalog: store})

	require.NoError(t, h.RegisterBundle(ctx, v1.NewBundle(widgetsManifest())))
	rec, err := store.Get(ctx, widgetsKey)
	require.NoError(t, err)
	assert.Equal(t, widgetsManifest(), rec.Manifest)
	require.Len(t, h.Bundles(), 1)

	future := widgetsManifest()
	future.ComponentName = "future"
	future.HostAPIVersion = "2.0.0"
	require.Error(t, h.RegisterBundle(ctx, v1.NewBundle(future)))

	invalid := widgetsManifest()
	invalid.VendorName = ""
	require.Error(t, h.RegisterBundle(ctx, v1.NewBundle(invalid)))
	require.Error(t, h.RegisterBundle(ctx, nil))
	assert.Len(t, h.Bundles(), 1)
}

func TestSettings(t *testing.T) {
	rec := newRecorder()
	h := newHost(t, Options{Settings: settings.Static{
		"acme/widgets": {"endpoint": "https://widgets.example.com"},
	}}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))
	mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	api := <-rec.api
	got, err := api.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"endpoint": "https://widgets.example.com"}, got)
}

func TestMountAndUnmountAreTraced(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	rec := newRecorder()
	h := newHost(t, Options{TracerProvider: tp}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint))

	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	require.NoError(t, c.Unmount(context.Background()))

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"host.Mount", "host.Unmount"}, names)
}

func TestMountedGauge(t *testing.T) {
	rec, err := metrics.New(nil)
	require.NoError(t, err)
	r := newRecorder()
	h := newHost(t, Options{Metrics: rec}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", r.entryPoint))

	c := mountBadge(t, h, &CardBackend{Entity: newOrder(t)})
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.Collectors()[1]))
	require.NoError(t, c.Unmount(context.Background()))
	assert.Equal(t, float64(0), testutil.ToFloat64(rec.Collectors()[1]))
}

func TestCloseRejectsMounts(t *testing.T) {
	rec := newRecorder()
	h := New(Options{})
	require.NoError(t, h.RegisterBundle(context.Background(), v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", rec.entryPoint)))
	mountBadge(t, h, &CardBackend{Entity: newOrder(t)})

	require.NoError(t, h.Close(context.Background()))
	assert.Equal(t, int32(1), rec.cleanups.Load())
	_, err := h.Mount(context.Background(), MountRequest{Component: widgetsKey, ControlID: badgeID, Scope: common.ScopeCard, Card: &CardBackend{Entity: newOrder(t)}})
	require.ErrorIs(t, err, ErrClosed)
}

// gatedEntryPoint blocks in the entry point until release is closed.
type gatedEntryPoint struct {
	entered  chan struct{}
	release  chan struct{}
	cleanups atomic.Int32
}

func newGatedEntryPoint() *gatedEntryPoint {
	return &gatedEntryPoint{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedEntryPoint) run(context.Context, v1.LoaderArgs) (common.CleanupFunc, error) {
	close(g.entered)
	<-g.release
	return func() { g.cleanups.Add(1) }, nil
}

type mountResult struct {
	c   *Control
	err error
}

func mountAsync(t *testing.T, h *Host, g *gatedEntryPoint) <-chan mountResult {
	t.Helper()
	out := make(chan mountResult, 1)
	order := newOrder(t)
	go func() {
		c, err := h.Mount(context.Background(), MountRequest{
			Component: widgetsKey,
			ControlID: badgeID,
			Scope:     common.ScopeCard,
			Card:      &CardBackend{Entity: order},
		})
		out <- mountResult{c, err}
	}()
	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("entry point not entered")
	}
	return out
}

func TestUnmountWhileLoading(t *testing.T) {
	g := newGatedEntryPoint()
	h := newHost(t, Options{}, v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", g.run))
	done := mountAsync(t, h, g)

	controls := h.Controls()
	require.Len(t, controls, 1)
	loading := controls[0]
	assert.Equal(t, StateLoading, loading.State())
	require.ErrorIs(t, loading.Unmount(context.Background()), ErrStillLoading)

	close(g.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Same(t, loading, res.c)
	assert.Equal(t, StateMounted, res.c.State())

	require.NoError(t, res.c.Unmount(context.Background()))
	assert.Equal(t, StateUnloaded, res.c.State())
	assert.Equal(t, int32(1), g.cleanups.Load())
}

func TestCloseWhileLoadingCleansUpControl(t *testing.T) {
	g := newGatedEntryPoint()
	h := New(Options{})
	require.NoError(t, h.RegisterBundle(context.Background(), v1.NewBundle(widgetsManifest()).Handle(badgeID, "main", g.run)))
	done := mountAsync(t, h, g)

	require.NoError(t, h.Close(context.Background()))
	assert.Equal(t, int32(0), g.cleanups.Load())

	close(g.release)
	res := <-done
	require.ErrorIs(t, res.err, ErrClosed)
	assert.Nil(t, res.c)
	assert.Equal(t, int32(1), g.cleanups.Load())
	assert.Empty(t, h.Controls())
	require.NoError(t, h.Close(context.Background()))
	assert.Equal(t, int32(1), g.cleanups.Load())
}
