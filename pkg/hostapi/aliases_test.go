package hostapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "remotehost/pkg/hostapi/v1"
)

func TestLatestIsV1(t *testing.T) {
	assert.Equal(t, v1.Version, Version)
	assert.Equal(t, v1.HostAPIVersion, HostAPIVersion)
}

func TestPinnedAndDefaultSurfacesInteroperate(t *testing.T) {
	meta := ComponentMetadata{
		VendorName:       "Acme",
		ComponentName:    "Widgets",
		ComponentVersion: "1.0.0",
		Controls: []ControlMetadata{{
			ID:      "c1",
			Name:    "Badge",
			Loaders: []LoaderMetadata{{Name: "main", Scope: ScopeCard}},
		}},
	}
	var ep EntryPoint = func(context.Context, LoaderArgs) (CleanupFunc, error) { return func() {}, nil }

	var pinned v1.Bundle = NewBundle(meta).Handle("c1", "main", ep)
	got, ok := pinned.EntryPoint("c1", "main")
	require.True(t, ok)
	cleanup, err := got(context.Background(), v1.LoaderArgs{InitialContext: Context{Theme: ThemeNight}})
	require.NoError(t, err)
	assert.NotNil(t, cleanup)
}
