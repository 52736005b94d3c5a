package v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotehost/pkg/hostapi/common"
)

type stubEntity struct{ id int64 }

func (e stubEntity) ID() int64                                       { return e.id }
func (stubEntity) DisplayValue() string                              { return "stub" }
func (stubEntity) Info() common.EntityInfo                           { return common.EntityInfo{} }
func (stubEntity) LockInfo() *common.LockInfo                        { return nil }
func (stubEntity) State() common.EntityState                         { return common.EntityState{} }
func (stubEntity) ChangeProperty(context.Context, string, any) error { return nil }

type stubCard struct{ entity common.Entity }

func (stubCard) Kind() Kind                                          { return KindCard }
func (stubCard) Settings(context.Context) (map[string]string, error) { return nil, nil }
func (stubCard) OnControlUpdate(UpdateHandler)                       {}
func (stubCard) ExecuteAction(context.Context, string) error         { return nil }
func (stubCard) CanExecuteAction(string) bool                        { return true }
func (c stubCard) Entity() common.Entity                             { return c.entity }

type stubCover struct{}

func (stubCover) Kind() Kind                                          { return KindCover }
func (stubCover) Settings(context.Context) (map[string]string, error) { return nil, nil }
func (stubCover) OnControlUpdate(UpdateHandler)                       {}
func (stubCover) ExecuteAction(context.Context, common.Guid) error    { return nil }
func (stubCover) ActionsMetadata() []common.CoverActionMetadata       { return nil }

func TestKindScopeMapping(t *testing.T) {
	for _, scope := range common.RuntimeScopes() {
		kind, ok := KindForScope(scope)
		require.True(t, ok, scope)
		back, ok := kind.Scope()
		require.True(t, ok)
		assert.Equal(t, scope, back)
	}
	_, ok := KindForScope("Sidebar")
	assert.False(t, ok)
	_, ok = Kind("panel").Scope()
	assert.False(t, ok)
}

func TestAsCardAsCover(t *testing.T) {
	var api ComponentAPI = stubCard{entity: stubEntity{id: 7}}
	card, ok := AsCard(api)
	require.True(t, ok)
	_, ok = AsCover(api)
	assert.False(t, ok)

	e, ok := EntityAs[stubEntity](card)
	require.True(t, ok)
	assert.Equal(t, int64(7), e.ID())

	api = stubCover{}
	_, ok = AsCover(api)
	assert.True(t, ok)
	_, ok = AsCard(api)
	assert.False(t, ok)
	_, ok = AsCard(nil)
	assert.False(t, ok)
}

func TestContextCloneIsDetached(t *testing.T) {
	uid := int64(42)
	tenant := "north"
	ctx := Context{
		UserID:         &uid,
		Tenant:         &tenant,
		Theme:          common.ThemeDefault,
		ModuleLicenses: []common.ModuleLicense{{Name: "crm", Version: "2"}},
	}
	cp := ctx.Clone()
	*cp.UserID = 1
	*cp.Tenant = "south"
	cp.ModuleLicenses[0].Name = "erp"

	assert.Equal(t, int64(42), *ctx.UserID)
	assert.Equal(t, "north", *ctx.Tenant)
	assert.True(t, ctx.HasLicense("crm"))
	assert.NotNil(t, cp.Logger, "clone always carries a logger")
	assert.Nil(t, cp.ClientID)
}

func TestStaticBundle(t *testing.T) {
	meta := common.ComponentMetadata{VendorName: "Acme", ComponentName: "Widgets", ComponentVersion: "1.0.0"}
	called := false
	b := NewBundle(meta).Handle("c1", "main", func(context.Context, LoaderArgs) (common.CleanupFunc, error) {
		called = true
		return nil, nil
	})
	ep, ok := b.EntryPoint("c1", "main")
	require.True(t, ok)
	_, err := ep(context.Background(), LoaderArgs{})
	require.NoError(t, err)
	assert.True(t, called)

	_, ok = b.EntryPoint("c1", "other")
	assert.False(t, ok)
	_, ok = b.EntryPoint("c2", "main")
	assert.False(t, ok)
	assert.Equal(t, "Acme/Widgets@1.0.0", b.Metadata().Key())
}

func TestStaticBundleKeysDoNotCollide(t *testing.T) {
	var got []string
	entry := func(name string) EntryPoint {
		return func(context.Context, LoaderArgs) (common.CleanupFunc, error) {
			got = append(got, name)
			return nil, nil
		}
	}
	b := NewBundle(common.ComponentMetadata{}).
		Handle("a/b", "c", entry("first")).
		Handle("a", "b/c", entry("second"))

	for _, tc := range []struct {
		control common.Guid
		loader  string
	}{{"a/b", "c"}, {"a", "b/c"}} {
		ep, ok := b.EntryPoint(tc.control, tc.loader)
		require.True(t, ok)
		_, err := ep(context.Background(), LoaderArgs{})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"first", "second"}, got)
	_, ok := b.EntryPoint("a/b/c", "")
	assert.False(t, ok)
}
