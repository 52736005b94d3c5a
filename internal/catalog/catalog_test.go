package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remotehost/pkg/hostapi/common"
)

func widgets(version string) common.ComponentMetadata {
	return common.ComponentMetadata{
		VendorName:       "acme",
		ComponentName:    "widgets",
		ComponentVersion: version,
		Controls: []common.ControlMetadata{{
			ID:      "c1",
			Name:    "Badge",
			Loaders: []common.LoaderMetadata{{Name: "badgeCard", Scope: common.ScopeCard}},
		}},
	}
}

func TestStores(t *testing.T) {
	for _, tc := range []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: "memory", open: func(*testing.T) Store { return NewMemory() }},
		{name: "sqlite", open: func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "catalog.db"))
			require.NoError(t, err)
			return s
		}},
		{name: "postgres", open: func(t *testing.T) Store {
			dsn := os.Getenv("REMOTEHOST_TEST_POSTGRES_DSN")
			if dsn == "" {
				t.Skip("REMOTEHOST_TEST_POSTGRES_DSN not set")
			}
			s, err := OpenPostgres(context.Background(), dsn)
			require.NoError(t, err)
			_, err = s.DB().Exec(`DELETE FROM components`)
			require.NoError(t, err)
			return s
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.open(t)
			t.Cleanup(func() { _ = s.Close() })
			exerciseStore(t, s)
		})
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	installed := time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	rec := NewRecord(widgets("1.0.0"), installed)
	rec.Source = "acme/widgets.json"
	rec.Digest = "abc"
	require.NoError(t, s.Put(ctx, rec))
	require.NoError(t, s.Put(ctx, NewRecord(widgets("0.9.0"), installed)))

	got, err := s.Get(ctx, "acme/widgets@1.0.0")
	require.NoError(t, err)
	assert.Equal(t, rec.Key, got.Key)
	assert.Equal(t, rec.Manifest, got.Manifest)
	assert.Equal(t, "acme/widgets.json", got.Source)
	assert.Equal(t, "abc", got.Digest)
	assert.True(t, installed.Equal(got.InstalledAt), "installed at %s", got.InstalledAt)

	rec.Digest = "def"
	require.NoError(t, s.Put(ctx, rec), "put replaces")
	got, err = s.Get(ctx, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, "def", got.Digest)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "acme/widgets@0.9.0", list[0].Key)
	assert.Equal(t, "acme/widgets@1.0.0", list[1].Key)

	_, err = s.Get(ctx, "acme/missing@1.0.0")
	require.ErrorIs(t, err, ErrNotFound)

	removed, err := s.Delete(ctx, rec.Key)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Delete(ctx, rec.Key)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPutRejectsMismatchedKey(t *testing.T) {
	rec := NewRecord(widgets("1.0.0"), time.Now())
	rec.Key = "acme/other@1.0.0"
	require.Error(t, NewMemory().Put(context.Background(), rec))

	rec.Key = ""
	require.Error(t, NewMemory().Put(context.Background(), rec))
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Put(ctx, NewRecord(widgets("1.0.0"), time.Now())))
	got, err := s.Get(ctx, "acme/widgets@1.0.0")
	require.NoError(t, err)
	got.Manifest.Controls[0].Name = "Changed"

	again, err := s.Get(ctx, "acme/widgets@1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "Badge", again.Manifest.Controls[0].Name)
}

func TestSQLiteReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Put(ctx, NewRecord(widgets("1.0.0"), time.Now())))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "acme/widgets@1.0.0", list[0].Key)
}

func TestOpenPostgresPropagatesOpenError(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driver)
		assert.Equal(t, DefaultPostgresDSN, dsn)
		return nil, errors.New("boom")
	}
	_, err := OpenPostgres(context.Background(), "")
	require.ErrorContains(t, err, "open postgres: boom")
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: DriverMemory})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	s, err = Open(ctx, Config{SQLitePath: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, s.Driver())
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "mongo"})
	require.ErrorContains(t, err, "unknown catalog driver")
}

func TestDollarPlaceholders(t *testing.T) {
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", dollarPlaceholders("SELECT a FROM t WHERE x = ? AND y = ?"))
}

func TestTimeScanner(t *testing.T) {
	var got time.Time
	ts := timeScanner{&got}
	require.NoError(t, ts.Scan("2024-05-01T12:30:00Z"))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), got)
	require.NoError(t, ts.Scan([]byte("2024-05-02T00:00:00Z")))
	assert.Equal(t, 2, got.Day())
	require.NoError(t, ts.Scan(nil))
	assert.True(t, got.IsZero())
	require.Error(t, ts.Scan(42))
}
