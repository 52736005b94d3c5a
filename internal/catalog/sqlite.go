package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// DefaultSQLitePath is used when OpenSQLite is given an empty path.
const DefaultSQLitePath = "remotehost.db"

var sqliteDialect = dialect{
	driver: DriverSQLite,
	ddl: `CREATE TABLE IF NOT EXISTS components (
		key TEXT PRIMARY KEY,
		vendor TEXT NOT NULL,
		component TEXT NOT NULL,
		version TEXT NOT NULL,
		manifest BLOB NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		digest TEXT NOT NULL DEFAULT '',
		installed_at TEXT NOT NULL
	)`,
	rebind:  keepPlaceholders,
	timeArg: func(t time.Time) any { return t.Format(time.RFC3339Nano) },
}

// SQLite is a catalog stored in a single SQLite file.
type SQLite struct {
	*sqlStore
	path string
}

// OpenSQLite opens (creating if needed) the catalog database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under
	// concurrent imports.
	db.SetMaxOpenConns(1)
	s, err := newSQLStore(ctx, db, sqliteDialect)
	if err != nil {
		return nil, err
	}
	return &SQLite{sqlStore: s, path: path}, nil
}

// Path returns the database file.
func (s *SQLite) Path() string { return s.path }

var _ Store = (*SQLite)(nil)
