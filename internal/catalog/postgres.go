package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	postgresDriverName = "pgx"
	// DefaultPostgresDSN is used when OpenPostgres is given an empty DSN.
	DefaultPostgresDSN = "postgres://localhost/remotehost?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var postgresDialect = dialect{
	driver: DriverPostgres,
	ddl: `CREATE TABLE IF NOT EXISTS components (
		key TEXT PRIMARY KEY,
		vendor TEXT NOT NULL,
		component TEXT NOT NULL,
		version TEXT NOT NULL,
		manifest JSONB NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		digest TEXT NOT NULL DEFAULT '',
		installed_at TIMESTAMPTZ NOT NULL
	)`,
	rebind:  dollarPlaceholders,
	timeArg: func(t time.Time) any { return t },
}

// Postgres is a catalog stored in a Postgres table.
type Postgres struct {
	*sqlStore
}

// OpenPostgres connects to dsn, verifies the connection and ensures the
// components table exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		dsn = DefaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriverName, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := newSQLStore(ctx, db, postgresDialect)
	if err != nil {
		return nil, err
	}
	return &Postgres{sqlStore: s}, nil
}

var _ Store = (*Postgres)(nil)
