package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	driver  Driver
	ddl     string
	rebind  func(query string) string
	timeArg func(time.Time) any
}

// sqlStore implements Store on database/sql. Each record is one row keyed by
// the component key, with the manifest stored as JSON.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

const upsertRecord = `INSERT INTO components (key, vendor, component, version, manifest, source, digest, installed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
	vendor = excluded.vendor,
	component = excluded.component,
	version = excluded.version,
	manifest = excluded.manifest,
	source = excluded.source,
	digest = excluded.digest,
	installed_at = excluded.installed_at`

const selectRecords = `SELECT key, manifest, source, digest, installed_at FROM components`

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*sqlStore, error) {
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create components table: %w", err)
	}
	return &sqlStore{db: db, d: d}, nil
}

func (s *sqlStore) Driver() Driver { return s.d.driver }

// DB exposes the underlying handle for tests and migrations.
func (s *sqlStore) DB() *sql.DB { return s.db }

func (s *sqlStore) Close() error { return s.db.Close() }

func (s *sqlStore) Put(ctx context.Context, rec Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", rec.Key, err)
	}
	m := rec.Manifest
	_, err = s.db.ExecContext(ctx, s.d.rebind(upsertRecord),
		rec.Key, m.VendorName, m.ComponentName, m.ComponentVersion,
		payload, rec.Source, rec.Digest, s.d.timeArg(rec.InstalledAt.UTC()))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Key, err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, key string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.d.rebind(selectRecords+` WHERE key = ?`), key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Record{}, fmt.Errorf("select %s: %w", key, err)
	}
	return rec, nil
}

func (s *sqlStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecords+` ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("select components: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqlStore) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM components WHERE key = ?`), key)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec     Record
		payload []byte
	)
	if err := sc.Scan(&rec.Key, &payload, &rec.Source, &rec.Digest, timeScanner{&rec.InstalledAt}); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(payload, &rec.Manifest); err != nil {
		return Record{}, fmt.Errorf("decode manifest %s: %w", rec.Key, err)
	}
	return rec, nil
}

// timeScanner accepts native timestamps as well as the RFC 3339 text the
// sqlite backend stores.
type timeScanner struct{ t *time.Time }

func (ts timeScanner) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*ts.t = time.Time{}
	case time.Time:
		*ts.t = x.UTC()
	case string:
		return ts.parse(x)
	case []byte:
		return ts.parse(string(x))
	default:
		return fmt.Errorf("unsupported installed_at type %T", v)
	}
	return nil
}

func (ts timeScanner) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse installed_at: %w", err)
	}
	*ts.t = t.UTC()
	return nil
}

func keepPlaceholders(q string) string { return q }

// dollarPlaceholders rewrites ? placeholders to $1, $2, ...
func dollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
