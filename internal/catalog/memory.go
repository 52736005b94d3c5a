package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Close() error { return nil }

func (m *Memory) Put(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkRecord(rec); err != nil {
		return err
	}
	rec.Manifest = rec.Manifest.Clone()
	m.mu.Lock()
	m.records[rec.Key] = rec
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (Record, error) {
	m.mu.RLock()
	rec, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	rec.Manifest = rec.Manifest.Clone()
	return rec, nil
}

func (m *Memory) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		rec.Manifest = rec.Manifest.Clone()
		out = append(out, rec)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Record) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; !ok {
		return false, nil
	}
	delete(m.records, key)
	return true, nil
}

var _ Store = (*Memory)(nil)
