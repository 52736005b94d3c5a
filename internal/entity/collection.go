package entity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"remotehost/pkg/hostapi/common"
)

// ErrNotInCollection is returned when removing a child the collection does
// not hold.
var ErrNotInCollection = errors.New("child not in collection")

// Child is a record that belongs to a root entity's collection.
type Child[R common.Entity] struct {
	*Record
	root R
}

// RootEntity returns the owning root. It is a navigation reference only.
func (c *Child[R]) RootEntity() R { return c.root }

// Collection is an ordered set of children of one root entity.
type Collection[R common.Entity] struct {
	root R
	info common.EntityInfo
	ids  *IDSequence

	mu    sync.RWMutex
	items []*Child[R]
}

var _ common.ChildEntityCollection[*Record, *Child[*Record]] = (*Collection[*Record])(nil)

// NewCollection creates an empty collection whose children use info as their
// schema. ids supplies the ids of new children.
func NewCollection[R common.Entity](root R, info common.EntityInfo, ids *IDSequence) (*Collection[R], error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("child schema: %w", err)
	}
	if ids == nil {
		ids = NewIDSequence(0)
	}
	return &Collection[R]{root: root, info: info.Clone(), ids: ids}, nil
}

// Len returns the number of children.
func (c *Collection[R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// AddNew creates a child with default state and appends it.
func (c *Collection[R]) AddNew(ctx context.Context) (*Child[R], error) {
	return c.AddNewWith(ctx)
}

// AddNewWith is AddNew with construction options for the child record.
func (c *Collection[R]) AddNewWith(ctx context.Context, opts ...Option) (*Child[R], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := NewRecord(c.ids.Next(), "", c.info, opts...)
	if err != nil {
		return nil, err
	}
	child := &Child[R]{Record: rec, root: c.root}
	c.mu.Lock()
	c.items = append(c.items, child)
	c.mu.Unlock()
	return child, nil
}

// Remove deletes child from the collection.
func (c *Collection[R]) Remove(ctx context.Context, child *Child[R]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := slices.Index(c.items, child)
	if idx < 0 {
		if child == nil {
			return ErrNotInCollection
		}
		return fmt.Errorf("child %d: %w", child.ID(), ErrNotInCollection)
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	return nil
}

// Items returns a snapshot of the children in order.
func (c *Collection[R]) Items() []*Child[R] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// ForEach calls fn for every child of a snapshot.
func (c *Collection[R]) ForEach(fn func(item *Child[R], index int)) {
	for i, item := range c.Items() {
		fn(item, i)
	}
}

// Filter returns the children accepted by pred.
func (c *Collection[R]) Filter(pred func(item *Child[R], index int) bool) []*Child[R] {
	out := []*Child[R]{}
	for i, item := range c.Items() {
		if pred(item, i) {
			out = append(out, item)
		}
	}
	return out
}

// Find returns the first child accepted by pred.
func (c *Collection[R]) Find(pred func(item *Child[R], index int) bool) (*Child[R], bool) {
	for i, item := range c.Items() {
		if pred(item, i) {
			return item, true
		}
	}
	return nil, false
}

// Sort returns the children ordered by cmp. The collection order is kept.
func (c *Collection[R]) Sort(cmp func(a, b *Child[R]) int) []*Child[R] {
	items := c.Items()
	slices.SortStableFunc(items, cmp)
	return items
}
