// Package entity provides the host-owned entity implementation exposed to
// remote controls: records with schema-checked property changes, child
// entities and ordered child collections.
package entity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"remotehost/pkg/hostapi/common"
)

// Property type names understood by the value checks. Any other type name is
// accepted without coercion.
const (
	TypeString   = "String"
	TypeText     = "Text"
	TypeInteger  = "Integer"
	TypeDecimal  = "Decimal"
	TypeBoolean  = "Boolean"
	TypeDateTime = "DateTime"
	TypeGuid     = "Guid"
)

// Listener observes applied property changes.
type Listener func(e *Record, property string, oldValue, newValue any)

// Record is an in-memory entity. All accessors return copies.
type Record struct {
	id int64

	mu        sync.RWMutex
	display   string
	info      common.EntityInfo
	state     common.EntityState
	lock      *common.LockInfo
	values    map[string]any
	listeners []Listener
}

var _ common.Entity = (*Record)(nil)

// Option configures a Record at construction.
type Option func(*Record)

// WithValues seeds property values without validation.
func WithValues(values map[string]any) Option {
	return func(r *Record) {
		for k, v := range values {
			r.values[k] = v
		}
	}
}

// WithLock sets the initial lock state.
func WithLock(lock common.LockInfo) Option {
	return func(r *Record) { r.lock = &lock }
}

// WithState replaces the default fully-enabled state.
func WithState(state common.EntityState) Option {
	return func(r *Record) { r.state = state.Clone() }
}

// NewRecord builds a record for the schema. The default state enables and
// shows every property.
func NewRecord(id int64, display string, info common.EntityInfo, opts ...Option) (*Record, error) {
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("entity %d schema: %w", id, err)
	}
	r := &Record{
		id:      id,
		display: display,
		info:    info.Clone(),
		state:   DefaultState(info),
		values:  make(map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := common.CheckStateAlignment(r.info, r.state); err != nil {
		return nil, fmt.Errorf("entity %d state: %w", id, err)
	}
	return r, nil
}

// DefaultState returns an enabled state with every property enabled,
// visible and optional.
func DefaultState(info common.EntityInfo) common.EntityState {
	state := common.EntityState{IsEnabled: true, Properties: make([]common.PropertyState, len(info.Properties))}
	for i, p := range info.Properties {
		state.Properties[i] = common.PropertyState{Name: p.Name, IsEnabled: true, IsVisible: true}
	}
	return state
}

func (r *Record) ID() int64 { return r.id }

func (r *Record) DisplayValue() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.display
}

func (r *Record) Info() common.EntityInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.info.Clone()
}

func (r *Record) LockInfo() *common.LockInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lock == nil {
		return nil
	}
	cp := *r.lock
	return &cp
}

func (r *Record) State() common.EntityState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Value returns the current value of a property.
func (r *Record) Value(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[name]
	return v, ok
}

// Values returns a copy of all property values.
func (r *Record) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// ChangeProperty validates and applies a property change.
func (r *Record) ChangeProperty(ctx context.Context, propertyName string, newValue any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	prop, idx, ok := r.info.Property(propertyName)
	if !ok {
		r.mu.Unlock()
		return &common.PropertyError{Property: propertyName, Err: common.ErrUnknownProperty}
	}
	if err := r.editableLocked(idx); err != nil {
		r.mu.Unlock()
		return &common.PropertyError{Property: propertyName, Err: err}
	}
	value, err := coerce(prop, newValue)
	if err == nil && value == nil && r.state.Properties[idx].IsRequired {
		err = fmt.Errorf("%w: value required", common.ErrValidation)
	}
	if err != nil {
		r.mu.Unlock()
		return &common.PropertyError{Property: propertyName, Err: err}
	}
	old := r.values[propertyName]
	r.values[propertyName] = value
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		l(r, propertyName, old, value)
	}
	return nil
}

func (r *Record) editableLocked(idx int) error {
	if !r.state.IsEnabled {
		return fmt.Errorf("%w: entity is read-only", common.ErrDisabled)
	}
	if !r.state.Properties[idx].IsEnabled {
		return fmt.Errorf("%w: property is read-only", common.ErrDisabled)
	}
	if r.lock != nil && r.lock.IsLocked && !r.lock.IsLockedByMe {
		return fmt.Errorf("%w: locked by %s", common.ErrDisabled, r.lock.OwnerName)
	}
	return nil
}

// OnChange registers a listener called after every applied change.
func (r *Record) OnChange(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// SetDisplayValue updates the display string.
func (r *Record) SetDisplayValue(display string) {
	r.mu.Lock()
	r.display = display
	r.mu.Unlock()
}

// SetEnabled toggles editability of the whole entity.
func (r *Record) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.state.IsEnabled = enabled
	r.mu.Unlock()
}

// SetPropertyState replaces the state of one property. The name in state is
// ignored; the slot keeps the schema's property name.
func (r *Record) SetPropertyState(name string, state common.PropertyState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, idx, ok := r.info.Property(name)
	if !ok {
		return &common.PropertyError{Property: name, Err: common.ErrUnknownProperty}
	}
	state.Name = name
	r.state.Properties[idx] = state
	return nil
}

// SetLock sets or clears (nil) the lock state.
func (r *Record) SetLock(lock *common.LockInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lock == nil {
		r.lock = nil
		return
	}
	cp := *lock
	r.lock = &cp
}

// IDSequence hands out entity ids for records created by the host.
type IDSequence struct {
	last atomic.Int64
}

// NewIDSequence starts a sequence after start.
func NewIDSequence(start int64) *IDSequence {
	s := &IDSequence{}
	s.last.Store(start)
	return s
}

// Next returns the next id.
func (s *IDSequence) Next() int64 { return s.last.Add(1) }
