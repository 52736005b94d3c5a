package common

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PropertyKind discriminates the property info variants.
type PropertyKind string

// Property info variants.
const (
	PropertyPlain      PropertyKind = "plain"
	PropertyEnum       PropertyKind = "enum"
	PropertyNavigation PropertyKind = "navigation"
)

// EnumPropertyValue is one permissible value of an enum property.
type EnumPropertyValue struct {
	Value        string `json:"Value" yaml:"value"`
	DisplayValue string `json:"DisplayValue" yaml:"displayValue"`
}

// NavigationPropertyValue is the value of a navigation property: the id of
// the referenced entity plus its display string.
type NavigationPropertyValue struct {
	Value        int64  `json:"Value" yaml:"value"`
	DisplayValue string `json:"DisplayValue" yaml:"displayValue"`
}

// PropertyInfo describes one property of an entity type. Kind selects which
// of EnumValues and TargetTypeID is meaningful.
type PropertyInfo struct {
	Kind         PropertyKind        `json:"kind" yaml:"kind"`
	Name         string              `json:"name" yaml:"name"`
	Type         string              `json:"type" yaml:"type"`
	DisplayValue string              `json:"displayValue" yaml:"displayValue"`
	EnumValues   []EnumPropertyValue `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`
	TargetTypeID Guid                `json:"typeId,omitempty" yaml:"typeId,omitempty"`
}

// PlainProperty describes a scalar property.
func PlainProperty(name, typ, display string) PropertyInfo {
	return PropertyInfo{Kind: PropertyPlain, Name: name, Type: typ, DisplayValue: display}
}

// EnumProperty describes a property restricted to values.
func EnumProperty(name, typ, display string, values ...EnumPropertyValue) PropertyInfo {
	return PropertyInfo{
		Kind:         PropertyEnum,
		Name:         name,
		Type:         typ,
		DisplayValue: display,
		EnumValues:   append([]EnumPropertyValue(nil), values...),
	}
}

// NavigationProperty describes a reference to an entity of type target.
func NavigationProperty(name, typ, display string, target Guid) PropertyInfo {
	return PropertyInfo{Kind: PropertyNavigation, Name: name, Type: typ, DisplayValue: display, TargetTypeID: target}
}

// Validate checks that the variant fields match Kind.
func (p PropertyInfo) Validate() error {
	if p.Name == "" {
		return errors.New("property name required")
	}
	switch p.Kind {
	case PropertyPlain:
		if len(p.EnumValues) > 0 || !p.TargetTypeID.IsZero() {
			return fmt.Errorf("plain property %s carries enum or navigation data", p.Name)
		}
	case PropertyEnum:
		if len(p.EnumValues) == 0 {
			return fmt.Errorf("enum property %s has no values", p.Name)
		}
		seen := make(map[string]struct{}, len(p.EnumValues))
		for _, v := range p.EnumValues {
			if _, dup := seen[v.Value]; dup {
				return fmt.Errorf("enum property %s repeats value %q", p.Name, v.Value)
			}
			seen[v.Value] = struct{}{}
		}
	case PropertyNavigation:
		if p.TargetTypeID.IsZero() {
			return fmt.Errorf("navigation property %s has no target type", p.Name)
		}
	default:
		return fmt.Errorf("property %s has unknown kind %q", p.Name, p.Kind)
	}
	return nil
}

// EnumValue looks up an enum value by its raw value.
func (p PropertyInfo) EnumValue(value string) (EnumPropertyValue, bool) {
	for _, v := range p.EnumValues {
		if v.Value == value {
			return v, true
		}
	}
	return EnumPropertyValue{}, false
}

// EntityInfo is the static schema of an entity type.
type EntityInfo struct {
	TypeID     Guid           `json:"typeId" yaml:"typeId"`
	Properties []PropertyInfo `json:"properties" yaml:"properties"`
}

// Property returns the property named name and its index.
func (i EntityInfo) Property(name string) (PropertyInfo, int, bool) {
	for idx, p := range i.Properties {
		if p.Name == name {
			return p, idx, true
		}
	}
	return PropertyInfo{}, -1, false
}

// Validate checks every property and rejects duplicate names.
func (i EntityInfo) Validate() error {
	seen := make(map[string]struct{}, len(i.Properties))
	var errs []error
	for _, p := range i.Properties {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[p.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate property %s", p.Name))
		}
		seen[p.Name] = struct{}{}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (i EntityInfo) Clone() EntityInfo {
	out := EntityInfo{TypeID: i.TypeID, Properties: make([]PropertyInfo, len(i.Properties))}
	for idx, p := range i.Properties {
		p.EnumValues = append([]EnumPropertyValue(nil), p.EnumValues...)
		out.Properties[idx] = p
	}
	return out
}

// PropertyState is the per-property editability and visibility.
type PropertyState struct {
	Name       string `json:"Name"`
	IsEnabled  bool   `json:"IsEnabled"`
	IsRequired bool   `json:"IsRequired"`
	IsVisible  bool   `json:"IsVisible"`
}

// EntityState is the editability of an entity. Properties is aligned with
// EntityInfo.Properties: same length, element i names the same property.
type EntityState struct {
	IsEnabled  bool            `json:"IsEnabled"`
	Properties []PropertyState `json:"Properties"`
}

// Clone returns a copy that shares nothing with s.
func (s EntityState) Clone() EntityState {
	return EntityState{IsEnabled: s.IsEnabled, Properties: append([]PropertyState(nil), s.Properties...)}
}

// CheckStateAlignment verifies that state lines up with info.
func CheckStateAlignment(info EntityInfo, state EntityState) error {
	if len(info.Properties) != len(state.Properties) {
		return fmt.Errorf("state has %d properties, schema has %d", len(state.Properties), len(info.Properties))
	}
	for i, p := range info.Properties {
		if state.Properties[i].Name != p.Name {
			return fmt.Errorf("state property %d is %q, schema has %q", i, state.Properties[i].Name, p.Name)
		}
	}
	return nil
}

// LockInfo describes who holds the edit lock on an entity.
type LockInfo struct {
	IsLocked     bool      `json:"IsLocked"`
	IsLockedByMe bool      `json:"IsLockedByMe"`
	IsLockedHere bool      `json:"IsLockedHere"`
	LockTime     time.Time `json:"LockTime"`
	OwnerName    string    `json:"OwnerName"`
}

// Entity is a host-managed business record. Accessors return snapshots that
// callers must treat as read-only; ChangeProperty is the only way to mutate.
type Entity interface {
	// ID is stable for the lifetime of the entity.
	ID() int64
	DisplayValue() string
	Info() EntityInfo
	// LockInfo is nil when locking does not apply to the entity.
	LockInfo() *LockInfo
	State() EntityState
	// ChangeProperty sets a property value. The change is applied only when
	// it returns nil. Failures match ErrUnknownProperty, ErrDisabled or
	// ErrValidation.
	ChangeProperty(ctx context.Context, propertyName string, newValue any) error
}

// ChildEntity is an entity owned by a collection of its root entity. Root is
// a navigation reference only; it does not govern the child's lifetime.
type ChildEntity[R Entity] interface {
	Entity
	RootEntity() R
}

// ChildEntityCollection is an ordered, host-owned sequence of child
// entities. Queries work on a snapshot taken at call time and never mutate
// the collection.
type ChildEntityCollection[R Entity, T ChildEntity[R]] interface {
	Len() int
	// AddNew creates a child, appends it and returns it.
	AddNew(ctx context.Context) (T, error)
	Remove(ctx context.Context, child T) error
	ForEach(fn func(item T, index int))
	// Filter returns a new slice of the items accepted by pred.
	Filter(pred func(item T, index int) bool) []T
	// Find returns the first item accepted by pred.
	Find(pred func(item T, index int) bool) (T, bool)
	// Sort returns a new slice ordered by cmp; the collection keeps its order.
	Sort(cmp func(a, b T) int) []T
	// Items returns a snapshot of the children.
	Items() []T
}

// MapChildren applies fn to a snapshot of c and returns the results.
func MapChildren[R Entity, T ChildEntity[R], U any](c ChildEntityCollection[R, T], fn func(item T, index int) U) []U {
	items := c.Items()
	out := make([]U, 0, len(items))
	for i, item := range items {
		out = append(out, fn(item, i))
	}
	return out
}
