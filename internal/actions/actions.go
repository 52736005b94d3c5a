// Package actions holds the host-side action tables behind the card and
// cover APIs.
package actions

import (
	"context"
	"fmt"
	"sync"

	"remotehost/pkg/hostapi/common"
)

// Action is an executable host action. CanExecute must be cheap and free of
// side effects; a nil CanExecute means always executable.
type Action struct {
	Execute    func(ctx context.Context) error
	CanExecute func() bool
}

func (a Action) can() bool {
	return a.CanExecute == nil || a.CanExecute()
}

// CardSet is the set of card actions, addressed by name.
type CardSet struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewCardSet returns an empty card action set.
func NewCardSet() *CardSet {
	return &CardSet{actions: make(map[string]Action)}
}

// Register adds or replaces the action called name.
func (s *CardSet) Register(name string, action Action) error {
	if name == "" {
		return fmt.Errorf("card action name required")
	}
	if action.Execute == nil {
		return fmt.Errorf("card action %s has no Execute", name)
	}
	s.mu.Lock()
	s.actions[name] = action
	s.mu.Unlock()
	return nil
}

// CanExecute reports whether the named action exists and is currently
// executable.
func (s *CardSet) CanExecute(name string) bool {
	s.mu.RLock()
	action, ok := s.actions[name]
	s.mu.RUnlock()
	return ok && action.can()
}

// Execute runs the named action.
func (s *CardSet) Execute(ctx context.Context, name string) error {
	s.mu.RLock()
	action, ok := s.actions[name]
	s.mu.RUnlock()
	return run(ctx, name, action, ok)
}

// CoverAction is a cover action together with its metadata.
type CoverAction struct {
	Metadata common.CoverActionMetadata
	Action
}

// CoverSet is the ordered set of cover actions, addressed by id.
type CoverSet struct {
	mu    sync.RWMutex
	order []common.Guid
	byID  map[common.Guid]CoverAction
}

// NewCoverSet returns an empty cover action set.
func NewCoverSet() *CoverSet {
	return &CoverSet{byID: make(map[common.Guid]CoverAction)}
}

// Register adds a cover action. Ids must be unique.
func (s *CoverSet) Register(action CoverAction) error {
	id := action.Metadata.ID
	if id.IsZero() {
		return fmt.Errorf("cover action id required")
	}
	if action.Execute == nil {
		return fmt.Errorf("cover action %s has no Execute", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; exists {
		return fmt.Errorf("cover action %s already registered", id)
	}
	s.byID[id] = action
	s.order = append(s.order, id)
	return nil
}

// Metadata lists the registered actions in registration order.
func (s *CoverSet) Metadata() []common.CoverActionMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.CoverActionMetadata, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Metadata)
	}
	return out
}

// Execute runs the cover action with the given id.
func (s *CoverSet) Execute(ctx context.Context, id common.Guid) error {
	s.mu.RLock()
	action, ok := s.byID[id]
	s.mu.RUnlock()
	return run(ctx, string(id), action.Action, ok)
}

func run(ctx context.Context, name string, action Action, ok bool) error {
	if !ok {
		return &common.ActionError{Action: name, Err: common.ErrUnknownAction}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !action.can() {
		return &common.ActionError{Action: name, Err: common.ErrDisabled}
	}
	if err := action.Execute(ctx); err != nil {
		return &common.ActionError{Action: name, Err: err}
	}
	return nil
}
