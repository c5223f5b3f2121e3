package service

import (
	"context"
	"sync"
	"time"
)

// ActionKind labels a pending confirmation
type ActionKind string

const (
	ActionKindLeave   ActionKind = "leave"
	ActionKindDisband ActionKind = "disband"
	ActionKindUpgrade ActionKind = "upgrade"
)

// ActionFunc is one half of a confirm/decline pair
type ActionFunc func(ctx context.Context) error

// PendingAction is a registered confirmation awaiting the actor's answer
type PendingAction struct {
	Actor     string
	Kind      ActionKind
	CreatedAt time.Time

	accept  ActionFunc
	decline ActionFunc
}

// ActionCoordinator keeps at most one pending action per actor.
// Pending actions never expire; they live until confirmed, declined,
// cleared or overwritten.
type ActionCoordinator struct {
	mu      sync.Mutex
	pending map[string]*PendingAction
	now     func() time.Time
}

// NewActionCoordinator creates an empty coordinator
func NewActionCoordinator() *ActionCoordinator {
	return &ActionCoordinator{
		pending: make(map[string]*PendingAction),
		now:     time.Now,
	}
}

// Register stores the pair for actor. An existing pending action for the same
// actor is replaced and neither of its callbacks runs.
func (c *ActionCoordinator) Register(actor string, kind ActionKind, onAccept, onDecline ActionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[actor] = &PendingAction{
		Actor:     actor,
		Kind:      kind,
		CreatedAt: c.now(),
		accept:    onAccept,
		decline:   onDecline,
	}
}

// Confirm removes the actor's pending action and runs its accept callback
func (c *ActionCoordinator) Confirm(ctx context.Context, actor string) error {
	a, ok := c.take(actor)
	if !ok {
		return ErrNothingPending
	}
	if a.accept == nil {
		return nil
	}
	return a.accept(ctx)
}

// Decline removes the actor's pending action and runs its decline callback
func (c *ActionCoordinator) Decline(ctx context.Context, actor string) error {
	a, ok := c.take(actor)
	if !ok {
		return ErrNothingPending
	}
	if a.decline == nil {
		return nil
	}
	return a.decline(ctx)
}

// Clear drops the actor's pending action without running either callback
func (c *ActionCoordinator) Clear(actor string) bool {
	_, ok := c.take(actor)
	return ok
}

// Pending returns a copy of the actor's pending action
func (c *ActionCoordinator) Pending(actor string) (PendingAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.pending[actor]
	if !ok {
		return PendingAction{}, false
	}
	return PendingAction{Actor: a.Actor, Kind: a.Kind, CreatedAt: a.CreatedAt}, true
}

// Len returns the number of pending actions
func (c *ActionCoordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// take removes and returns the entry in one step so that only one of a
// racing Confirm/Decline pair ever sees it.
func (c *ActionCoordinator) take(actor string) (*PendingAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.pending[actor]
	if ok {
		delete(c.pending, actor)
	}
	return a, ok
}
