package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/forgo/guilds/internal/model"
)

// VetoHook runs before a mutation commits. A non-nil error cancels it.
type VetoHook func(ctx context.Context, e model.Event) error

// Listener observes a committed mutation
type Listener func(ctx context.Context, e model.Event)

// EventBus delivers domain events to an ordered list of veto hooks before a
// mutation commits and to a separate ordered list of listeners afterwards.
type EventBus struct {
	mu        sync.RWMutex
	hooks     []VetoHook
	listeners []Listener
	logger    *slog.Logger
}

// NewEventBus creates an event bus
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{logger: logger}
}

// OnBefore appends a veto hook
func (b *EventBus) OnBefore(h VetoHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
}

// OnAfter appends a post-commit listener
func (b *EventBus) OnAfter(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Before runs the veto hooks in registration order and stops at the first veto
func (b *EventBus) Before(ctx context.Context, e model.Event) error {
	b.mu.RLock()
	hooks := b.hooks
	b.mu.RUnlock()

	for _, h := range hooks {
		if err := h(ctx, e); err != nil {
			b.logger.Info("guild event vetoed",
				slog.String("type", string(e.Type)),
				slog.String("guild_id", e.GuildID),
				slog.String("error", err.Error()),
			)
			return ErrEventVetoed.With("event", string(e.Type)).Wrap(err)
		}
	}
	return nil
}

// After notifies every listener in registration order
func (b *EventBus) After(ctx context.Context, e model.Event) {
	b.mu.RLock()
	listeners := b.listeners
	b.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, e)
	}
}
