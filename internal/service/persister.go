package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Persister batches guild saves. Mutations mark guilds dirty; Flush writes
// the current snapshot of each dirty guild and deletes removed ones.
type Persister struct {
	store    GuildStore
	registry *GuildRegistry
	readOnly bool
	logger   *slog.Logger

	mu      sync.Mutex
	dirty   map[string]struct{}
	deleted map[string]struct{}
}

// PersisterConfig holds configuration for the persister
type PersisterConfig struct {
	Store    GuildStore
	Registry *GuildRegistry
	ReadOnly bool
	Logger   *slog.Logger
}

// NewPersister creates a persister
func NewPersister(cfg PersisterConfig) *Persister {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		store:    cfg.Store,
		registry: cfg.Registry,
		readOnly: cfg.ReadOnly,
		logger:   logger,
		dirty:    make(map[string]struct{}),
		deleted:  make(map[string]struct{}),
	}
}

// MarkDirty schedules a guild for saving. Safe on a nil Persister.
func (p *Persister) MarkDirty(id string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.deleted, id)
	p.dirty[id] = struct{}{}
}

// MarkDeleted schedules a guild for deletion. Safe on a nil Persister.
func (p *Persister) MarkDeleted(id string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.dirty, id)
	p.deleted[id] = struct{}{}
}

// Pending returns the number of guilds waiting to be written
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dirty) + len(p.deleted)
}

// Flush writes all pending changes. Failed writes stay pending for the next flush.
// In read-only mode nothing is written and pending changes are dropped.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	dirty, deleted := p.dirty, p.deleted
	p.dirty = make(map[string]struct{})
	p.deleted = make(map[string]struct{})
	p.mu.Unlock()

	if p.readOnly || p.store == nil {
		return nil
	}

	var errs []error
	for _, id := range sortedKeys(deleted) {
		if err := p.store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete guild %s: %w", id, err))
			p.MarkDeleted(id)
		}
	}
	for _, id := range sortedKeys(dirty) {
		g, ok := p.registry.LookupByID(id)
		if !ok {
			continue
		}
		if err := p.store.Save(ctx, g.Record()); err != nil {
			errs = append(errs, fmt.Errorf("save guild %s: %w", id, err))
			p.MarkDirty(id)
		}
	}

	if err := errors.Join(errs...); err != nil {
		p.logger.Error("guild flush incomplete",
			slog.Int("failures", len(errs)),
			slog.String("error", err.Error()),
		)
		return err
	}
	if n := len(dirty) + len(deleted); n > 0 {
		p.logger.Debug("guilds flushed", slog.Int("count", n))
	}
	return nil
}
