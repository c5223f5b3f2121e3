package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guilds/internal/model"
	"github.com/forgo/guilds/internal/testing/fixtures"
)

type recordingStore struct {
	mockStore
	mu      sync.Mutex
	saved   map[string]model.GuildRecord
	deleted []string
}

func newRecordingStore() *recordingStore {
	s := &recordingStore{saved: make(map[string]model.GuildRecord)}
	s.saveFunc = func(_ context.Context, rec model.GuildRecord) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.saved[rec.ID] = rec
		return nil
	}
	s.deleteFunc = func(_ context.Context, id string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.deleted = append(s.deleted, id)
		return nil
	}
	return s
}

func TestPersister_FlushSavesCurrentSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newRecordingStore()
	core, _ := newTestCore(t, func(cfg *CoreConfig) { cfg.Store = store })
	g := insertGuild(t, core, fixtures.WithMembers("m"))

	_, err := core.Guilds.AddProsperity(ctx, g.ID, 5)
	require.NoError(t, err)
	_, err = core.Guilds.AddProsperity(ctx, g.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, core.Persister.Pending())

	require.NoError(t, core.Persister.Flush(ctx))
	assert.Zero(t, core.Persister.Pending())
	assert.Equal(t, int64(10), store.saved[g.ID].Prosperity)
}

func TestPersister_DeleteSupersedesSave(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newRecordingStore()
	core, _ := newTestCore(t, func(cfg *CoreConfig) { cfg.Store = store })
	g := insertGuild(t, core, fixtures.WithMembers("m"))

	core.Persister.MarkDirty(g.ID)
	require.NoError(t, core.Guilds.RequestDisband(ctx, "m"))
	require.NoError(t, core.Guilds.Confirm(ctx, "m"))

	require.NoError(t, core.Persister.Flush(ctx))
	assert.Equal(t, []string{g.ID}, store.deleted)
	assert.NotContains(t, store.saved, g.ID)
}

func TestPersister_FailedSaveStaysPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newRecordingStore()
	save := store.saveFunc
	store.saveFunc = func(context.Context, model.GuildRecord) error { return errors.New("disk full") }
	core, _ := newTestCore(t, func(cfg *CoreConfig) { cfg.Store = store })
	g := insertGuild(t, core)

	core.Persister.MarkDirty(g.ID)
	err := core.Persister.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, core.Persister.Pending())

	store.saveFunc = save
	require.NoError(t, core.Persister.Flush(ctx))
	assert.Contains(t, store.saved, g.ID)
}

func TestPersister_ReadOnlyWritesNothing(t *testing.T) {
	t.Parallel()
	store := newRecordingStore()
	core, _ := newTestCore(t, func(cfg *CoreConfig) {
		cfg.Store = store
		cfg.ReadOnly = true
	})
	g := insertGuild(t, core)

	core.Persister.MarkDirty(g.ID)
	require.NoError(t, core.Persister.Flush(context.Background()))
	assert.Empty(t, store.saved)
	assert.Zero(t, core.Persister.Pending())
}

func TestPersister_NilIsSafe(t *testing.T) {
	t.Parallel()
	var p *Persister

	assert.NotPanics(t, func() {
		p.MarkDirty("x")
		p.MarkDeleted("x")
	})
}
