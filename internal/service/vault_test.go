package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guilds/internal/model"
	"github.com/forgo/guilds/internal/testing/fixtures"
)

func TestVaults_Get_BackfillsLowerIndexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithTier(2), fixtures.WithVaults(1))
	first := g.Vaults[0]

	v, err := core.Vaults.Get(ctx, g.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Index)

	cur := mustGuild(t, core, g.ID)
	require.Len(t, cur.Vaults, 3)
	for i, vault := range cur.Vaults {
		assert.Equal(t, i, vault.Index)
		assert.NotEmpty(t, vault.ID)
	}
	assert.Same(t, first, cur.Vaults[0], "existing vaults keep their identity")

	_, err = core.Vaults.Get(ctx, g.ID, 3)
	assert.ErrorIs(t, err, ErrVaultCapacity)
	assert.Len(t, mustGuild(t, core, g.ID).Vaults, 3)
}

func TestVaults_Get_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithTier(2))

	a, err := core.Vaults.Get(ctx, g.ID, 1)
	require.NoError(t, err)
	b, err := core.Vaults.Get(ctx, g.ID, 1)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, a.ID, b.ID)
}

func TestVaults_Get_CapacityUsesTierNotLength(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	// tier 1 allows one vault, but five were loaded from storage
	g := insertGuild(t, core, fixtures.WithTier(1), fixtures.WithVaults(5))

	_, err := core.Vaults.Get(ctx, g.ID, 0)
	require.NoError(t, err)

	_, err = core.Vaults.Get(ctx, g.ID, 2)
	assert.ErrorIs(t, err, ErrVaultCapacity)

	_, err = core.Vaults.Get(ctx, g.ID, -1)
	assert.ErrorIs(t, err, ErrVaultCapacity)
}

func TestVaults_Get_UnknownGuild(t *testing.T) {
	t.Parallel()
	core, _ := newTestCore(t)

	_, err := core.Vaults.Get(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, ErrGuildNotFound)
}

func TestVaults_Get_ConcurrentCallersShareVault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithTier(3))

	const callers = 16
	results := make([]*model.Vault, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := core.Vaults.Get(ctx, g.ID, 4)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		require.NotNil(t, v)
		assert.Same(t, results[0], v)
	}
	assert.Len(t, mustGuild(t, core, g.ID).Vaults, 5)
}
