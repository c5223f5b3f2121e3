package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guilds/internal/model"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "guilds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func wolves(created time.Time) model.GuildRecord {
	return model.GuildRecord{
		ID:             "g1",
		Name:           "Wolves",
		Prefix:         "WLF",
		Balance:        1200,
		Prosperity:     60,
		Tier:           2,
		VaultCount:     3,
		Residence:      "spawn",
		ResidencePerms: []string{"build", "container"},
		Wins:           4,
		Losses:         2,
		CreatedAt:      created,
		Members: []model.MemberRecord{
			{PlayerID: "m", Role: 1, JoinedAt: created},
			{PlayerID: "a", Role: 6, JoinedAt: created.Add(time.Minute)},
		},
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, wolves(created)))

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, wolves(created), records[0])
}

func TestSaveReplacesMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := wolves(created)
	require.NoError(t, store.Save(ctx, rec))

	rec.Members = rec.Members[:1]
	rec.Tier = 3
	rec.ResidencePerms = nil
	require.NoError(t, store.Save(ctx, rec))

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Tier)
	assert.Empty(t, records[0].ResidencePerms)
	require.Len(t, records[0].Members, 1)
	assert.Equal(t, "m", records[0].Members[0].PlayerID)
}

func TestPlayerMayMoveBetweenGuildsInEitherSaveOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := wolves(created)
	require.NoError(t, store.Save(ctx, first))

	second := model.GuildRecord{
		ID: "g2", Name: "Bears", Prefix: "BRS", Tier: 1,
		CreatedAt: created.Add(time.Hour),
		Members: []model.MemberRecord{
			{PlayerID: "b", Role: 1, JoinedAt: created},
			{PlayerID: "a", Role: 6, JoinedAt: created.Add(time.Hour)},
		},
	}
	require.NoError(t, store.Save(ctx, second))
	first.Members = first.Members[:1]
	require.NoError(t, store.Save(ctx, first))

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "g1", records[0].ID)
	assert.Len(t, records[0].Members, 1)
	assert.Len(t, records[1].Members, 2)
}

func TestDeleteCascadesMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.Save(ctx, wolves(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))))

	require.NoError(t, store.Delete(ctx, "g1"))
	require.NoError(t, store.Delete(ctx, "missing"))

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	var members int
	require.NoError(t, store.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM guild_members`).Scan(&members))
	assert.Zero(t, members)
}

func TestMigrationsApplyOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "guilds.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, wolves(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	records, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	var applied int
	require.NoError(t, reopened.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestUpSection(t *testing.T) {
	t.Parallel()

	got := upSection("-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n")
	assert.Equal(t, "\nCREATE TABLE a (x INT);\n", got)
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}
