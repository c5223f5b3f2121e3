package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/guilds/internal/database"
	"github.com/forgo/guilds/internal/model"
)

// GuildRepository persists guild records in SurrealDB. Guild scalars live in
// the guild table; membership lives in guild_member, one row per player.
type GuildRepository struct {
	db  database.Database
	now func() time.Time
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(db database.Database) *GuildRepository {
	return &GuildRepository{db: db, now: time.Now}
}

// schema defines the guild tables. Statements are idempotent.
const schema = `
	DEFINE TABLE IF NOT EXISTS guild SCHEMALESS;
	DEFINE INDEX IF NOT EXISTS guild_name ON guild FIELDS name;
	DEFINE TABLE IF NOT EXISTS guild_member SCHEMALESS;
	DEFINE INDEX IF NOT EXISTS guild_member_guild ON guild_member FIELDS guild_id;
	DEFINE INDEX IF NOT EXISTS guild_member_player ON guild_member FIELDS player_id;
`

// EnsureSchema defines the guild tables and indexes
func (r *GuildRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Execute(ctx, schema, nil); err != nil {
		return fmt.Errorf("define guild schema: %w", err)
	}
	return nil
}

// LoadAll returns every stored guild with its members
func (r *GuildRepository) LoadAll(ctx context.Context) ([]model.GuildRecord, error) {
	query := `
		SELECT * FROM guild ORDER BY created_at;
		SELECT * FROM guild_member ORDER BY joined_at;
	`
	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("load guilds: %w", err)
	}

	guilds := statementResults(result, 0)
	members := statementResults(result, 1)

	byGuild := make(map[string][]model.MemberRecord, len(guilds))
	for _, m := range members {
		guildID := getString(m, "guild_id")
		byGuild[guildID] = append(byGuild[guildID], model.MemberRecord{
			PlayerID: getString(m, "player_id"),
			Role:     getInt(m, "role"),
			JoinedAt: getTime(m, "joined_at"),
		})
	}

	records := make([]model.GuildRecord, 0, len(guilds))
	for _, g := range guilds {
		rec := parseGuildRow(g)
		rec.Members = byGuild[rec.ID]
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// Save replaces the stored guild and its membership in one transaction
func (r *GuildRepository) Save(ctx context.Context, rec model.GuildRecord) error {
	batch := database.NewAtomicBatch()
	batch.Add(`UPSERT type::thing('guild', $id) CONTENT $content`, map[string]interface{}{
		"id":      rec.ID,
		"content": guildContent(rec, r.now()),
	})
	batch.Add(`DELETE guild_member WHERE guild_id = $id`, map[string]interface{}{"id": rec.ID})
	for _, m := range rec.Members {
		batch.Add(`CREATE guild_member CONTENT $content`, map[string]interface{}{
			"content": map[string]interface{}{
				"guild_id":  rec.ID,
				"player_id": m.PlayerID,
				"role":      m.Role,
				"joined_at": models.CustomDateTime{Time: m.JoinedAt.UTC()},
			},
		})
	}
	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("save guild %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a guild and its membership
func (r *GuildRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"id": id}
	err := database.NewAtomicBatch().
		Add(`DELETE guild_member WHERE guild_id = $id`, vars).
		Add(`DELETE type::thing('guild', $id)`, vars).
		Execute(ctx, r.db)
	if err != nil {
		return fmt.Errorf("delete guild %s: %w", id, err)
	}
	return nil
}

func guildContent(rec model.GuildRecord, now time.Time) map[string]interface{} {
	perms := rec.ResidencePerms
	if perms == nil {
		perms = []string{}
	}
	return map[string]interface{}{
		"guild_id":        rec.ID,
		"name":            rec.Name,
		"prefix":          rec.Prefix,
		"balance":         rec.Balance,
		"prosperity":      rec.Prosperity,
		"tier":            rec.Tier,
		"vault_count":     rec.VaultCount,
		"residence":       rec.Residence,
		"residence_perms": perms,
		"wins":            rec.Wins,
		"losses":          rec.Losses,
		"created_at":      models.CustomDateTime{Time: rec.CreatedAt.UTC()},
		"updated_on":      models.CustomDateTime{Time: now.UTC()},
	}
}

func parseGuildRow(m map[string]interface{}) model.GuildRecord {
	return model.GuildRecord{
		ID:             getString(m, "guild_id"),
		Name:           getString(m, "name"),
		Prefix:         getString(m, "prefix"),
		Balance:        getInt64(m, "balance"),
		Prosperity:     getInt64(m, "prosperity"),
		Tier:           getInt(m, "tier"),
		VaultCount:     getInt(m, "vault_count"),
		Residence:      getString(m, "residence"),
		ResidencePerms: getStringSlice(m, "residence_perms"),
		Wins:           getInt(m, "wins"),
		Losses:         getInt(m, "losses"),
		CreatedAt:      getTime(m, "created_at"),
	}
}
