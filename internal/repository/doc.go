// Package repository stores guild records in SurrealDB.
//
// GuildRepository satisfies the guild store used by the engine's persister:
//
//	repo := repository.NewGuildRepository(db)
//	records, err := repo.LoadAll(ctx)
//
// # Tables
//
//   - guild: one record per guild, keyed guild:<id>, holding scalar state
//   - guild_member: one row per member with guild_id, player_id, role and joined_at
//
// Save and Delete touch both tables inside a single database.AtomicBatch so a
// crash never leaves members without their guild. Vault contents are owned by
// the inventory subsystem; only the vault count is stored here.
package repository
