// Package model defines the guild domain entities shared by every layer.
//
// # Domain Entities
//
//   - Guild: a persistent player organization with treasury, tier and vaults
//   - Member: a player's membership, carrying a role level (0 = master)
//   - Tier: an immutable capability/cost profile loaded at startup
//   - Role: one rung of the role ladder with the actions it grants
//   - Vault: one unit of shared storage, bounded by the guild's tier
//   - GuildRecord: the persisted form of a Guild
//
// # Snapshots
//
// Guild values handed out by the registry are immutable snapshots. Code that
// needs to change a guild works on a Clone and lets the registry publish it.
//
// # Error Types
//
// Domain errors are *Error values with a Kind, a Code that doubles as the
// message key, and substitution Params:
//
//	var ErrAlreadyInGuild = model.NewBusinessError(model.CodeAlreadyInGuild, "player already in a guild")
//	return ErrAlreadyInGuild.With("player", name)
//
// errors.Is matches by code, so callers compare against the sentinel values.
package model
