// Package service implements the guild state engine.
//
// The service package holds the in-memory guild registry and everything
// that mutates it: tier upgrades, membership, vaults, permission sync and
// the confirm/decline workflow for risky actions. A Core value wires the
// components together and is passed explicitly to the command layer.
//
// # Concurrency
//
// Guild mutations are serialized per guild through GuildRegistry.Mutate;
// different guilds do not block each other beyond a short publish step.
// Readers receive immutable snapshots and never observe a half-applied change.
// ActionCoordinator serializes access per actor, so a pending action is
// confirmed or declined at most once.
//
// # Service Pattern
//
//   - Constructors accept a config struct (NewGuildService(GuildServiceConfig{...}))
//   - External systems are consumed through small interfaces (PermissionProvider,
//     Ledger, ClaimProvider, PlayerDirectory, GuildStore)
//   - Context is passed through for cancellation and tracing
//
// # Error Handling
//
// Errors are coded model.Error values defined in errors.go. Business rule
// violations carry substitution parameters for the message shown to the player:
//
//	if errors.Is(err, service.ErrUpgradeFunds) {
//	    var e *model.Error
//	    errors.As(err, &e)
//	    reply(e.Code, e.Params["needed"])
//	}
//
// # Example Usage
//
//	core, err := service.NewCore(service.CoreConfig{
//	    Catalog:     catalog,
//	    Store:       store,
//	    Permissions: perms,
//	    Ledger:      ledger,
//	    Players:     players,
//	})
//	quote, err := core.Guilds.RequestUpgrade(ctx, playerID)
//	err = core.Guilds.Confirm(ctx, playerID)
package service
