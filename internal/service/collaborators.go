package service

import (
	"context"

	"github.com/forgo/guilds/internal/model"
)

// PermissionProvider is the external permission store. Calls are not transactional.
type PermissionProvider interface {
	Grant(ctx context.Context, playerID, node string) error
	Revoke(ctx context.Context, playerID, node string) error
	Has(ctx context.Context, playerID, node string) (bool, error)
}

// Ledger is the external player currency ledger
type Ledger interface {
	Balance(ctx context.Context, playerID string) (int64, error)
	Withdraw(ctx context.Context, playerID string, amount int64) error
	Deposit(ctx context.Context, playerID string, amount int64) error
	Format(amount int64) string
}

// ClaimProvider is the external land-claim system
type ClaimProvider interface {
	LookupRegionByName(ctx context.Context, name string) (*model.Region, bool)
	IsOwner(playerID string, region *model.Region) bool
	RemoveMemberFlags(ctx context.Context, region *model.Region, playerID string) error
}

// PlayerDirectory resolves player names and presence
type PlayerDirectory interface {
	Name(playerID string) string
	IsOnline(playerID string) bool
}

// GuildStore defines the interface for guild storage
type GuildStore interface {
	LoadAll(ctx context.Context) ([]model.GuildRecord, error)
	Save(ctx context.Context, rec model.GuildRecord) error
	Delete(ctx context.Context, id string) error
}
