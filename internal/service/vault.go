package service

import (
	"context"
	"strconv"

	"github.com/forgo/guilds/internal/model"
)

// VaultAllocator hands out guild vaults, growing the vault list on demand
// up to the guild tier's vault count.
type VaultAllocator struct {
	registry *GuildRegistry
	tiers    *TierCatalog
}

// NewVaultAllocator creates a vault allocator
func NewVaultAllocator(registry *GuildRegistry, tiers *TierCatalog) *VaultAllocator {
	return &VaultAllocator{registry: registry, tiers: tiers}
}

// Get returns the vault at index, creating it and any missing lower vaults
// when the index is within the tier's cap. Repeated calls return the same vault.
func (a *VaultAllocator) Get(ctx context.Context, guildID string, index int) (*model.Vault, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, ok := a.registry.LookupByID(guildID)
	if !ok {
		return nil, ErrGuildNotFound.With("guild", guildID)
	}
	if err := a.checkBounds(g, index); err != nil {
		return nil, err
	}
	if index < len(g.Vaults) {
		return g.Vaults[index], nil
	}

	next, err := a.registry.Mutate(guildID, func(g *model.Guild) error {
		if err := a.checkBounds(g, index); err != nil {
			return err
		}
		for i := len(g.Vaults); i <= index; i++ {
			g.Vaults = append(g.Vaults, model.NewVault(i))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next.Vaults[index], nil
}

func (a *VaultAllocator) checkBounds(g *model.Guild, index int) error {
	tier, ok := a.tiers.Get(g.Tier)
	if !ok {
		return ErrInvalidConfiguration.With("guild", g.ID, "tier", strconv.Itoa(g.Tier))
	}
	if index < 0 || index >= tier.VaultCount {
		return ErrVaultCapacity.With("index", strconv.Itoa(index), "max", strconv.Itoa(tier.VaultCount))
	}
	return nil
}
