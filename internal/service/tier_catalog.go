package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/forgo/guilds/internal/model"
)

// TierCatalog is the ordered, immutable tier table. Level n is stored at index n-1.
type TierCatalog struct {
	tiers []model.Tier
	nodes []string
}

// NewTierCatalog validates and indexes the given tiers. Levels must be
// contiguous starting at 1; any violation is a configuration error.
func NewTierCatalog(tiers []model.Tier) (*TierCatalog, error) {
	if len(tiers) == 0 {
		return nil, ErrInvalidConfiguration.With("reason", "no tiers defined")
	}

	sorted := make([]model.Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	var errs []error
	for i, t := range sorted {
		if t.Level != i+1 {
			errs = append(errs, tierError(t.Level, fmt.Sprintf("expected level %d", i+1)))
			continue
		}
		if t.MaxMembers <= 0 {
			errs = append(errs, tierError(t.Level, "max_members must be positive"))
		}
		if t.VaultCount < 0 {
			errs = append(errs, tierError(t.Level, "vault_count must not be negative"))
		}
		if t.Cost < 0 || t.MaxBalance < 0 {
			errs = append(errs, tierError(t.Level, "cost and max_balance must not be negative"))
		}
		for role, limit := range t.RoleMemberLimits {
			if limit < 0 {
				errs = append(errs, tierError(t.Level, fmt.Sprintf("role %d limit must not be negative", role)))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var nodes []string
	for i := range sorted {
		sorted[i].Permissions = append([]string(nil), sorted[i].Permissions...)
		for _, node := range sorted[i].Permissions {
			if _, ok := seen[node]; ok {
				continue
			}
			seen[node] = struct{}{}
			nodes = append(nodes, node)
		}
	}
	sort.Strings(nodes)

	return &TierCatalog{tiers: sorted, nodes: nodes}, nil
}

func tierError(level int, reason string) error {
	return ErrInvalidConfiguration.With("tier", fmt.Sprint(level), "reason", reason)
}

// Get returns the tier at the given level
func (c *TierCatalog) Get(level int) (model.Tier, bool) {
	if level < 1 || level > len(c.tiers) {
		return model.Tier{}, false
	}
	return c.tiers[level-1], true
}

// Next returns the tier a guild at the given level upgrades into
func (c *TierCatalog) Next(level int) (model.Tier, bool) {
	return c.Get(level + 1)
}

// Default returns the tier new guilds start at
func (c *TierCatalog) Default() model.Tier {
	return c.tiers[0]
}

// MaxLevel returns the highest tier level
func (c *TierCatalog) MaxLevel() int {
	return len(c.tiers)
}

// All returns every tier in level order
func (c *TierCatalog) All() []model.Tier {
	out := make([]model.Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Nodes returns the sorted union of all tier permission nodes
func (c *TierCatalog) Nodes() []string {
	return append([]string(nil), c.nodes...)
}
