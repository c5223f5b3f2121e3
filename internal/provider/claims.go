package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/forgo/guilds/internal/model"
)

// MemoryClaims is a land-claim registry held in memory. Region names are
// matched case-insensitively.
type MemoryClaims struct {
	mu      sync.RWMutex
	regions map[string]*model.Region
	flags   map[string]map[string]struct{} // region name -> players with member flags
}

// NewMemoryClaims creates an empty claim registry
func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{
		regions: make(map[string]*model.Region),
		flags:   make(map[string]map[string]struct{}),
	}
}

// AddRegion registers a region owned by ownerID
func (c *MemoryClaims) AddRegion(name, ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regions[strings.ToLower(name)] = &model.Region{Name: name, OwnerID: ownerID}
}

// SetMemberFlags marks a player as holding flags on a region
func (c *MemoryClaims) SetMemberFlags(regionName, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(regionName)
	if c.flags[key] == nil {
		c.flags[key] = make(map[string]struct{})
	}
	c.flags[key][playerID] = struct{}{}
}

// HasMemberFlags reports whether the player holds flags on a region
func (c *MemoryClaims) HasMemberFlags(regionName, playerID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.flags[strings.ToLower(regionName)][playerID]
	return ok
}

// LookupRegionByName finds a region
func (c *MemoryClaims) LookupRegionByName(_ context.Context, name string) (*model.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.regions[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	region := *r
	return &region, true
}

// IsOwner reports whether playerID owns the region
func (c *MemoryClaims) IsOwner(playerID string, region *model.Region) bool {
	return region != nil && region.OwnerID == playerID
}

// RemoveMemberFlags strips a player's flags from a region
func (c *MemoryClaims) RemoveMemberFlags(ctx context.Context, region *model.Region, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.flags[strings.ToLower(region.Name)], playerID)
	return nil
}
