package provider

import (
	"context"
	"sort"
	"sync"
)

// MemoryPermissions is a permission store held in memory
type MemoryPermissions struct {
	mu    sync.RWMutex
	nodes map[string]map[string]struct{}
}

// NewMemoryPermissions creates an empty permission store
func NewMemoryPermissions() *MemoryPermissions {
	return &MemoryPermissions{nodes: make(map[string]map[string]struct{})}
}

// Grant gives a node to a player
func (p *MemoryPermissions) Grant(ctx context.Context, playerID, node string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.nodes[playerID]
	if !ok {
		set = make(map[string]struct{})
		p.nodes[playerID] = set
	}
	set[node] = struct{}{}
	return nil
}

// Revoke removes a node from a player
func (p *MemoryPermissions) Revoke(ctx context.Context, playerID, node string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if set, ok := p.nodes[playerID]; ok {
		delete(set, node)
		if len(set) == 0 {
			delete(p.nodes, playerID)
		}
	}
	return nil
}

// Has reports whether the player holds the node
func (p *MemoryPermissions) Has(ctx context.Context, playerID, node string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.nodes[playerID][node]
	return ok, nil
}

// Nodes returns the sorted nodes a player holds
func (p *MemoryPermissions) Nodes(playerID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.nodes[playerID]))
	for node := range p.nodes[playerID] {
		out = append(out, node)
	}
	sort.Strings(out)
	return out
}
