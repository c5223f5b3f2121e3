package provider

import "sync"

// MemoryPlayers is a player directory held in memory
type MemoryPlayers struct {
	mu     sync.RWMutex
	names  map[string]string
	online map[string]bool
}

// NewMemoryPlayers creates an empty directory
func NewMemoryPlayers() *MemoryPlayers {
	return &MemoryPlayers{
		names:  make(map[string]string),
		online: make(map[string]bool),
	}
}

// Add registers a player with a display name and presence
func (p *MemoryPlayers) Add(playerID, name string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[playerID] = name
	p.online[playerID] = online
}

// SetOnline updates a player's presence
func (p *MemoryPlayers) SetOnline(playerID string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[playerID] = online
}

// Name returns the player's display name, or the id when unknown
func (p *MemoryPlayers) Name(playerID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n, ok := p.names[playerID]; ok {
		return n
	}
	return playerID
}

// IsOnline reports whether the player is connected
func (p *MemoryPlayers) IsOnline(playerID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online[playerID]
}
