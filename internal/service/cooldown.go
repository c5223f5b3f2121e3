package service

import (
	"sync"
	"time"
)

// CooldownKind names a cooldown track
type CooldownKind string

const (
	// CooldownJoin blocks joining a guild after leaving or being removed from one
	CooldownJoin CooldownKind = "join"
)

type cooldownKey struct {
	player string
	kind   CooldownKind
}

// Cooldowns tracks per-player expiry times per kind
type Cooldowns struct {
	mu       sync.Mutex
	expiries map[cooldownKey]time.Time
	cleanup  time.Duration // Cleanup interval for expired entries
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
}

// CooldownConfig holds cooldown tracker configuration
type CooldownConfig struct {
	Cleanup time.Duration // Cleanup interval (default 5 minutes)
}

// NewCooldowns creates a cooldown tracker. Start launches the cleanup loop.
func NewCooldowns(cfg CooldownConfig) *Cooldowns {
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}
	return &Cooldowns{
		expiries: make(map[cooldownKey]time.Time),
		cleanup:  cfg.Cleanup,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start launches the cleanup goroutine
func (c *Cooldowns) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	go c.cleanupLoop()
}

// Stop stops the cleanup goroutine
func (c *Cooldowns) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cooldowns) cleanupLoop() {
	ticker := time.NewTicker(c.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cooldowns) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, until := range c.expiries {
		if !until.After(now) {
			delete(c.expiries, key)
		}
	}
}

// Add starts a cooldown. A non-positive duration clears it.
func (c *Cooldowns) Add(playerID string, kind CooldownKind, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cooldownKey{player: playerID, kind: kind}
	if d <= 0 {
		delete(c.expiries, key)
		return
	}
	c.expiries[key] = c.now().Add(d)
}

// Remaining returns how long the cooldown still runs, or zero
func (c *Cooldowns) Remaining(playerID string, kind CooldownKind) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	until, ok := c.expiries[cooldownKey{player: playerID, kind: kind}]
	if !ok {
		return 0
	}
	left := until.Sub(c.now())
	if left <= 0 {
		return 0
	}
	return left
}

// Len returns the number of tracked entries, expired or not
func (c *Cooldowns) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.expiries)
}
