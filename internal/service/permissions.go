package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/forgo/guilds/internal/model"
)

// DefaultResidencePrefix prefixes residence flags to form permission nodes
const DefaultResidencePrefix = "guilds.residence."

// PermissionSynchronizer converges the permission nodes each guild member
// holds in the external provider with what the guild state implies.
//
// A member's desired set is the tier's nodes, the role's node and one node
// per residence permission. Every sync revokes managed nodes outside that set
// before granting missing ones. Provider failures are logged and returned;
// guild state is never rolled back, and re-running a sync is always safe.
//
// Syncs for one player are serialized. With a registry attached, each sync
// reads the player's current guild snapshot after taking the player's lock,
// so the last sync to finish always converges to the latest committed state.
type PermissionSynchronizer struct {
	provider        PermissionProvider
	registry        *GuildRegistry
	tiers           *TierCatalog
	roles           *RoleCatalog
	residencePrefix string
	residenceFlags  []string
	logger          *slog.Logger
	players         keyedMutex

	mu      sync.Mutex
	granted map[string]map[string]struct{} // player id -> nodes last desired
}

// PermissionSynchronizerConfig holds configuration for the synchronizer
type PermissionSynchronizerConfig struct {
	Provider        PermissionProvider
	Registry        *GuildRegistry // optional; syncs read the current snapshot from it
	Tiers           *TierCatalog
	Roles           *RoleCatalog
	ResidencePrefix string
	ResidenceFlags  []string // flags whose nodes are always considered managed
	Logger          *slog.Logger
}

// NewPermissionSynchronizer creates a synchronizer
func NewPermissionSynchronizer(cfg PermissionSynchronizerConfig) *PermissionSynchronizer {
	prefix := cfg.ResidencePrefix
	if prefix == "" {
		prefix = DefaultResidencePrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionSynchronizer{
		provider:        cfg.Provider,
		registry:        cfg.Registry,
		tiers:           cfg.Tiers,
		roles:           cfg.Roles,
		residencePrefix: prefix,
		residenceFlags:  cfg.ResidenceFlags,
		logger:          logger,
		granted:         make(map[string]map[string]struct{}),
	}
}

// ResidenceNode returns the permission node for a residence flag
func (s *PermissionSynchronizer) ResidenceNode(flag string) string {
	return s.residencePrefix + flag
}

// Desired returns the sorted node set a member of g should hold
func (s *PermissionSynchronizer) Desired(g *model.Guild, playerID string) []string {
	return sortedKeys(s.desired(g, playerID))
}

// SyncGuild converges every member of the guild
func (s *PermissionSynchronizer) SyncGuild(ctx context.Context, g *model.Guild) error {
	if s.registry != nil {
		if cur, ok := s.registry.LookupByID(g.ID); ok {
			g = cur
		}
	}
	var errs []error
	for _, m := range g.Members {
		if err := s.SyncMember(ctx, g, m.PlayerID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SyncMember converges one member's nodes
func (s *PermissionSynchronizer) SyncMember(ctx context.Context, g *model.Guild, playerID string) error {
	unlock := s.players.Lock(playerID)
	defer unlock()

	desired := s.desired(s.current(g, playerID), playerID)
	err := s.converge(ctx, playerID, desired)
	s.remember(playerID, desired)
	return err
}

// RevokeMember removes every managed node from a player who left a guild.
// A player the registry already shows in another active guild is converged
// to that guild instead.
func (s *PermissionSynchronizer) RevokeMember(ctx context.Context, playerID string) error {
	unlock := s.players.Lock(playerID)
	defer unlock()

	desired := s.desired(s.current(nil, playerID), playerID)
	err := s.converge(ctx, playerID, desired)
	if len(desired) == 0 {
		s.forget(playerID)
	} else {
		s.remember(playerID, desired)
	}
	return err
}

// current returns the snapshot a sync for playerID converges to. Without a
// registry the caller's snapshot is used as is.
func (s *PermissionSynchronizer) current(g *model.Guild, playerID string) *model.Guild {
	if s.registry == nil {
		return g
	}
	cur, ok := s.registry.LookupByMember(playerID)
	if !ok || cur.Status != model.GuildStatusActive {
		return nil
	}
	return cur
}

func (s *PermissionSynchronizer) desired(g *model.Guild, playerID string) map[string]struct{} {
	out := make(map[string]struct{})
	if g == nil {
		return out
	}
	m, ok := g.Member(playerID)
	if !ok {
		return out
	}
	if tier, ok := s.tiers.Get(g.Tier); ok {
		for _, node := range tier.Permissions {
			out[node] = struct{}{}
		}
	}
	if role, ok := s.roles.Get(m.Role); ok && role.Node != "" {
		out[role.Node] = struct{}{}
	}
	if g.Residence != "" {
		for _, flag := range g.ResidencePerms {
			out[s.ResidenceNode(flag)] = struct{}{}
		}
	}
	return out
}

func (s *PermissionSynchronizer) universe(playerID string, desired map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, node := range s.tiers.Nodes() {
		out[node] = struct{}{}
	}
	for _, node := range s.roles.Nodes() {
		out[node] = struct{}{}
	}
	for _, flag := range s.residenceFlags {
		out[s.ResidenceNode(flag)] = struct{}{}
	}
	for node := range desired {
		out[node] = struct{}{}
	}

	s.mu.Lock()
	for node := range s.granted[playerID] {
		out[node] = struct{}{}
	}
	s.mu.Unlock()
	return out
}

func (s *PermissionSynchronizer) converge(ctx context.Context, playerID string, desired map[string]struct{}) error {
	var errs []error

	for _, node := range sortedKeys(s.universe(playerID, desired)) {
		if _, want := desired[node]; want {
			continue
		}
		has, err := s.provider.Has(ctx, playerID, node)
		if err != nil {
			errs = append(errs, fmt.Errorf("check %s: %w", node, err))
			continue
		}
		if has {
			if err := s.provider.Revoke(ctx, playerID, node); err != nil {
				errs = append(errs, fmt.Errorf("revoke %s: %w", node, err))
			}
		}
	}

	for _, node := range sortedKeys(desired) {
		has, err := s.provider.Has(ctx, playerID, node)
		if err != nil {
			errs = append(errs, fmt.Errorf("check %s: %w", node, err))
			continue
		}
		if !has {
			if err := s.provider.Grant(ctx, playerID, node); err != nil {
				errs = append(errs, fmt.Errorf("grant %s: %w", node, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("permission sync incomplete",
			slog.String("player_id", playerID),
			slog.Int("failures", len(errs)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("sync permissions for %s: %w", playerID, err)
	}
	return nil
}

func (s *PermissionSynchronizer) remember(playerID string, desired map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted[playerID] = desired
}

func (s *PermissionSynchronizer) forget(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.granted, playerID)
}

// keyedMutex hands out one mutex per key and drops it once nobody holds or waits on it
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock blocks until key is free and returns the matching unlock
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
