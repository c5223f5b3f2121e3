package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/guilds/internal/model"
)

// Guard inspects a working copy inside a guild's critical section and
// rejects the mutation by returning an error.
type Guard func(g *model.Guild) error

// guildEntry holds one guild. mu serializes mutations of that guild;
// guild and removed are read and written under GuildRegistry.mu.
type guildEntry struct {
	mu      sync.Mutex
	guild   *model.Guild
	removed bool
}

// GuildRegistry is the in-memory store of all guilds with a player index.
//
// Published guilds are immutable snapshots. A mutation clones the current
// snapshot under the guild's own lock, then swaps the clone in together with
// the index updates under the registry lock, so readers never see a guild
// whose member list disagrees with the index. Lock order is entry, then registry.
type GuildRegistry struct {
	mu      sync.RWMutex
	guilds  map[string]*guildEntry
	members map[string]string // player id -> guild id
	names   map[string]string // folded name -> guild id
	tiers   *TierCatalog
	now     func() time.Time
}

// NewGuildRegistry creates an empty registry
func NewGuildRegistry(tiers *TierCatalog) *GuildRegistry {
	return &GuildRegistry{
		guilds:  make(map[string]*guildEntry),
		members: make(map[string]string),
		names:   make(map[string]string),
		tiers:   tiers,
		now:     time.Now,
	}
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Create registers a new guild at the default tier with masterID as its only member
func (r *GuildRegistry) Create(name, prefix, masterID string) (*model.Guild, error) {
	now := r.now()
	g := &model.Guild{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Prefix:    prefix,
		Tier:      r.tiers.Default().Level,
		Members:   []model.Member{{PlayerID: masterID, Role: model.MasterRoleLevel, JoinedAt: now}},
		Invites:   map[string]struct{}{},
		Status:    model.GuildStatusActive,
		CreatedAt: now,
	}
	if err := r.Insert(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Insert publishes a fully built guild, used by Create and at startup load
func (r *GuildRegistry) Insert(g *model.Guild) error {
	if len(g.Members) == 0 {
		return ErrNotInGuild.With("guild", g.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.guilds[g.ID]; ok {
		return ErrGuildNameTaken.With("guild", g.Name)
	}
	if _, ok := r.names[foldName(g.Name)]; ok {
		return ErrGuildNameTaken.With("guild", g.Name)
	}
	for _, m := range g.Members {
		if _, ok := r.members[m.PlayerID]; ok {
			return ErrAlreadyInGuild.With("player", m.PlayerID)
		}
	}

	r.guilds[g.ID] = &guildEntry{guild: g}
	r.names[foldName(g.Name)] = g.ID
	for _, m := range g.Members {
		r.members[m.PlayerID] = g.ID
	}
	return nil
}

// LookupByID returns the current snapshot of a guild. Snapshots must not be modified.
func (r *GuildRegistry) LookupByID(id string) (*model.Guild, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.guilds[id]
	if !ok {
		return nil, false
	}
	return e.guild, true
}

// LookupByMember returns the snapshot of the guild the player belongs to
func (r *GuildRegistry) LookupByMember(playerID string) (*model.Guild, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.members[playerID]
	if !ok {
		return nil, false
	}
	return r.guilds[id].guild, true
}

// LookupByName finds a guild by case-insensitive name
func (r *GuildRegistry) LookupByName(name string) (*model.Guild, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[foldName(name)]
	if !ok {
		return nil, false
	}
	return r.guilds[id].guild, true
}

// All returns one consistent snapshot of every guild, ordered by id
func (r *GuildRegistry) All() []*model.Guild {
	r.mu.RLock()
	out := make([]*model.Guild, 0, len(r.guilds))
	for _, e := range r.guilds {
		out = append(out, e.guild)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of guilds
func (r *GuildRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.guilds)
}

// Remove deletes a guild and releases all of its members. It returns the
// last published snapshot.
func (r *GuildRegistry) Remove(id string) (*model.Guild, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if e.removed {
		return nil, ErrGuildNotFound.With("guild", id)
	}
	r.dropLocked(e, e.guild.Members)
	return e.guild, nil
}

// Mutate applies fn to a working copy of the guild and publishes the result.
// fn runs while the guild's lock is held; it must not call back into the
// registry for the same guild. Members that fn adds are checked against the
// player index at publish time. A result with no members removes the guild.
func (r *GuildRegistry) Mutate(id string, fn func(g *model.Guild) error) (*model.Guild, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.RLock()
	cur, removed := e.guild, e.removed
	r.mu.RUnlock()

	if removed || cur.Status != model.GuildStatusActive {
		return nil, ErrGuildNotFound.With("guild", id)
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.Name = cur.Name

	return r.publish(e, cur, next)
}

// AddMember adds a player with the given role. Guards run against the working
// copy before the member is appended. A pending invitation is consumed.
func (r *GuildRegistry) AddMember(id, playerID string, role int, guards ...Guard) (*model.Guild, error) {
	return r.Mutate(id, func(g *model.Guild) error {
		if g.IsMember(playerID) {
			return ErrAlreadyInGuild.With("player", playerID)
		}
		for _, guard := range guards {
			if err := guard(g); err != nil {
				return err
			}
		}
		delete(g.Invites, playerID)
		g.Members = append(g.Members, model.Member{PlayerID: playerID, Role: role, JoinedAt: r.now()})
		return nil
	})
}

// RemoveMember drops a player from the guild. The master can only leave as
// the last member, in which case the guild is removed in the same step.
// removed reports whether the guild no longer exists.
func (r *GuildRegistry) RemoveMember(id, playerID string, guards ...Guard) (g *model.Guild, removed bool, err error) {
	g, err = r.Mutate(id, func(g *model.Guild) error {
		m, ok := g.Member(playerID)
		if !ok {
			return ErrNotInGuild.With("player", playerID)
		}
		if m.IsMaster() && len(g.Members) > 1 {
			return ErrMasterMustTransfer
		}
		for _, guard := range guards {
			if err := guard(g); err != nil {
				return err
			}
		}
		g.RemoveMember(playerID)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return g, len(g.Members) == 0, nil
}

func (r *GuildRegistry) entry(id string) (*guildEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.guilds[id]
	if !ok {
		return nil, ErrGuildNotFound.With("guild", id)
	}
	return e, nil
}

func (r *GuildRegistry) publish(e *guildEntry, cur, next *model.Guild) (*model.Guild, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	added, dropped := diffMembers(cur, next)
	for _, p := range added {
		if owner, ok := r.members[p]; ok && owner != next.ID {
			return nil, ErrAlreadyInGuild.With("player", p)
		}
	}

	if len(next.Members) == 0 {
		e.guild = next
		r.dropLocked(e, cur.Members)
		return next, nil
	}

	for _, p := range dropped {
		delete(r.members, p)
	}
	for _, p := range added {
		r.members[p] = next.ID
	}
	e.guild = next
	return next, nil
}

// dropLocked unlinks a guild from every index. r.mu must be held for writing.
func (r *GuildRegistry) dropLocked(e *guildEntry, members []model.Member) {
	id := e.guild.ID
	for _, m := range members {
		if r.members[m.PlayerID] == id {
			delete(r.members, m.PlayerID)
		}
	}
	if r.names[foldName(e.guild.Name)] == id {
		delete(r.names, foldName(e.guild.Name))
	}
	delete(r.guilds, id)
	e.removed = true
}

func diffMembers(cur, next *model.Guild) (added, dropped []string) {
	before := make(map[string]struct{}, len(cur.Members))
	for _, m := range cur.Members {
		before[m.PlayerID] = struct{}{}
	}
	after := make(map[string]struct{}, len(next.Members))
	for _, m := range next.Members {
		after[m.PlayerID] = struct{}{}
		if _, ok := before[m.PlayerID]; !ok {
			added = append(added, m.PlayerID)
		}
	}
	for _, m := range cur.Members {
		if _, ok := after[m.PlayerID]; !ok {
			dropped = append(dropped, m.PlayerID)
		}
	}
	return added, dropped
}
