// Package fixtures provides test data factories for the guild engine.
//
// Each factory creates entities with sensible defaults while allowing
// customization via option functions.
//
// Usage:
//
//	tiers := fixtures.Tiers()
//	rec := fixtures.Record(fixtures.WithMembers("p1", "p2"), fixtures.WithTier(2))
//	g := fixtures.Guild(fixtures.WithBalance(1200))
package fixtures

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/forgo/guilds/internal/model"
)

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ============================================================================
// Catalog Fixtures
// ============================================================================

// Tiers returns a three-tier table. Tier 2 costs 1000, needs 50 prosperity
// and 3 members; tier 3 is the maximum.
func Tiers() []model.Tier {
	return []model.Tier{
		{
			Level:            1,
			Name:             "Camp",
			MaxMembers:       5,
			RoleMemberLimits: map[int]int{1: 1},
			VaultCount:       1,
			MaxBalance:       5000,
			DamageMultiplier: 1,
			MobXPMultiplier:  1,
			Permissions:      []string{"guilds.tier.camp", "guilds.chat"},
		},
		{
			Level:               2,
			Name:                "Village",
			Cost:                1000,
			Prosperity:          50,
			MinMembersToUpgrade: 3,
			MaxMembers:          10,
			RoleMemberLimits:    map[int]int{1: 2},
			VaultCount:          3,
			MaxBalance:          20000,
			DamageMultiplier:    1.1,
			MobXPMultiplier:     1.5,
			Permissions:         []string{"guilds.tier.village", "guilds.chat"},
		},
		{
			Level:               3,
			Name:                "Castle",
			Cost:                5000,
			Prosperity:          200,
			MinMembersToUpgrade: 5,
			MaxMembers:          20,
			VaultCount:          5,
			MaxBalance:          100000,
			DamageMultiplier:    1.5,
			MobXPMultiplier:     2,
			Permissions:         []string{"guilds.tier.castle", "guilds.chat", "guilds.fly"},
		},
	}
}

// Roles returns a master/officer/member ladder
func Roles() []model.Role {
	return []model.Role{
		{Level: 0, Name: "Master", Node: "guilds.role.master", Actions: model.AllRoleActions},
		{Level: 1, Name: "Officer", Node: "guilds.role.officer", Actions: []model.RoleAction{
			model.ActionInvite, model.ActionKick, model.ActionPromote, model.ActionDemote,
			model.ActionOpenVault, model.ActionDepositMoney, model.ActionUpgradeGuild,
		}},
		{Level: 2, Name: "Member", Node: "guilds.role.member", Actions: []model.RoleAction{
			model.ActionOpenVault, model.ActionDepositMoney,
		}},
	}
}

// ============================================================================
// Guild Fixtures
// ============================================================================

// GuildOpts customizes guild creation
type GuildOpts struct {
	ID         string
	Name       string
	Prefix     string
	Tier       int
	Balance    int64
	Prosperity int64
	Members    []string // first entry is the master, the rest join with role 2
	Vaults     int
	Residence  string
	Score      model.Score
	CreatedAt  time.Time
}

// WithName sets the guild name
func WithName(name string) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Name = name }
}

// WithTier sets the tier level
func WithTier(level int) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Tier = level }
}

// WithBalance sets the bank balance
func WithBalance(balance int64) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Balance = balance }
}

// WithProsperity sets the prosperity score
func WithProsperity(p int64) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Prosperity = p }
}

// WithMembers sets the member ids; the first is the master
func WithMembers(ids ...string) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Members = ids }
}

// WithVaults sets the number of existing vaults
func WithVaults(n int) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Vaults = n }
}

// WithResidence sets the residence name
func WithResidence(name string) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Residence = name }
}

// WithScore sets challenge results
func WithScore(wins, losses int) func(*GuildOpts) {
	return func(o *GuildOpts) { o.Score = model.Score{Wins: wins, Losses: losses} }
}

// WithID sets the guild id
func WithID(id string) func(*GuildOpts) {
	return func(o *GuildOpts) { o.ID = id }
}

func defaults(opts []func(*GuildOpts)) *GuildOpts {
	id := randomID()
	o := &GuildOpts{
		ID:        id,
		Name:      fmt.Sprintf("guild_%s", id),
		Prefix:    "TST",
		Tier:      1,
		Members:   []string{fmt.Sprintf("player_%s", randomID())},
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Record creates a persisted guild record
func Record(opts ...func(*GuildOpts)) model.GuildRecord {
	o := defaults(opts)
	members := make([]model.MemberRecord, 0, len(o.Members))
	for i, id := range o.Members {
		role := 2
		if i == 0 {
			role = model.MasterRoleLevel
		}
		members = append(members, model.MemberRecord{PlayerID: id, Role: role, JoinedAt: o.CreatedAt})
	}
	return model.GuildRecord{
		ID:         o.ID,
		Name:       o.Name,
		Prefix:     o.Prefix,
		Balance:    o.Balance,
		Prosperity: o.Prosperity,
		Tier:       o.Tier,
		Members:    members,
		VaultCount: o.Vaults,
		Residence:  o.Residence,
		Wins:       o.Score.Wins,
		Losses:     o.Score.Losses,
		CreatedAt:  o.CreatedAt,
	}
}

// Guild creates an active in-memory guild
func Guild(opts ...func(*GuildOpts)) *model.Guild {
	return model.GuildFromRecord(Record(opts...))
}
