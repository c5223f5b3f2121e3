package model

import (
	"strings"
	"time"
)

// GuildStatus is the lifecycle state of a guild
type GuildStatus string

const (
	GuildStatusActive     GuildStatus = "ACTIVE"
	GuildStatusDisbanding GuildStatus = "DISBANDING"
)

// MasterRoleLevel is the role level held by exactly one member of every guild
const MasterRoleLevel = 0

// Business constraints
const (
	MaxGuildNameLength   = 32
	MaxGuildPrefixLength = 8
)

// Member represents a player's membership in a guild
type Member struct {
	PlayerID string    `json:"player_id"`
	Role     int       `json:"role"` // lower level = more authority
	JoinedAt time.Time `json:"joined_at"`
}

// IsMaster returns true if the member holds the master role
func (m Member) IsMaster() bool {
	return m.Role == MasterRoleLevel
}

// Outranks returns true if m has strictly more authority than the given role level
func (m Member) Outranks(level int) bool {
	return m.Role < level
}

// Score tracks challenge results used by the leaderboards
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// WinLossRatio returns wins/losses, or false when either side is zero
func (s Score) WinLossRatio() (float64, bool) {
	if s.Wins <= 0 || s.Losses <= 0 {
		return 0, false
	}
	return float64(s.Wins) / float64(s.Losses), true
}

// Vault is one unit of shared guild storage. Contents are owned by the
// inventory subsystem and are not interpreted here.
type Vault struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Contents []byte `json:"-"`
}

// Guild represents a persistent player organization
type Guild struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Prefix         string              `json:"prefix"`
	Balance        int64               `json:"balance"`
	Prosperity     int64               `json:"prosperity"`
	Tier           int                 `json:"tier"`
	Members        []Member            `json:"members"`
	Invites        map[string]struct{} `json:"-"`
	Vaults         []*Vault            `json:"-"`
	Residence      string              `json:"residence,omitempty"`
	ResidencePerms []string            `json:"residence_perms,omitempty"`
	Status         GuildStatus         `json:"status"`
	Score          Score               `json:"score"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Clone returns a copy that can be mutated without affecting g.
// Vault pointers are shared so a vault keeps its identity across snapshots.
func (g *Guild) Clone() *Guild {
	if g == nil {
		return nil
	}
	c := *g
	c.Members = append([]Member(nil), g.Members...)
	c.Vaults = append([]*Vault(nil), g.Vaults...)
	c.ResidencePerms = append([]string(nil), g.ResidencePerms...)
	c.Invites = make(map[string]struct{}, len(g.Invites))
	for id := range g.Invites {
		c.Invites[id] = struct{}{}
	}
	return &c
}

// Member returns the membership for a player
func (g *Guild) Member(playerID string) (Member, bool) {
	for _, m := range g.Members {
		if m.PlayerID == playerID {
			return m, true
		}
	}
	return Member{}, false
}

// Master returns the member holding the master role
func (g *Guild) Master() (Member, bool) {
	for _, m := range g.Members {
		if m.IsMaster() {
			return m, true
		}
	}
	return Member{}, false
}

// IsMember returns true if the player belongs to the guild
func (g *Guild) IsMember(playerID string) bool {
	_, ok := g.Member(playerID)
	return ok
}

// IsInvited returns true if the player has a pending invitation
func (g *Guild) IsInvited(playerID string) bool {
	_, ok := g.Invites[playerID]
	return ok
}

// CountRole returns the number of members holding the given role level
func (g *Guild) CountRole(level int) int {
	n := 0
	for _, m := range g.Members {
		if m.Role == level {
			n++
		}
	}
	return n
}

// SetRole changes a member's role. It returns false if the player is not a member.
func (g *Guild) SetRole(playerID string, level int) bool {
	for i := range g.Members {
		if g.Members[i].PlayerID == playerID {
			g.Members[i].Role = level
			return true
		}
	}
	return false
}

// RemoveMember drops a player from the member list
func (g *Guild) RemoveMember(playerID string) bool {
	for i, m := range g.Members {
		if m.PlayerID == playerID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}

// HasResidencePerm returns true if the flag is granted to members on the guild residence
func (g *Guild) HasResidencePerm(flag string) bool {
	for _, p := range g.ResidencePerms {
		if strings.EqualFold(p, flag) {
			return true
		}
	}
	return false
}

// Region is a land claim owned by a player in the external land-claim system
type Region struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}
