package model

import (
	"time"

	"github.com/google/uuid"
)

// MemberRecord is the persisted form of a Member
type MemberRecord struct {
	PlayerID string    `json:"player_id"`
	Role     int       `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// GuildRecord is the persisted form of a Guild. Vault contents live with the
// inventory subsystem, so only the vault count is stored.
type GuildRecord struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Prefix         string         `json:"prefix"`
	Balance        int64          `json:"balance"`
	Prosperity     int64          `json:"prosperity"`
	Tier           int            `json:"tier"`
	Members        []MemberRecord `json:"members"`
	VaultCount     int            `json:"vault_count"`
	Residence      string         `json:"residence,omitempty"`
	ResidencePerms []string       `json:"residence_perms,omitempty"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Record converts a guild snapshot into its persisted form
func (g *Guild) Record() GuildRecord {
	members := make([]MemberRecord, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, MemberRecord{PlayerID: m.PlayerID, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	return GuildRecord{
		ID:             g.ID,
		Name:           g.Name,
		Prefix:         g.Prefix,
		Balance:        g.Balance,
		Prosperity:     g.Prosperity,
		Tier:           g.Tier,
		Members:        members,
		VaultCount:     len(g.Vaults),
		Residence:      g.Residence,
		ResidencePerms: append([]string(nil), g.ResidencePerms...),
		Wins:           g.Score.Wins,
		Losses:         g.Score.Losses,
		CreatedAt:      g.CreatedAt,
	}
}

// GuildFromRecord rebuilds an active guild from its persisted form.
// Pending invitations are not persisted.
func GuildFromRecord(rec GuildRecord) *Guild {
	g := &Guild{
		ID:             rec.ID,
		Name:           rec.Name,
		Prefix:         rec.Prefix,
		Balance:        rec.Balance,
		Prosperity:     rec.Prosperity,
		Tier:           rec.Tier,
		Members:        make([]Member, 0, len(rec.Members)),
		Invites:        map[string]struct{}{},
		Residence:      rec.Residence,
		ResidencePerms: append([]string(nil), rec.ResidencePerms...),
		Status:         GuildStatusActive,
		Score:          Score{Wins: rec.Wins, Losses: rec.Losses},
		CreatedAt:      rec.CreatedAt,
	}
	for _, m := range rec.Members {
		g.Members = append(g.Members, Member{PlayerID: m.PlayerID, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	for i := 0; i < rec.VaultCount; i++ {
		g.Vaults = append(g.Vaults, NewVault(i))
	}
	return g
}

// NewVault creates an empty vault at the given index
func NewVault(index int) *Vault {
	return &Vault{Index: index, ID: uuid.NewString()}
}
