package service

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forgo/guilds/internal/model"
)

// CatalogFile is the on-disk shape of the tier and role tables
type CatalogFile struct {
	Tiers []model.Tier `yaml:"tiers"`
	Roles []model.Role `yaml:"roles"`
}

// DecodeCatalog reads a YAML catalog. Sections left empty fall back to the
// built-in defaults.
func DecodeCatalog(r io.Reader) (CatalogFile, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return CatalogFile{}, ErrInvalidConfiguration.With("reason", "decode catalog").Wrap(err)
	}
	if len(file.Tiers) == 0 {
		file.Tiers = DefaultTiers()
	}
	if len(file.Roles) == 0 {
		file.Roles = DefaultRoles()
	}
	return file, nil
}

// LoadCatalogFile decodes the catalog at path. An empty path yields the defaults.
func LoadCatalogFile(path string) (CatalogFile, error) {
	if path == "" {
		return CatalogFile{Tiers: DefaultTiers(), Roles: DefaultRoles()}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return CatalogFile{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return DecodeCatalog(f)
}

// DefaultTiers returns the stock three-tier progression
func DefaultTiers() []model.Tier {
	return []model.Tier{
		{
			Level:            1,
			Name:             "Settlement",
			MaxMembers:       10,
			RoleMemberLimits: map[int]int{1: 2},
			VaultCount:       1,
			MaxBalance:       10000,
			DamageMultiplier: 1.0,
			MobXPMultiplier:  1.0,
			MaxAllies:        2,
			Permissions:      []string{"guilds.tier.1"},
		},
		{
			Level:               2,
			Name:                "Town",
			Cost:                1000,
			Prosperity:          50,
			MinMembersToUpgrade: 3,
			MaxMembers:          20,
			RoleMemberLimits:    map[int]int{1: 4},
			VaultCount:          3,
			MaxBalance:          50000,
			DamageMultiplier:    1.1,
			MobXPMultiplier:     1.25,
			MaxAllies:           5,
			UseBuffs:            true,
			Permissions:         []string{"guilds.tier.2", "guilds.buffs"},
		},
		{
			Level:               3,
			Name:                "City",
			Cost:                10000,
			Prosperity:          500,
			MinMembersToUpgrade: 8,
			MaxMembers:          40,
			RoleMemberLimits:    map[int]int{1: 6},
			VaultCount:          5,
			MaxBalance:          250000,
			DamageMultiplier:    1.25,
			MobXPMultiplier:     1.5,
			MaxAllies:           10,
			UseBuffs:            true,
			Permissions:         []string{"guilds.tier.3", "guilds.buffs", "guilds.fly"},
		},
	}
}

// DefaultRoles returns the stock four-role ladder
func DefaultRoles() []model.Role {
	return []model.Role{
		{Level: 0, Name: "Master", Node: "guilds.role.master", Actions: model.AllRoleActions},
		{Level: 1, Name: "Officer", Node: "guilds.role.officer", Actions: []model.RoleAction{
			model.ActionInvite, model.ActionKick, model.ActionPromote, model.ActionDemote,
			model.ActionOpenVault, model.ActionChangeHome, model.ActionDepositMoney,
		}},
		{Level: 2, Name: "Veteran", Node: "guilds.role.veteran", Actions: []model.RoleAction{
			model.ActionInvite, model.ActionOpenVault, model.ActionDepositMoney,
		}},
		{Level: 3, Name: "Member", Node: "guilds.role.member", Actions: []model.RoleAction{
			model.ActionOpenVault, model.ActionDepositMoney,
		}},
	}
}
