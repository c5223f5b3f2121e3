package model

// Tier is a leveled capability/cost profile a guild progresses through.
// Tiers are loaded once and never mutated afterwards.
type Tier struct {
	Level               int         `yaml:"level" json:"level"`
	Name                string      `yaml:"name" json:"name"`
	Cost                int64       `yaml:"cost" json:"cost"`
	Prosperity          int64       `yaml:"prosperity" json:"prosperity"`
	MinMembersToUpgrade int         `yaml:"members_to_upgrade" json:"members_to_upgrade"`
	MaxMembers          int         `yaml:"max_members" json:"max_members"`
	RoleMemberLimits    map[int]int `yaml:"role_member_limits" json:"role_member_limits,omitempty"`
	VaultCount          int         `yaml:"vault_count" json:"vault_count"`
	MaxBalance          int64       `yaml:"max_balance" json:"max_balance"`
	DamageMultiplier    float64     `yaml:"damage_multiplier" json:"damage_multiplier"`
	MobXPMultiplier     float64     `yaml:"mob_xp_multiplier" json:"mob_xp_multiplier"`
	MaxAllies           int         `yaml:"max_allies" json:"max_allies"`
	UseBuffs            bool        `yaml:"use_buffs" json:"use_buffs"`
	Permissions         []string    `yaml:"permissions" json:"permissions,omitempty"`
}

// RoleLimit returns the member cap for a role level, or false when the role is uncapped
func (t Tier) RoleLimit(level int) (int, bool) {
	limit, ok := t.RoleMemberLimits[level]
	return limit, ok
}

// RoleAction is an in-guild capability granted by a role
type RoleAction string

const (
	ActionInvite        RoleAction = "INVITE"
	ActionKick          RoleAction = "KICK"
	ActionPromote       RoleAction = "PROMOTE"
	ActionDemote        RoleAction = "DEMOTE"
	ActionUpgradeGuild  RoleAction = "UPGRADE_GUILD"
	ActionOpenVault     RoleAction = "OPEN_VAULT"
	ActionChangeHome    RoleAction = "CHANGE_HOME"
	ActionDepositMoney  RoleAction = "DEPOSIT_MONEY"
	ActionDeleteGuild   RoleAction = "DELETE_GUILD"
	ActionTransferGuild RoleAction = "TRANSFER_GUILD"
)

// AllRoleActions lists every action in declaration order
var AllRoleActions = []RoleAction{
	ActionInvite, ActionKick, ActionPromote, ActionDemote, ActionUpgradeGuild,
	ActionOpenVault, ActionChangeHome, ActionDepositMoney, ActionDeleteGuild, ActionTransferGuild,
}

// IsValid returns true if the action is known
func (a RoleAction) IsValid() bool {
	for _, known := range AllRoleActions {
		if a == known {
			return true
		}
	}
	return false
}

// Role describes one rung of a guild's role ladder
type Role struct {
	Level   int          `yaml:"level" json:"level"`
	Name    string       `yaml:"name" json:"name"`
	Node    string       `yaml:"node" json:"node"` // permission node granted to holders
	Actions []RoleAction `yaml:"actions" json:"actions"`
}

// Can returns true if the role grants the action
func (r Role) Can(action RoleAction) bool {
	for _, a := range r.Actions {
		if a == action {
			return true
		}
	}
	return false
}
