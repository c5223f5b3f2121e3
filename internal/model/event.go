package model

import "time"

// EventType identifies a guild domain event
type EventType string

const (
	EventGuildCreated  EventType = "GUILD_CREATED"
	EventMemberInvited EventType = "MEMBER_INVITED"
	EventMemberJoined  EventType = "MEMBER_JOINED"
	EventMemberLeft    EventType = "MEMBER_LEFT"
	EventMemberKicked  EventType = "MEMBER_KICKED"
	EventRoleChanged   EventType = "ROLE_CHANGED"
	EventTierUpgraded  EventType = "TIER_UPGRADED"
	EventGuildRemoved  EventType = "GUILD_REMOVED"
)

// RemoveCause explains why a guild was removed
type RemoveCause string

const (
	RemoveCauseMasterLeft     RemoveCause = "MASTER_LEFT"
	RemoveCauseDisbanded      RemoveCause = "DISBANDED"
	RemoveCauseLastMemberLeft RemoveCause = "LAST_MEMBER_LEFT"
)

// Event is emitted before (vetoable) and after (notification) a guild mutation commits
type Event struct {
	Type      EventType   `json:"type"`
	GuildID   string      `json:"guild_id"`
	GuildName string      `json:"guild_name,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	TargetID  string      `json:"target_id,omitempty"`
	Tier      int         `json:"tier,omitempty"`
	Role      int         `json:"role,omitempty"`
	Cost      int64       `json:"cost,omitempty"`
	Cause     RemoveCause `json:"cause,omitempty"`
	At        time.Time   `json:"at"`
}
