package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/forgo/guilds/internal/model"
)

// TracerName identifies spans emitted by the guild service
const TracerName = "github.com/forgo/guilds/internal/service"

// DefaultJoinCooldown is applied after a member leaves or is removed
const DefaultJoinCooldown = 10 * time.Minute

// UpgradeQuote describes a registered upgrade awaiting confirmation
type UpgradeQuote struct {
	From          int
	To            model.Tier
	Cost          int64
	FormattedCost string
}

// GuildService is the operation surface the command layer calls. Risky
// operations register a pending action and take effect on Confirm.
type GuildService struct {
	registry     *GuildRegistry
	tiers        *TierCatalog
	roles        *RoleCatalog
	vaults       *VaultAllocator
	perms        *PermissionSynchronizer
	actions      *ActionCoordinator
	events       *EventBus
	cooldowns    *Cooldowns
	persister    *Persister
	ledger       Ledger
	claims       ClaimProvider
	players      PlayerDirectory
	readOnly     bool
	joinCooldown time.Duration
	tracer       trace.Tracer
	logger       *slog.Logger
	now          func() time.Time
}

// GuildServiceConfig holds configuration for the guild service
type GuildServiceConfig struct {
	Registry     *GuildRegistry
	Tiers        *TierCatalog
	Roles        *RoleCatalog
	Vaults       *VaultAllocator
	Permissions  *PermissionSynchronizer
	Actions      *ActionCoordinator
	Events       *EventBus
	Cooldowns    *Cooldowns
	Persister    *Persister // optional
	Ledger       Ledger
	Claims       ClaimProvider // optional
	Players      PlayerDirectory
	ReadOnly     bool
	JoinCooldown time.Duration
	Tracer       trace.Tracer
	Logger       *slog.Logger
}

// NewGuildService creates a new guild service
func NewGuildService(cfg GuildServiceConfig) *GuildService {
	joinCooldown := cfg.JoinCooldown
	if joinCooldown == 0 {
		joinCooldown = DefaultJoinCooldown
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GuildService{
		registry:     cfg.Registry,
		tiers:        cfg.Tiers,
		roles:        cfg.Roles,
		vaults:       cfg.Vaults,
		perms:        cfg.Permissions,
		actions:      cfg.Actions,
		events:       cfg.Events,
		cooldowns:    cfg.Cooldowns,
		persister:    cfg.Persister,
		ledger:       cfg.Ledger,
		claims:       cfg.Claims,
		players:      cfg.Players,
		readOnly:     cfg.ReadOnly,
		joinCooldown: joinCooldown,
		tracer:       tracer,
		logger:       logger,
		now:          time.Now,
	}
}

// GuildOf returns the guild a player belongs to
func (s *GuildService) GuildOf(playerID string) (*model.Guild, bool) {
	return s.registry.LookupByMember(playerID)
}

// CreateGuild founds a guild with the caller as master
func (s *GuildService) CreateGuild(ctx context.Context, masterID, name, prefix string) (g *model.Guild, err error) {
	ctx, span := s.startSpan(ctx, "create", masterID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return nil, ErrReadOnly
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > model.MaxGuildNameLength || len(prefix) > model.MaxGuildPrefixLength {
		return nil, ErrGuildNameInvalid.With("name", name)
	}
	if _, ok := s.registry.LookupByMember(masterID); ok {
		return nil, ErrAlreadyInGuild.With("player", s.name(masterID))
	}
	if _, ok := s.registry.LookupByName(name); ok {
		return nil, ErrGuildNameTaken.With("name", name)
	}

	event := model.Event{Type: model.EventGuildCreated, GuildName: name, ActorID: masterID, At: s.now()}
	if err := s.events.Before(ctx, event); err != nil {
		return nil, err
	}

	g, err = s.registry.Create(name, prefix, masterID)
	if err != nil {
		return nil, err
	}
	_ = s.perms.SyncGuild(ctx, g)
	s.persister.MarkDirty(g.ID)

	event.GuildID = g.ID
	event.Tier = g.Tier
	s.events.After(ctx, event)
	return g, nil
}

// Invite records a pending invitation for an online player
func (s *GuildService) Invite(ctx context.Context, actorID, targetID string) (err error) {
	ctx, span := s.startSpan(ctx, "invite", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	g, _, err := s.actorGuild(actorID, model.ActionInvite)
	if err != nil {
		return err
	}
	if actorID == targetID {
		return ErrCannotTargetSelf
	}
	if !s.players.IsOnline(targetID) {
		return ErrPlayerNotFound.With("player", targetID)
	}
	if _, ok := s.registry.LookupByMember(targetID); ok {
		return ErrAlreadyInGuild.With("player", s.name(targetID))
	}
	if g.IsInvited(targetID) {
		return ErrAlreadyInvited.With("player", s.name(targetID))
	}

	event := s.event(model.EventMemberInvited, g, actorID, targetID)
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}

	if _, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		if g.IsInvited(targetID) {
			return ErrAlreadyInvited.With("player", s.name(targetID))
		}
		g.Invites[targetID] = struct{}{}
		return nil
	}); err != nil {
		return err
	}

	s.events.After(ctx, event)
	return nil
}

// AcceptInvite joins the player to a guild that invited them
func (s *GuildService) AcceptInvite(ctx context.Context, playerID, guildID string) (g *model.Guild, err error) {
	ctx, span := s.startSpan(ctx, "accept_invite", playerID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return nil, ErrReadOnly
	}
	if _, ok := s.registry.LookupByMember(playerID); ok {
		return nil, ErrAlreadyInGuild.With("player", s.name(playerID))
	}
	g, ok := s.registry.LookupByID(guildID)
	if !ok {
		return nil, ErrGuildNotFound.With("guild", guildID)
	}
	if left := s.cooldowns.Remaining(playerID, CooldownJoin); left > 0 {
		return nil, ErrJoinCooldown.With("remaining", left.Round(time.Second).String())
	}

	joinRole := s.roles.Lowest()
	canJoin := func(g *model.Guild) error {
		if !g.IsInvited(playerID) {
			return ErrNotInvited.With("guild", g.Name)
		}
		tier, err := s.tierOf(g)
		if err != nil {
			return err
		}
		if len(g.Members) >= tier.MaxMembers {
			return ErrGuildFull.With("max", strconv.Itoa(tier.MaxMembers))
		}
		if limit, ok := tier.RoleLimit(joinRole.Level); ok && g.CountRole(joinRole.Level) >= limit {
			return ErrRoleFull.With("role", joinRole.Name)
		}
		return nil
	}
	if err := canJoin(g); err != nil {
		return nil, err
	}

	event := s.event(model.EventMemberJoined, g, playerID, playerID)
	event.Role = joinRole.Level
	if err := s.events.Before(ctx, event); err != nil {
		return nil, err
	}

	g, err = s.registry.AddMember(guildID, playerID, joinRole.Level, canJoin)
	if err != nil {
		return nil, err
	}
	_ = s.perms.SyncMember(ctx, g, playerID)
	s.persister.MarkDirty(g.ID)
	s.events.After(ctx, event)
	return g, nil
}

// RequestLeave registers a leave confirmation. Confirming as master disbands the guild.
func (s *GuildService) RequestLeave(ctx context.Context, actorID string) (err error) {
	_, span := s.startSpan(ctx, "request_leave", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	if _, _, err := s.actorGuild(actorID, ""); err != nil {
		return err
	}
	s.actions.Register(actorID, ActionKindLeave, func(ctx context.Context) error {
		return s.leave(ctx, actorID)
	}, nil)
	return nil
}

func (s *GuildService) leave(ctx context.Context, actorID string) (err error) {
	ctx, span := s.startSpan(ctx, "leave", actorID)
	defer func() { endSpan(span, err) }()

	g, member, err := s.actorGuild(actorID, "")
	if err != nil {
		return err
	}

	event := s.event(model.EventMemberLeft, g, actorID, actorID)
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}
	if member.IsMaster() {
		return s.disband(ctx, g, actorID, model.RemoveCauseMasterLeft)
	}

	next, removed, err := s.registry.RemoveMember(g.ID, actorID)
	if err != nil {
		return err
	}
	s.detachMember(ctx, g, actorID)
	if removed {
		s.persister.MarkDeleted(g.ID)
	} else {
		s.persister.MarkDirty(next.ID)
	}
	s.events.After(ctx, event)
	return nil
}

// RequestDisband registers a disband confirmation
func (s *GuildService) RequestDisband(ctx context.Context, actorID string) (err error) {
	_, span := s.startSpan(ctx, "request_disband", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	if _, _, err := s.actorGuild(actorID, model.ActionDeleteGuild); err != nil {
		return err
	}
	s.actions.Register(actorID, ActionKindDisband, func(ctx context.Context) error {
		g, _, err := s.actorGuild(actorID, model.ActionDeleteGuild)
		if err != nil {
			return err
		}
		return s.disband(ctx, g, actorID, model.RemoveCauseDisbanded)
	}, nil)
	return nil
}

func (s *GuildService) disband(ctx context.Context, g *model.Guild, actorID string, cause model.RemoveCause) error {
	event := s.event(model.EventGuildRemoved, g, actorID, "")
	event.Cause = cause
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}

	g, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		g.Status = model.GuildStatusDisbanding
		return nil
	})
	if err != nil {
		return err
	}
	for _, m := range g.Members {
		s.detachMember(ctx, g, m.PlayerID)
	}
	if _, err := s.registry.Remove(g.ID); err != nil {
		return err
	}
	s.persister.MarkDeleted(g.ID)

	s.logger.Info("guild removed",
		slog.String("guild_id", g.ID),
		slog.String("name", g.Name),
		slog.String("cause", string(cause)),
	)
	s.events.After(ctx, event)
	return nil
}

// Kick removes a lower-ranked member
func (s *GuildService) Kick(ctx context.Context, actorID, targetID string) (err error) {
	ctx, span := s.startSpan(ctx, "kick", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	g, actor, err := s.actorGuild(actorID, model.ActionKick)
	if err != nil {
		return err
	}
	if actorID == targetID {
		return ErrCannotTargetSelf
	}
	outranked := func(g *model.Guild) error {
		target, ok := g.Member(targetID)
		if !ok {
			return ErrNotInGuild.With("player", s.name(targetID))
		}
		if !actor.Outranks(target.Role) {
			return ErrTargetOutranks.With("player", s.name(targetID))
		}
		return nil
	}
	if err := outranked(g); err != nil {
		return err
	}

	event := s.event(model.EventMemberKicked, g, actorID, targetID)
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}

	next, _, err := s.registry.RemoveMember(g.ID, targetID, outranked)
	if err != nil {
		return err
	}
	s.detachMember(ctx, next, targetID)
	s.persister.MarkDirty(next.ID)
	s.events.After(ctx, event)
	return nil
}

// SetRole promotes or demotes a member to the given role level
func (s *GuildService) SetRole(ctx context.Context, actorID, targetID string, level int) (err error) {
	ctx, span := s.startSpan(ctx, "set_role", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	g, actor, err := s.actorGuild(actorID, "")
	if err != nil {
		return err
	}
	if actorID == targetID {
		return ErrCannotTargetSelf
	}
	target, ok := g.Member(targetID)
	if !ok {
		return ErrNotInGuild.With("player", s.name(targetID))
	}
	if level == target.Role {
		return nil
	}

	action := model.ActionDemote
	if level < target.Role {
		action = model.ActionPromote
	}
	if err := s.requireAction(actor, action); err != nil {
		return err
	}
	newRole, ok := s.roles.Get(level)
	if !ok || level == model.MasterRoleLevel {
		return ErrRoleInvalid.With("role", strconv.Itoa(level))
	}

	check := func(g *model.Guild) error {
		current, ok := g.Member(targetID)
		if !ok {
			return ErrNotInGuild.With("player", s.name(targetID))
		}
		if !actor.Outranks(current.Role) || !actor.Outranks(level) {
			return ErrTargetOutranks.With("player", s.name(targetID))
		}
		tier, err := s.tierOf(g)
		if err != nil {
			return err
		}
		if limit, ok := tier.RoleLimit(level); ok && g.CountRole(level) >= limit {
			return ErrRoleFull.With("role", newRole.Name)
		}
		return nil
	}
	if err := check(g); err != nil {
		return err
	}

	event := s.event(model.EventRoleChanged, g, actorID, targetID)
	event.Role = level
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}

	next, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		if err := check(g); err != nil {
			return err
		}
		g.SetRole(targetID, level)
		return nil
	})
	if err != nil {
		return err
	}
	_ = s.perms.SyncMember(ctx, next, targetID)
	s.persister.MarkDirty(next.ID)
	s.events.After(ctx, event)
	return nil
}

// TransferMaster hands the master role to another member. The previous
// master takes the target's former role.
func (s *GuildService) TransferMaster(ctx context.Context, actorID, targetID string) (err error) {
	ctx, span := s.startSpan(ctx, "transfer_master", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	g, actor, err := s.actorGuild(actorID, model.ActionTransferGuild)
	if err != nil {
		return err
	}
	if !actor.IsMaster() {
		return ErrRolePermission.With("action", string(model.ActionTransferGuild))
	}
	if actorID == targetID {
		return ErrCannotTargetSelf
	}
	if !g.IsMember(targetID) {
		return ErrNotInGuild.With("player", s.name(targetID))
	}

	event := s.event(model.EventRoleChanged, g, actorID, targetID)
	event.Role = model.MasterRoleLevel
	if err := s.events.Before(ctx, event); err != nil {
		return err
	}

	next, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		current, ok := g.Member(actorID)
		if !ok || !current.IsMaster() {
			return ErrRolePermission.With("action", string(model.ActionTransferGuild))
		}
		target, ok := g.Member(targetID)
		if !ok {
			return ErrNotInGuild.With("player", s.name(targetID))
		}
		g.SetRole(actorID, target.Role)
		g.SetRole(targetID, model.MasterRoleLevel)
		return nil
	})
	if err != nil {
		return err
	}
	_ = s.perms.SyncMember(ctx, next, actorID)
	_ = s.perms.SyncMember(ctx, next, targetID)
	s.persister.MarkDirty(next.ID)
	s.events.After(ctx, event)
	return nil
}

// Deposit moves money from the actor's wallet into the guild bank
func (s *GuildService) Deposit(ctx context.Context, actorID string, amount int64) (err error) {
	ctx, span := s.startSpan(ctx, "deposit", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	if amount <= 0 {
		return ErrInvalidAmount.With("amount", strconv.FormatInt(amount, 10))
	}
	g, _, err := s.actorGuild(actorID, model.ActionDepositMoney)
	if err != nil {
		return err
	}
	fits := func(g *model.Guild) error {
		tier, err := s.tierOf(g)
		if err != nil {
			return err
		}
		if g.Balance+amount > tier.MaxBalance {
			return ErrBalanceCapReached.With("max", s.ledger.Format(tier.MaxBalance))
		}
		return nil
	}
	if err := fits(g); err != nil {
		return err
	}

	wallet, err := s.ledger.Balance(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to read wallet: %w", err)
	}
	if wallet < amount {
		return ErrInsufficientWallet.With("needed", s.ledger.Format(amount-wallet))
	}
	if err := s.ledger.Withdraw(ctx, actorID, amount); err != nil {
		return fmt.Errorf("failed to withdraw: %w", err)
	}

	next, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		if err := fits(g); err != nil {
			return err
		}
		g.Balance += amount
		return nil
	})
	if err != nil {
		if refundErr := s.ledger.Deposit(ctx, actorID, amount); refundErr != nil {
			s.logger.Error("failed to refund deposit",
				slog.String("player_id", actorID),
				slog.Int64("amount", amount),
				slog.String("error", refundErr.Error()),
			)
		}
		return err
	}
	s.persister.MarkDirty(next.ID)
	return nil
}

// AddProsperity adjusts a guild's prosperity score, never below zero
func (s *GuildService) AddProsperity(ctx context.Context, guildID string, delta int64) (g *model.Guild, err error) {
	_, span := s.startSpan(ctx, "add_prosperity", "")
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return nil, ErrReadOnly
	}
	g, err = s.registry.Mutate(guildID, func(g *model.Guild) error {
		g.Prosperity += delta
		if g.Prosperity < 0 {
			g.Prosperity = 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.persister.MarkDirty(g.ID)
	return g, nil
}

// RecordChallenge credits a win and a loss to the two guilds of a finished
// challenge. Either both are recorded or neither is.
func (s *GuildService) RecordChallenge(ctx context.Context, winnerID, loserID string) (err error) {
	_, span := s.startSpan(ctx, "record_challenge", "")
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	if winnerID == loserID {
		return ErrCannotTargetSelf
	}
	for _, id := range []string{winnerID, loserID} {
		if _, ok := s.registry.LookupByID(id); !ok {
			return ErrGuildNotFound.With("guild", id)
		}
	}

	if _, err := s.registry.Mutate(winnerID, func(g *model.Guild) error {
		g.Score.Wins++
		return nil
	}); err != nil {
		return err
	}
	s.persister.MarkDirty(winnerID)
	if _, err := s.registry.Mutate(loserID, func(g *model.Guild) error {
		g.Score.Losses++
		return nil
	}); err != nil {
		// the loser went away between the two commits; take the win back
		if _, undoErr := s.registry.Mutate(winnerID, func(g *model.Guild) error {
			if g.Score.Wins > 0 {
				g.Score.Wins--
			}
			return nil
		}); undoErr != nil {
			s.logger.Warn("failed to roll back challenge win",
				slog.String("guild_id", winnerID),
				slog.String("error", undoErr.Error()),
			)
		}
		return err
	}
	s.persister.MarkDirty(loserID)
	return nil
}

// OpenVault returns the actor's guild vault at index
func (s *GuildService) OpenVault(ctx context.Context, actorID string, index int) (v *model.Vault, err error) {
	ctx, span := s.startSpan(ctx, "open_vault", actorID)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("guild.vault_index", index))

	if s.readOnly {
		return nil, ErrReadOnly
	}
	g, _, err := s.actorGuild(actorID, model.ActionOpenVault)
	if err != nil {
		return nil, err
	}
	before := len(g.Vaults)
	v, err = s.vaults.Get(ctx, g.ID, index)
	if err != nil {
		return nil, err
	}
	if index >= before {
		s.persister.MarkDirty(g.ID)
	}
	return v, nil
}

// SetResidence links the guild to a land claim owned by the actor
func (s *GuildService) SetResidence(ctx context.Context, actorID, regionName string) (err error) {
	ctx, span := s.startSpan(ctx, "set_residence", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return ErrReadOnly
	}
	g, _, err := s.actorGuild(actorID, model.ActionChangeHome)
	if err != nil {
		return err
	}
	if s.claims == nil {
		return ErrResidenceNotFound.With("residence", regionName)
	}
	region, ok := s.claims.LookupRegionByName(ctx, regionName)
	if !ok {
		return ErrResidenceNotFound.With("residence", regionName)
	}
	if !s.claims.IsOwner(actorID, region) {
		return ErrResidenceNotOwner.With("residence", region.Name)
	}

	next, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		g.Residence = region.Name
		return nil
	})
	if err != nil {
		return err
	}
	_ = s.perms.SyncGuild(ctx, next)
	s.persister.MarkDirty(next.ID)
	return nil
}

// SetResidencePerms replaces the flags granted to members on the residence.
// raw is a comma separated list; full-width commas are accepted.
func (s *GuildService) SetResidencePerms(ctx context.Context, actorID, raw string) (flags []string, err error) {
	ctx, span := s.startSpan(ctx, "set_residence_perms", actorID)
	defer func() { endSpan(span, err) }()

	if s.readOnly {
		return nil, ErrReadOnly
	}
	g, _, err := s.actorGuild(actorID, model.ActionChangeHome)
	if err != nil {
		return nil, err
	}
	if g.Residence == "" {
		return nil, ErrResidenceNotFound
	}

	flags = ParseResidenceFlags(raw)
	next, err := s.registry.Mutate(g.ID, func(g *model.Guild) error {
		g.ResidencePerms = append([]string(nil), flags...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.perms.SyncGuild(ctx, next)
	s.persister.MarkDirty(next.ID)
	return flags, nil
}

// ParseResidenceFlags splits, trims, lower-cases and de-duplicates a flag list
func ParseResidenceFlags(raw string) []string {
	raw = strings.ReplaceAll(raw, "，", ",")
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		flag := strings.ToLower(strings.TrimSpace(part))
		if flag == "" {
			continue
		}
		if _, ok := seen[flag]; ok {
			continue
		}
		seen[flag] = struct{}{}
		out = append(out, flag)
	}
	return out
}

// Confirm accepts the actor's pending action
func (s *GuildService) Confirm(ctx context.Context, actorID string) error {
	return s.actions.Confirm(ctx, actorID)
}

// Decline cancels the actor's pending action
func (s *GuildService) Decline(ctx context.Context, actorID string) error {
	return s.actions.Decline(ctx, actorID)
}

// detachMember releases everything a departing member held through the guild
func (s *GuildService) detachMember(ctx context.Context, g *model.Guild, playerID string) {
	s.actions.Clear(playerID)
	_ = s.perms.RevokeMember(ctx, playerID)
	s.detachResidence(ctx, g, playerID)
	s.cooldowns.Add(playerID, CooldownJoin, s.joinCooldown)
}

// detachResidence strips the player's flags from the guild residence when the
// residence still belongs to the guild master.
func (s *GuildService) detachResidence(ctx context.Context, g *model.Guild, playerID string) {
	if s.claims == nil || g.Residence == "" {
		return
	}
	region, ok := s.claims.LookupRegionByName(ctx, g.Residence)
	if !ok || region.OwnerID == playerID {
		return
	}
	master, ok := g.Master()
	if !ok || !s.claims.IsOwner(master.PlayerID, region) {
		return
	}
	if err := s.claims.RemoveMemberFlags(ctx, region, playerID); err != nil {
		s.logger.Warn("failed to detach residence flags",
			slog.String("guild_id", g.ID),
			slog.String("player_id", playerID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *GuildService) actorGuild(actorID string, action model.RoleAction) (*model.Guild, model.Member, error) {
	g, ok := s.registry.LookupByMember(actorID)
	if !ok {
		return nil, model.Member{}, ErrNotInGuild
	}
	m, _ := g.Member(actorID)
	if action != "" {
		if err := s.requireAction(m, action); err != nil {
			return nil, model.Member{}, err
		}
	}
	return g, m, nil
}

func (s *GuildService) requireAction(m model.Member, action model.RoleAction) error {
	role, ok := s.roles.Get(m.Role)
	if !ok || !role.Can(action) {
		return ErrRolePermission.With("action", string(action))
	}
	return nil
}

func (s *GuildService) tierOf(g *model.Guild) (model.Tier, error) {
	tier, ok := s.tiers.Get(g.Tier)
	if !ok {
		return model.Tier{}, ErrInvalidConfiguration.With("guild", g.ID, "tier", strconv.Itoa(g.Tier))
	}
	return tier, nil
}

func (s *GuildService) name(playerID string) string {
	if s.players == nil {
		return playerID
	}
	if n := s.players.Name(playerID); n != "" {
		return n
	}
	return playerID
}

func (s *GuildService) event(t model.EventType, g *model.Guild, actorID, targetID string) model.Event {
	return model.Event{
		Type:      t,
		GuildID:   g.ID,
		GuildName: g.Name,
		ActorID:   actorID,
		TargetID:  targetID,
		Tier:      g.Tier,
		At:        s.now(),
	}
}

func (s *GuildService) startSpan(ctx context.Context, op, actorID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "guild."+op, trace.WithAttributes(attribute.String("guild.actor_id", actorID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
