package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guilds/internal/model"
	"github.com/forgo/guilds/internal/testing/fixtures"
)

// ============================================================================
// CreateGuild Tests
// ============================================================================

func TestGuildService_CreateGuild(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	events := captureEvents(core.Events)

	g, err := core.Guilds.CreateGuild(ctx, "m", "Wolves", "WLF")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Tier)

	owner, ok := core.Guilds.GuildOf("m")
	require.True(t, ok)
	assert.Equal(t, g.ID, owner.ID)
	assert.Contains(t, deps.perms.inner.Nodes("m"), "guilds.role.master")

	got := events()
	require.Len(t, got, 1)
	assert.Equal(t, model.EventGuildCreated, got[0].Type)
	assert.Equal(t, g.ID, got[0].GuildID)
}

func TestGuildService_CreateGuild_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	insertGuild(t, core, fixtures.WithName("Wolves"), fixtures.WithMembers("m"))

	_, err := core.Guilds.CreateGuild(ctx, "m", "Other", "OTH")
	assert.ErrorIs(t, err, ErrAlreadyInGuild)

	_, err = core.Guilds.CreateGuild(ctx, "p", "WOLVES", "W")
	assert.ErrorIs(t, err, ErrGuildNameTaken)

	_, err = core.Guilds.CreateGuild(ctx, "p", "   ", "W")
	assert.ErrorIs(t, err, ErrGuildNameInvalid)

	_, err = core.Guilds.CreateGuild(ctx, "p", "Fine", "WAYTOOLONGPREFIX")
	assert.ErrorIs(t, err, ErrGuildNameInvalid)
}

// ============================================================================
// Invite / Join Tests
// ============================================================================

func TestGuildService_InviteAndAccept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m"))
	deps.players.Add("p", "Pat", true)

	require.NoError(t, core.Guilds.Invite(ctx, "m", "p"))
	assert.ErrorIs(t, core.Guilds.Invite(ctx, "m", "p"), ErrAlreadyInvited)

	joined, err := core.Guilds.AcceptInvite(ctx, "p", g.ID)
	require.NoError(t, err)

	m, ok := joined.Member("p")
	require.True(t, ok)
	assert.Equal(t, 2, m.Role, "joins with the lowest role")
	assert.False(t, joined.IsInvited("p"))
	assert.Contains(t, deps.perms.inner.Nodes("p"), "guilds.role.member")
}

func TestGuildService_Invite_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	insertGuild(t, core, fixtures.WithMembers("m", "a"))
	insertGuild(t, core, fixtures.WithMembers("other"))
	deps.players.Add("other", "Other", true)

	assert.ErrorIs(t, core.Guilds.Invite(ctx, "m", "offline"), ErrPlayerNotFound)
	assert.ErrorIs(t, core.Guilds.Invite(ctx, "m", "m"), ErrCannotTargetSelf)
	assert.ErrorIs(t, core.Guilds.Invite(ctx, "m", "other"), ErrAlreadyInGuild)
	assert.ErrorIs(t, core.Guilds.Invite(ctx, "a", "other"), ErrRolePermission)
	assert.ErrorIs(t, core.Guilds.Invite(ctx, "nobody", "other"), ErrNotInGuild)
}

func TestGuildService_AcceptInvite_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a", "b", "c", "d"))

	_, err := core.Guilds.AcceptInvite(ctx, "p", g.ID)
	assert.ErrorIs(t, err, ErrNotInvited)

	_, err = core.Registry.Mutate(g.ID, func(g *model.Guild) error {
		g.Invites["p"] = struct{}{}
		return nil
	})
	require.NoError(t, err)

	// tier 1 holds five members
	_, err = core.Guilds.AcceptInvite(ctx, "p", g.ID)
	assert.ErrorIs(t, err, ErrGuildFull)

	_, err = core.Guilds.AcceptInvite(ctx, "p", "missing")
	assert.ErrorIs(t, err, ErrGuildNotFound)
}

// ============================================================================
// Leave / Disband Tests
// ============================================================================

func TestGuildService_Leave_RevokesAndStartsCooldown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"), fixtures.WithResidence("Keep"))
	deps.claims.AddRegion("Keep", "m")
	deps.claims.SetMemberFlags("Keep", "a")
	require.NoError(t, core.Permissions.SyncGuild(ctx, g))

	require.NoError(t, core.Guilds.RequestLeave(ctx, "a"))
	assert.True(t, mustGuild(t, core, g.ID).IsMember("a"), "leave waits for confirmation")
	require.NoError(t, core.Guilds.Confirm(ctx, "a"))

	assert.False(t, mustGuild(t, core, g.ID).IsMember("a"))
	assert.Empty(t, deps.perms.inner.Nodes("a"))
	assert.False(t, deps.claims.HasMemberFlags("Keep", "a"))

	_, err := core.Registry.Mutate(g.ID, func(g *model.Guild) error {
		g.Invites["a"] = struct{}{}
		return nil
	})
	require.NoError(t, err)
	_, err = core.Guilds.AcceptInvite(ctx, "a", g.ID)
	assert.ErrorIs(t, err, ErrJoinCooldown)

	core.Cooldowns.Add("a", CooldownJoin, 0)
	_, err = core.Guilds.AcceptInvite(ctx, "a", g.ID)
	assert.NoError(t, err)
}

func TestGuildService_MasterLeaveDisbands(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	events := captureEvents(core.Events)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a", "b"))
	require.NoError(t, core.Permissions.SyncGuild(ctx, g))

	require.NoError(t, core.Guilds.RequestLeave(ctx, "m"))
	require.NoError(t, core.Guilds.Confirm(ctx, "m"))

	_, ok := core.Registry.LookupByID(g.ID)
	assert.False(t, ok)
	for _, p := range []string{"m", "a", "b"} {
		_, ok := core.Guilds.GuildOf(p)
		assert.False(t, ok, p)
		assert.Empty(t, deps.perms.inner.Nodes(p), p)
	}

	got := events()
	require.Len(t, got, 1)
	assert.Equal(t, model.EventGuildRemoved, got[0].Type)
	assert.Equal(t, model.RemoveCauseMasterLeft, got[0].Cause)
}

func TestGuildService_Disband(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	events := captureEvents(core.Events)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"))

	assert.ErrorIs(t, core.Guilds.RequestDisband(ctx, "a"), ErrRolePermission)

	require.NoError(t, core.Guilds.RequestDisband(ctx, "m"))
	require.NoError(t, core.Guilds.Confirm(ctx, "m"))

	_, ok := core.Registry.LookupByID(g.ID)
	assert.False(t, ok)
	got := events()
	require.Len(t, got, 1)
	assert.Equal(t, model.RemoveCauseDisbanded, got[0].Cause)
}

func TestGuildService_Leave_Vetoed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"))

	core.Events.OnBefore(func(_ context.Context, e model.Event) error {
		if e.Type == model.EventMemberLeft {
			return errors.New("in combat")
		}
		return nil
	})

	require.NoError(t, core.Guilds.RequestLeave(ctx, "a"))
	assert.ErrorIs(t, core.Guilds.Confirm(ctx, "a"), ErrEventVetoed)
	assert.True(t, mustGuild(t, core, g.ID).IsMember("a"))
}

// ============================================================================
// Kick / Role Tests
// ============================================================================

func TestGuildService_Kick(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "o", "a", "b"))
	setRole(t, core, g.ID, "o", 1)

	assert.ErrorIs(t, core.Guilds.Kick(ctx, "a", "b"), ErrRolePermission)
	assert.ErrorIs(t, core.Guilds.Kick(ctx, "o", "m"), ErrTargetOutranks)
	assert.ErrorIs(t, core.Guilds.Kick(ctx, "o", "o"), ErrCannotTargetSelf)
	assert.ErrorIs(t, core.Guilds.Kick(ctx, "o", "stranger"), ErrNotInGuild)

	require.NoError(t, core.Guilds.Kick(ctx, "o", "a"))
	assert.False(t, mustGuild(t, core, g.ID).IsMember("a"))
	assert.Positive(t, core.Cooldowns.Remaining("a", CooldownJoin))
}

func TestGuildService_SetRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a", "b"))

	require.NoError(t, core.Guilds.SetRole(ctx, "m", "a", 1))
	m, _ := mustGuild(t, core, g.ID).Member("a")
	assert.Equal(t, 1, m.Role)
	assert.Contains(t, deps.perms.inner.Nodes("a"), "guilds.role.officer")

	// tier 1 allows one officer
	assert.ErrorIs(t, core.Guilds.SetRole(ctx, "m", "b", 1), ErrRoleFull)
	assert.ErrorIs(t, core.Guilds.SetRole(ctx, "m", "b", 0), ErrRoleInvalid)
	assert.ErrorIs(t, core.Guilds.SetRole(ctx, "m", "b", 7), ErrRoleInvalid)
	assert.ErrorIs(t, core.Guilds.SetRole(ctx, "b", "a", 2), ErrRolePermission)
	assert.ErrorIs(t, core.Guilds.SetRole(ctx, "a", "m", 2), ErrTargetOutranks)

	require.NoError(t, core.Guilds.SetRole(ctx, "m", "a", 2))
	assert.NotContains(t, deps.perms.inner.Nodes("a"), "guilds.role.officer")
}

func TestGuildService_TransferMaster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"))

	assert.ErrorIs(t, core.Guilds.TransferMaster(ctx, "a", "m"), ErrRolePermission)
	require.NoError(t, core.Guilds.TransferMaster(ctx, "m", "a"))

	cur := mustGuild(t, core, g.ID)
	master, ok := cur.Master()
	require.True(t, ok)
	assert.Equal(t, "a", master.PlayerID)
	old, _ := cur.Member("m")
	assert.Equal(t, 2, old.Role)
	assert.Equal(t, 1, cur.CountRole(model.MasterRoleLevel))
}

// ============================================================================
// Bank Tests
// ============================================================================

func TestGuildService_Deposit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"), fixtures.WithBalance(4000))
	require.NoError(t, deps.ledger.Deposit(ctx, "a", 1500))

	require.NoError(t, core.Guilds.Deposit(ctx, "a", 500))
	assert.Equal(t, int64(4500), mustGuild(t, core, g.ID).Balance)
	wallet, err := deps.ledger.Balance(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet)

	// tier 1 caps the bank at 5000
	assert.ErrorIs(t, core.Guilds.Deposit(ctx, "a", 600), ErrBalanceCapReached)
	assert.ErrorIs(t, core.Guilds.Deposit(ctx, "a", 0), ErrInvalidAmount)
	assert.ErrorIs(t, core.Guilds.Deposit(ctx, "m", 100), ErrInsufficientWallet)

	wallet, err = deps.ledger.Balance(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet, "rejected deposits do not touch the wallet")
}

func TestGuildService_AddProsperityAndChallenge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	a := insertGuild(t, core, fixtures.WithProsperity(10))
	b := insertGuild(t, core)

	g, err := core.Guilds.AddProsperity(ctx, a.ID, -25)
	require.NoError(t, err)
	assert.Zero(t, g.Prosperity)

	require.NoError(t, core.Guilds.RecordChallenge(ctx, a.ID, b.ID))
	assert.Equal(t, 1, mustGuild(t, core, a.ID).Score.Wins)
	assert.Equal(t, 1, mustGuild(t, core, b.ID).Score.Losses)
	assert.ErrorIs(t, core.Guilds.RecordChallenge(ctx, a.ID, a.ID), ErrCannotTargetSelf)
}

func TestGuildService_RecordChallenge_DisbandingLoserKeepsWinnerUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	a := insertGuild(t, core)
	b := insertGuild(t, core)

	_, err := core.Registry.Mutate(b.ID, func(g *model.Guild) error {
		g.Status = model.GuildStatusDisbanding
		return nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, core.Guilds.RecordChallenge(ctx, a.ID, b.ID), ErrGuildNotFound)
	assert.Zero(t, mustGuild(t, core, a.ID).Score.Wins)
}

// ============================================================================
// Residence Tests
// ============================================================================

func TestGuildService_SetResidence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, deps := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"))
	deps.claims.AddRegion("Keep", "m")
	deps.claims.AddRegion("Tower", "someone")

	assert.ErrorIs(t, core.Guilds.SetResidence(ctx, "m", "Nowhere"), ErrResidenceNotFound)
	assert.ErrorIs(t, core.Guilds.SetResidence(ctx, "m", "Tower"), ErrResidenceNotOwner)
	_, err := core.Guilds.SetResidencePerms(ctx, "m", "build")
	assert.ErrorIs(t, err, ErrResidenceNotFound)

	require.NoError(t, core.Guilds.SetResidence(ctx, "m", "keep"))
	assert.Equal(t, "Keep", mustGuild(t, core, g.ID).Residence)

	flags, err := core.Guilds.SetResidencePerms(ctx, "m", "Build， container,build")
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "container"}, flags)
	assert.Contains(t, deps.perms.inner.Nodes("a"), "guilds.residence.container")
}

func TestParseResidenceFlags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"build", "use"}, ParseResidenceFlags(" BUILD ，use,,build "))
	assert.Empty(t, ParseResidenceFlags(" , "))
}

// ============================================================================
// Vault / Read-Only Tests
// ============================================================================

func TestGuildService_OpenVault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t)
	insertGuild(t, core, fixtures.WithMembers("m", "a"), fixtures.WithTier(2))

	v, err := core.Guilds.OpenVault(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Index)

	_, err = core.Guilds.OpenVault(ctx, "a", 3)
	assert.ErrorIs(t, err, ErrVaultCapacity)
}

func TestGuildService_ReadOnlyRejectsMutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	core, _ := newTestCore(t, func(cfg *CoreConfig) { cfg.ReadOnly = true })
	g := insertGuild(t, core, fixtures.WithMembers("m", "a"))

	_, err := core.Guilds.CreateGuild(ctx, "p", "New", "NEW")
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.ErrorIs(t, core.Guilds.Invite(ctx, "m", "p"), ErrReadOnly)
	assert.ErrorIs(t, core.Guilds.RequestLeave(ctx, "a"), ErrReadOnly)
	assert.ErrorIs(t, core.Guilds.Kick(ctx, "m", "a"), ErrReadOnly)
	assert.ErrorIs(t, core.Guilds.Deposit(ctx, "a", 10), ErrReadOnly)
	_, err = core.Guilds.OpenVault(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrReadOnly)

	// reads still work
	_, ok := core.Guilds.GuildOf("a")
	assert.True(t, ok)
	assert.Equal(t, g.Name, core.Placeholders.Resolve("a", "name"))
}

func TestGuildService_CooldownExpires(t *testing.T) {
	t.Parallel()
	core, _ := newTestCore(t, func(cfg *CoreConfig) { cfg.JoinCooldown = time.Minute })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	core.Cooldowns.now = func() time.Time { return now }
	core.Cooldowns.Add("p", CooldownJoin, time.Minute)
	assert.Equal(t, time.Minute, core.Cooldowns.Remaining("p", CooldownJoin))

	now = now.Add(2 * time.Minute)
	assert.Zero(t, core.Cooldowns.Remaining("p", CooldownJoin))

	core.Cooldowns.cleanupExpired()
	assert.Zero(t, core.Cooldowns.Len())
}
