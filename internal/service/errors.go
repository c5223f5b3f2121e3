package service

import "github.com/forgo/guilds/internal/model"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency.
// Each one is a coded model.Error; callers attach substitution parameters
// with With and compare with errors.Is.

// ===== Guild Errors =====
var (
	ErrGuildNotFound      = model.NewBusinessError(model.CodeGuildNotFound, "guild not found")
	ErrGuildNameTaken     = model.NewBusinessError(model.CodeGuildNameTaken, "a guild with this name already exists")
	ErrGuildNameInvalid   = model.NewBusinessError(model.CodeGuildNameInvalid, "guild name or prefix is invalid")
	ErrNotInGuild         = model.NewBusinessError(model.CodeNotInGuild, "player is not in a guild")
	ErrAlreadyInGuild     = model.NewBusinessError(model.CodeAlreadyInGuild, "player is already in a guild")
	ErrAlreadyInvited     = model.NewBusinessError(model.CodeAlreadyInvited, "player is already invited")
	ErrNotInvited         = model.NewBusinessError(model.CodeNotInvited, "player has no invitation to this guild")
	ErrPlayerNotFound     = model.NewBusinessError(model.CodePlayerNotFound, "target player is not online")
	ErrGuildFull          = model.NewBusinessError(model.CodeGuildFull, "guild has reached its member cap")
	ErrCannotTargetSelf   = model.NewBusinessError(model.CodeCannotTargetSelf, "cannot target yourself")
	ErrJoinCooldown       = model.NewBusinessError(model.CodeJoinCooldown, "player must wait before joining a guild")
	ErrMasterMustTransfer = model.NewBusinessError(model.CodeMasterMustTransfer, "the guild master must transfer the guild first")
)

// ===== Role Errors =====
var (
	ErrRoleFull       = model.NewBusinessError(model.CodeRoleFull, "role has reached its member cap")
	ErrRolePermission = model.NewBusinessError(model.CodeRolePermission, "role does not allow this action")
	ErrRoleInvalid    = model.NewBusinessError(model.CodeRoleInvalid, "role level is not valid")
	ErrTargetOutranks = model.NewBusinessError(model.CodeTargetOutranks, "target does not rank below the actor")
)

// ===== Upgrade Errors =====
var (
	ErrUpgradeMaxTier     = model.NewBusinessError(model.CodeUpgradeMaxTier, "guild is already at the highest tier")
	ErrUpgradeMembers     = model.NewBusinessError(model.CodeUpgradeMembers, "not enough members to upgrade")
	ErrUpgradeProsperity  = model.NewBusinessError(model.CodeUpgradeProsperity, "not enough prosperity to upgrade")
	ErrUpgradeFunds       = model.NewBusinessError(model.CodeUpgradeFunds, "not enough money in the guild bank to upgrade")
	ErrUpgradeTierChanged = model.NewBusinessError(model.CodeUpgradeTierChanged, "guild tier changed before the upgrade was confirmed")
)

// ===== Bank Errors =====
var (
	ErrInvalidAmount      = model.NewBusinessError(model.CodeInvalidAmount, "amount must be positive")
	ErrBalanceCapReached  = model.NewBusinessError(model.CodeBalanceCapReached, "guild bank would exceed its tier cap")
	ErrInsufficientWallet = model.NewBusinessError(model.CodeInsufficientWallet, "player does not have enough money")
)

// ===== Residence Errors =====
var (
	ErrResidenceNotFound = model.NewBusinessError(model.CodeResidenceNotFound, "residence not found")
	ErrResidenceNotOwner = model.NewBusinessError(model.CodeResidenceNotOwner, "player does not own the residence")
)

// ===== Workflow Errors =====
var (
	ErrReadOnly       = model.NewBusinessError(model.CodeReadOnly, "guild state is read-only")
	ErrEventVetoed    = model.NewBusinessError(model.CodeEventVetoed, "operation was cancelled by a listener")
	ErrNothingPending = model.NewBusinessError(model.CodeNothingPending, "no pending action")
)

// ===== Capacity / Configuration Errors =====
var (
	ErrVaultCapacity        = model.NewCapacityError(model.CodeVaultCapacity, "vault index exceeds tier capacity")
	ErrInvalidConfiguration = model.NewConfigurationError("invalid configuration")
)
