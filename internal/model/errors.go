package model

import (
	"fmt"
	"sort"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is reported in ErrorInfo details
const ErrorDomain = "guilds.forgo.software"

// ErrorKind classifies how the command boundary should treat an error
type ErrorKind int

const (
	// KindBusinessRule is shown to the actor; guild state is unchanged
	KindBusinessRule ErrorKind = iota + 1
	// KindCapacity is a rejected operation, not a fault
	KindCapacity
	// KindConfiguration is fatal at startup
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindBusinessRule:
		return "business_rule"
	case KindCapacity:
		return "capacity"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// ErrorCode is a machine-readable error code that doubles as the message key
type ErrorCode string

const (
	// Guild lookup / membership (business rule)
	CodeGuildNotFound        ErrorCode = "GUILD_NOT_FOUND"
	CodeNotInGuild           ErrorCode = "NOT_IN_GUILD"
	CodeAlreadyInGuild       ErrorCode = "ALREADY_IN_GUILD"
	CodeAlreadyInvited       ErrorCode = "ALREADY_INVITED"
	CodeNotInvited           ErrorCode = "NOT_INVITED"
	CodePlayerNotFound       ErrorCode = "PLAYER_NOT_FOUND"
	CodeGuildNameTaken       ErrorCode = "GUILD_NAME_TAKEN"
	CodeGuildNameInvalid     ErrorCode = "GUILD_NAME_INVALID"
	CodeGuildFull            ErrorCode = "GUILD_FULL"
	CodeRoleFull             ErrorCode = "ROLE_FULL"
	CodeRolePermission       ErrorCode = "ROLE_PERMISSION_DENIED"
	CodeRoleInvalid          ErrorCode = "ROLE_INVALID"
	CodeCannotTargetSelf     ErrorCode = "CANNOT_TARGET_SELF"
	CodeTargetOutranks       ErrorCode = "TARGET_OUTRANKS_ACTOR"
	CodeMasterMustTransfer   ErrorCode = "MASTER_MUST_TRANSFER"
	CodeJoinCooldown         ErrorCode = "JOIN_COOLDOWN"
	CodeReadOnly             ErrorCode = "READ_ONLY"
	CodeEventVetoed          ErrorCode = "EVENT_VETOED"
	CodeNothingPending       ErrorCode = "NOTHING_PENDING"
	CodeResidenceNotFound    ErrorCode = "RESIDENCE_NOT_FOUND"
	CodeResidenceNotOwner    ErrorCode = "RESIDENCE_NOT_OWNER"
	CodeInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	CodeBalanceCapReached    ErrorCode = "BALANCE_CAP_REACHED"
	CodeInsufficientWallet   ErrorCode = "INSUFFICIENT_WALLET"
	CodeUpgradeMaxTier       ErrorCode = "UPGRADE_TIER_MAX"
	CodeUpgradeMembers       ErrorCode = "UPGRADE_NOT_ENOUGH_MEMBERS"
	CodeUpgradeProsperity    ErrorCode = "UPGRADE_NOT_ENOUGH_PROSPERITY"
	CodeUpgradeFunds         ErrorCode = "UPGRADE_NOT_ENOUGH_MONEY"
	CodeUpgradeTierChanged   ErrorCode = "UPGRADE_TIER_CHANGED"
	CodeVaultCapacity        ErrorCode = "VAULT_CAPACITY_EXCEEDED"
	CodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// Error is a guild domain error carrying a message key and substitution parameters
type Error struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string            // internal message for logs
	Params  map[string]string // substitution parameters for the message key
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// With returns a copy of e carrying the given substitution parameters.
// Arguments are key/value pairs.
func (e *Error) With(kv ...string) *Error {
	c := *e
	c.Params = make(map[string]string, len(e.Params)+len(kv)/2)
	for k, v := range e.Params {
		c.Params[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		c.Params[kv[i]] = kv[i+1]
	}
	return &c
}

// Wrap returns a copy of e with an underlying cause
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// NewBusinessError creates a user-facing business rule violation
func NewBusinessError(code ErrorCode, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

// NewCapacityError creates a capacity rejection
func NewCapacityError(code ErrorCode, message string) *Error {
	return &Error{Kind: KindCapacity, Code: code, Message: message}
}

// NewConfigurationError creates a fatal configuration error
func NewConfigurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Code: CodeInvalidConfiguration, Message: message}
}

// GRPCCode maps the error kind to a gRPC status code
func (e *Error) GRPCCode() codes.Code {
	switch e.Kind {
	case KindBusinessRule:
		if e.Code == CodeGuildNotFound || e.Code == CodePlayerNotFound || e.Code == CodeResidenceNotFound {
			return codes.NotFound
		}
		return codes.FailedPrecondition
	case KindCapacity:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// ToGRPCStatus converts the error to a gRPC status. The ErrorInfo detail carries
// the message key as Reason and the substitution parameters as Metadata; the
// LocalizedMessage carries the text already rendered by the caller.
func (e *Error) ToGRPCStatus(locale, userMessage string) error {
	st := status.New(e.GRPCCode(), e.Message)
	info := &errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   ErrorDomain,
		Metadata: e.Params,
	}
	var (
		withDetails *status.Status
		err         error
	)
	if userMessage != "" {
		withDetails, err = st.WithDetails(info, &errdetails.LocalizedMessage{Locale: locale, Message: userMessage})
	} else {
		withDetails, err = st.WithDetails(info)
	}
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// ParamKeys returns the parameter names in sorted order
func (e *Error) ParamKeys() []string {
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
