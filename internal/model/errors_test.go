package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ============================================================================
// Error Matching Tests
// ============================================================================

func TestError_Is_MatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := NewBusinessError(CodeAlreadyInGuild, "player already in a guild")
	withParams := sentinel.With("player", "steve")
	wrapped := fmt.Errorf("invite: %w", withParams)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, NewBusinessError(CodeAlreadyInvited, "x")))
}

func TestError_With_DoesNotMutateSentinel(t *testing.T) {
	t.Parallel()

	sentinel := NewBusinessError(CodeUpgradeFunds, "not enough money")
	a := sentinel.With("needed", "10")
	b := a.With("extra", "1")

	assert.Empty(t, sentinel.Params)
	assert.Equal(t, map[string]string{"needed": "10"}, a.Params)
	assert.Equal(t, []string{"extra", "needed"}, b.ParamKeys())
}

func TestError_Wrap_ExposesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("ledger offline")
	err := NewBusinessError(CodeInsufficientWallet, "wallet withdraw failed").Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ledger offline")
	assert.Contains(t, err.Error(), string(CodeInsufficientWallet))
}

// ============================================================================
// gRPC Conversion Tests
// ============================================================================

func TestError_GRPCCode_ByKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, codes.FailedPrecondition, NewBusinessError(CodeUpgradeFunds, "x").GRPCCode())
	assert.Equal(t, codes.NotFound, NewBusinessError(CodePlayerNotFound, "x").GRPCCode())
	assert.Equal(t, codes.ResourceExhausted, NewCapacityError(CodeVaultCapacity, "x").GRPCCode())
	assert.Equal(t, codes.Internal, NewConfigurationError("x").GRPCCode())
}

func TestError_ToGRPCStatus_CarriesKeyAndParams(t *testing.T) {
	t.Parallel()

	err := NewBusinessError(CodeUpgradeProsperity, "not enough prosperity").With("needed", "40")
	st, ok := status.FromError(err.ToGRPCStatus("en-US", "You need 40 more prosperity"))
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			info = v
		case *errdetails.LocalizedMessage:
			localized = v
		}
	}
	require.NotNil(t, info)
	require.NotNil(t, localized)
	assert.Equal(t, string(CodeUpgradeProsperity), info.Reason)
	assert.Equal(t, ErrorDomain, info.Domain)
	assert.Equal(t, "40", info.Metadata["needed"])
	assert.Equal(t, "You need 40 more prosperity", localized.Message)
}

func TestError_ToGRPCStatus_NoLocalizedMessage(t *testing.T) {
	t.Parallel()

	err := NewCapacityError(CodeVaultCapacity, "vault index out of range")
	st, ok := status.FromError(err.ToGRPCStatus("en-US", ""))
	require.True(t, ok)
	assert.Len(t, st.Details(), 1)
}
