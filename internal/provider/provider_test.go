package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MemoryLedger Tests
// ============================================================================

func TestMemoryLedger_Format_GroupsDigits(t *testing.T) {
	t.Parallel()
	l := NewMemoryLedger(LedgerConfig{})

	assert.Equal(t, "$1,000", l.Format(1000))
	assert.Equal(t, "$12", l.Format(12))
}

func TestMemoryLedger_Withdraw_RejectsOverdraft(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemoryLedger(LedgerConfig{Symbol: "G"})

	require.NoError(t, l.Deposit(ctx, "p1", 100))
	assert.ErrorIs(t, l.Withdraw(ctx, "p1", 101), ErrInsufficientFunds)
	assert.ErrorIs(t, l.Deposit(ctx, "p1", -1), ErrNegativeAmount)

	require.NoError(t, l.Withdraw(ctx, "p1", 40))
	bal, err := l.Balance(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), bal)
}

// ============================================================================
// MemoryPermissions Tests
// ============================================================================

func TestMemoryPermissions_GrantRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewMemoryPermissions()

	require.NoError(t, p.Grant(ctx, "p1", "b"))
	require.NoError(t, p.Grant(ctx, "p1", "a"))
	assert.Equal(t, []string{"a", "b"}, p.Nodes("p1"))

	require.NoError(t, p.Revoke(ctx, "p1", "a"))
	has, err := p.Has(ctx, "p1", "a")
	require.NoError(t, err)
	assert.False(t, has)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, p.Grant(cancelled, "p1", "c"))
}

// ============================================================================
// MemoryClaims Tests
// ============================================================================

func TestMemoryClaims_LookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemoryClaims()
	c.AddRegion("Keep", "owner")
	c.SetMemberFlags("keep", "p2")

	region, ok := c.LookupRegionByName(ctx, "KEEP")
	require.True(t, ok)
	assert.True(t, c.IsOwner("owner", region))
	assert.False(t, c.IsOwner("p2", region))

	require.NoError(t, c.RemoveMemberFlags(ctx, region, "p2"))
	assert.False(t, c.HasMemberFlags("Keep", "p2"))
}
