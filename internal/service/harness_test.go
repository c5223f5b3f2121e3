package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgo/guilds/internal/model"
	"github.com/forgo/guilds/internal/provider"
	"github.com/forgo/guilds/internal/testing/fixtures"
)

// ============================================================================
// Mock Providers
// ============================================================================

// mockPermissions records every call and delegates to an in-memory store
// unless one of the func fields returns an error.
type mockPermissions struct {
	inner *provider.MemoryPermissions

	mu         sync.Mutex
	calls      []string
	grantFunc  func(playerID, node string) error
	revokeFunc func(playerID, node string) error
}

func newMockPermissions() *mockPermissions {
	return &mockPermissions{inner: provider.NewMemoryPermissions()}
}

func (m *mockPermissions) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockPermissions) Grant(ctx context.Context, playerID, node string) error {
	m.record("grant " + playerID + " " + node)
	if m.grantFunc != nil {
		if err := m.grantFunc(playerID, node); err != nil {
			return err
		}
	}
	return m.inner.Grant(ctx, playerID, node)
}

func (m *mockPermissions) Revoke(ctx context.Context, playerID, node string) error {
	m.record("revoke " + playerID + " " + node)
	if m.revokeFunc != nil {
		if err := m.revokeFunc(playerID, node); err != nil {
			return err
		}
	}
	return m.inner.Revoke(ctx, playerID, node)
}

func (m *mockPermissions) Has(ctx context.Context, playerID, node string) (bool, error) {
	return m.inner.Has(ctx, playerID, node)
}

func (m *mockPermissions) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockPermissions) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// mockStore is a GuildStore with func fields
type mockStore struct {
	loadAllFunc func(ctx context.Context) ([]model.GuildRecord, error)
	saveFunc    func(ctx context.Context, rec model.GuildRecord) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockStore) LoadAll(ctx context.Context) ([]model.GuildRecord, error) {
	if m.loadAllFunc != nil {
		return m.loadAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockStore) Save(ctx context.Context, rec model.GuildRecord) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, rec)
	}
	return nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// ============================================================================
// Test Core
// ============================================================================

type testDeps struct {
	perms      *mockPermissions
	ledger     *provider.MemoryLedger
	claims     *provider.MemoryClaims
	players    *provider.MemoryPlayers
	dispatcher *QueueDispatcher
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestCore(t *testing.T, opts ...func(*CoreConfig)) (*Core, *testDeps) {
	t.Helper()

	deps := &testDeps{
		perms:      newMockPermissions(),
		ledger:     provider.NewMemoryLedger(provider.LedgerConfig{}),
		claims:     provider.NewMemoryClaims(),
		players:    provider.NewMemoryPlayers(),
		dispatcher: NewQueueDispatcher(16),
	}
	cfg := CoreConfig{
		Catalog:     CatalogFile{Tiers: fixtures.Tiers(), Roles: fixtures.Roles()},
		Permissions: deps.perms,
		Ledger:      deps.ledger,
		Claims:      deps.claims,
		Players:     deps.players,
		Dispatcher:  deps.dispatcher,
		Logger:      discardLogger(),
	}
	for _, fn := range opts {
		fn(&cfg)
	}

	core, err := NewCore(cfg)
	require.NoError(t, err)
	return core, deps
}

// insertGuild publishes a fixture guild directly into the registry
func insertGuild(t *testing.T, core *Core, opts ...func(*fixtures.GuildOpts)) *model.Guild {
	t.Helper()
	g := fixtures.Guild(opts...)
	require.NoError(t, core.Registry.Insert(g))
	return g
}

// setRole changes a member's role without going through the service checks
func setRole(t *testing.T, core *Core, guildID, playerID string, level int) {
	t.Helper()
	_, err := core.Registry.Mutate(guildID, func(g *model.Guild) error {
		g.SetRole(playerID, level)
		return nil
	})
	require.NoError(t, err)
}

func mustGuild(t *testing.T, core *Core, id string) *model.Guild {
	t.Helper()
	g, ok := core.Registry.LookupByID(id)
	require.True(t, ok, "guild %s should exist", id)
	return g
}

// captureEvents collects post-commit events
func captureEvents(bus *EventBus) func() []model.Event {
	var (
		mu     sync.Mutex
		events []model.Event
	)
	bus.OnAfter(func(_ context.Context, e model.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	return func() []model.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]model.Event(nil), events...)
	}
}
