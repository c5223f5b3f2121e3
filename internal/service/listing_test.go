package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/guilds/internal/testing/fixtures"
)

func TestLister_Submit_PresentsOnDispatcher(t *testing.T) {
	t.Parallel()
	core, deps := newTestCore(t)
	g := insertGuild(t, core, fixtures.WithMembers("m", "z", "a", "o"))
	setRole(t, core, g.ID, "o", 1)
	deps.players.Add("z", "Zed", true)
	deps.players.Add("a", "Ann", true)
	deps.players.Add("o", "Otto", true)
	deps.players.Add("m", "Max", true)

	var (
		got     Listing
		gotErr  error
		present int
	)
	core.Lister.Submit(context.Background(), ListingRequest{Kind: ListingMembers, GuildID: g.ID}, func(l Listing, err error) {
		got, gotErr = l, err
		present++
	})

	// present only runs on the dispatcher goroutine, here the test itself
	assert.Zero(t, present)
	require.Eventually(t, func() bool { return deps.dispatcher.Drain() > 0 }, time.Second, 5*time.Millisecond)

	require.Equal(t, 1, present)
	require.NoError(t, gotErr)
	assert.Equal(t, 4, got.Total)

	names := make([]string, len(got.Entries))
	for i, e := range got.Entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Max", "Otto", "Ann", "Zed"}, names)
	assert.Equal(t, "Officer", got.Entries[1].Detail)
}

func TestLister_Submit_ReportsErrors(t *testing.T) {
	t.Parallel()
	core, deps := newTestCore(t)

	var gotErr error
	core.Lister.Submit(context.Background(), ListingRequest{Kind: ListingMembers, GuildID: "missing"}, func(_ Listing, err error) {
		gotErr = err
	})

	require.Eventually(t, func() bool { return deps.dispatcher.Drain() > 0 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, gotErr, ErrGuildNotFound)
}

func TestLister_Build_Paginates(t *testing.T) {
	t.Parallel()
	core, _ := newTestCore(t)
	for i := 0; i < 5; i++ {
		insertGuild(t, core, fixtures.WithName(fmt.Sprintf("Guild %d", i)))
	}
	ctx := context.Background()

	page, err := core.Lister.Build(ctx, ListingRequest{Kind: ListingGuilds, Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "Guild 4", page.Entries[0].Name)

	clamped, err := core.Lister.Build(ctx, ListingRequest{Kind: ListingGuilds, Page: 99, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, clamped.Page)

	first, err := core.Lister.Build(ctx, ListingRequest{Kind: ListingGuilds})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Len(t, first.Entries, 5)
	assert.Contains(t, first.Entries[0].Detail, "tier 1, 1 members")
}

func TestLister_Build_Empty(t *testing.T) {
	t.Parallel()
	core, _ := newTestCore(t)

	l, err := core.Lister.Build(context.Background(), ListingRequest{Kind: ListingGuilds})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Pages)
	assert.Empty(t, l.Entries)

	_, err = core.Lister.Build(context.Background(), ListingRequest{Kind: "allies"})
	assert.Error(t, err)
}
