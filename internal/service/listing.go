package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/forgo/guilds/internal/model"
)

// DefaultPageSize matches one chest page of the listing GUI
const DefaultPageSize = 45

// ListingKind selects what a listing shows
type ListingKind string

const (
	ListingGuilds  ListingKind = "guilds"
	ListingMembers ListingKind = "members"
)

// ListingRequest describes one listing page
type ListingRequest struct {
	Kind     ListingKind
	GuildID  string // required for ListingMembers
	Page     int    // 1-based
	PageSize int
}

func (r ListingRequest) key() string {
	return string(r.Kind) + "|" + r.GuildID + "|" + strconv.Itoa(r.Page) + "|" + strconv.Itoa(r.PageSize)
}

// ListingEntry is one row of a listing
type ListingEntry struct {
	ID     string
	Name   string
	Detail string
}

// Listing is a fully built page. It is never handed out partially filled.
type Listing struct {
	Request ListingRequest
	Entries []ListingEntry
	Page    int
	Pages   int
	Total   int
	BuiltAt time.Time
}

// Dispatcher runs a function on the presentation goroutine
type Dispatcher interface {
	Dispatch(fn func())
}

// QueueDispatcher buffers functions until the owning goroutine runs them
type QueueDispatcher struct {
	queue chan func()
}

// NewQueueDispatcher creates a dispatcher with the given buffer size
func NewQueueDispatcher(size int) *QueueDispatcher {
	if size <= 0 {
		size = 64
	}
	return &QueueDispatcher{queue: make(chan func(), size)}
}

// Dispatch enqueues fn, blocking while the queue is full
func (d *QueueDispatcher) Dispatch(fn func()) {
	d.queue <- fn
}

// Run executes queued functions until ctx is done
func (d *QueueDispatcher) Run(ctx context.Context) {
	for {
		select {
		case fn := <-d.queue:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Drain executes everything currently queued and returns the count
func (d *QueueDispatcher) Drain() int {
	n := 0
	for {
		select {
		case fn := <-d.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// Lister builds listings off the calling goroutine and hands them back
// through a Dispatcher. Identical concurrent requests share one build.
type Lister struct {
	registry   *GuildRegistry
	roles      *RoleCatalog
	players    PlayerDirectory
	dispatcher Dispatcher
	group      singleflight.Group
	logger     *slog.Logger
	now        func() time.Time
}

// ListerConfig holds configuration for the lister
type ListerConfig struct {
	Registry   *GuildRegistry
	Roles      *RoleCatalog
	Players    PlayerDirectory
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

// NewLister creates a lister
func NewLister(cfg ListerConfig) *Lister {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewQueueDispatcher(0)
	}
	return &Lister{
		registry:   cfg.Registry,
		roles:      cfg.Roles,
		players:    cfg.Players,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Submit builds the listing in the background and dispatches present with the result
func (l *Lister) Submit(ctx context.Context, req ListingRequest, present func(Listing, error)) {
	go func() {
		v, err, shared := l.group.Do(req.key(), func() (any, error) {
			return l.Build(ctx, req)
		})
		var listing Listing
		if err == nil {
			listing = v.(Listing)
		} else {
			l.logger.Warn("listing build failed",
				slog.String("kind", string(req.Kind)),
				slog.Bool("shared", shared),
				slog.String("error", err.Error()),
			)
		}
		l.dispatcher.Dispatch(func() { present(listing, err) })
	}()
}

// Build assembles one listing page from a single registry snapshot
func (l *Lister) Build(ctx context.Context, req ListingRequest) (Listing, error) {
	if req.PageSize <= 0 {
		req.PageSize = DefaultPageSize
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	var (
		entries []ListingEntry
		err     error
	)
	switch req.Kind {
	case ListingGuilds:
		entries, err = l.guildEntries(ctx)
	case ListingMembers:
		g, ok := l.registry.LookupByID(req.GuildID)
		if !ok {
			return Listing{}, ErrGuildNotFound.With("guild", req.GuildID)
		}
		entries, err = l.memberEntries(ctx, g)
	default:
		return Listing{}, fmt.Errorf("unknown listing kind %q", req.Kind)
	}
	if err != nil {
		return Listing{}, err
	}

	total := len(entries)
	pages := (total + req.PageSize - 1) / req.PageSize
	if pages == 0 {
		pages = 1
	}
	page := req.Page
	if page > pages {
		page = pages
	}
	start := (page - 1) * req.PageSize
	end := min(start+req.PageSize, total)

	return Listing{
		Request: req,
		Entries: entries[start:end],
		Page:    page,
		Pages:   pages,
		Total:   total,
		BuiltAt: l.now(),
	}, nil
}

func (l *Lister) guildEntries(ctx context.Context) ([]ListingEntry, error) {
	guilds := l.registry.All()
	masters := make([]string, len(guilds))
	for i, g := range guilds {
		if m, ok := g.Master(); ok {
			masters[i] = m.PlayerID
		}
	}
	names, err := l.names(ctx, masters)
	if err != nil {
		return nil, err
	}

	entries := make([]ListingEntry, len(guilds))
	for i, g := range guilds {
		entries[i] = ListingEntry{
			ID:     g.ID,
			Name:   g.Name,
			Detail: fmt.Sprintf("[%s] tier %d, %d members, master %s", g.Prefix, g.Tier, len(g.Members), names[i]),
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (l *Lister) memberEntries(ctx context.Context, g *model.Guild) ([]ListingEntry, error) {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.PlayerID
	}
	names, err := l.names(ctx, ids)
	if err != nil {
		return nil, err
	}

	type row struct {
		entry ListingEntry
		level int
	}
	rows := make([]row, len(g.Members))
	for i, m := range g.Members {
		roleName := strconv.Itoa(m.Role)
		if role, ok := l.roles.Get(m.Role); ok {
			roleName = role.Name
		}
		rows[i] = row{entry: ListingEntry{ID: m.PlayerID, Name: names[i], Detail: roleName}, level: m.Role}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].level != rows[j].level {
			return rows[i].level < rows[j].level
		}
		return rows[i].entry.Name < rows[j].entry.Name
	})

	entries := make([]ListingEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry
	}
	return entries, nil
}

// names resolves player names in parallel
func (l *Lister) names(ctx context.Context, ids []string) ([]string, error) {
	out := make([]string, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	for i, id := range ids {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if id == "" || l.players == nil {
				out[i] = id
				return nil
			}
			out[i] = l.players.Name(id)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve names: %w", err)
	}
	return out, nil
}
