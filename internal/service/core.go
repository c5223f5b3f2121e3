package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/forgo/guilds/internal/model"
)

// Core owns every guild component for the lifetime of the server. It is
// built once at startup and passed to whatever needs it.
type Core struct {
	Tiers        *TierCatalog
	Roles        *RoleCatalog
	Registry     *GuildRegistry
	Actions      *ActionCoordinator
	Vaults       *VaultAllocator
	Permissions  *PermissionSynchronizer
	Events       *EventBus
	Cooldowns    *Cooldowns
	Persister    *Persister
	Guilds       *GuildService
	Placeholders *PlaceholderResolver
	Lister       *Lister

	store  GuildStore
	logger *slog.Logger
}

// CoreConfig holds everything needed to assemble a Core
type CoreConfig struct {
	Catalog         CatalogFile
	Store           GuildStore // optional; nil disables persistence
	Permissions     PermissionProvider
	Ledger          Ledger
	Claims          ClaimProvider
	Players         PlayerDirectory
	Dispatcher      Dispatcher
	ReadOnly        bool
	JoinCooldown    time.Duration
	ResidencePrefix string
	ResidenceFlags  []string
	Location        *time.Location
	Tracer          trace.Tracer
	Logger          *slog.Logger
}

// NewCore validates the catalog and wires the components together
func NewCore(cfg CoreConfig) (*Core, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tiers, err := NewTierCatalog(cfg.Catalog.Tiers)
	if err != nil {
		return nil, fmt.Errorf("tier catalog: %w", err)
	}
	roles, err := NewRoleCatalog(cfg.Catalog.Roles)
	if err != nil {
		return nil, fmt.Errorf("role catalog: %w", err)
	}

	registry := NewGuildRegistry(tiers)
	actions := NewActionCoordinator()
	vaults := NewVaultAllocator(registry, tiers)
	events := NewEventBus(logger)
	cooldowns := NewCooldowns(CooldownConfig{})
	perms := NewPermissionSynchronizer(PermissionSynchronizerConfig{
		Provider:        cfg.Permissions,
		Registry:        registry,
		Tiers:           tiers,
		Roles:           roles,
		ResidencePrefix: cfg.ResidencePrefix,
		ResidenceFlags:  cfg.ResidenceFlags,
		Logger:          logger,
	})
	var persister *Persister
	if cfg.Store != nil {
		persister = NewPersister(PersisterConfig{
			Store:    cfg.Store,
			Registry: registry,
			ReadOnly: cfg.ReadOnly,
			Logger:   logger,
		})
	}

	return &Core{
		Tiers:       tiers,
		Roles:       roles,
		Registry:    registry,
		Actions:     actions,
		Vaults:      vaults,
		Permissions: perms,
		Events:      events,
		Cooldowns:   cooldowns,
		Persister:   persister,
		Guilds: NewGuildService(GuildServiceConfig{
			Registry:     registry,
			Tiers:        tiers,
			Roles:        roles,
			Vaults:       vaults,
			Permissions:  perms,
			Actions:      actions,
			Events:       events,
			Cooldowns:    cooldowns,
			Persister:    persister,
			Ledger:       cfg.Ledger,
			Claims:       cfg.Claims,
			Players:      cfg.Players,
			ReadOnly:     cfg.ReadOnly,
			JoinCooldown: cfg.JoinCooldown,
			Tracer:       cfg.Tracer,
			Logger:       logger,
		}),
		Placeholders: NewPlaceholderResolver(PlaceholderResolverConfig{
			Registry: registry,
			Tiers:    tiers,
			Roles:    roles,
			Players:  cfg.Players,
			Ledger:   cfg.Ledger,
			Location: cfg.Location,
		}),
		Lister: NewLister(ListerConfig{
			Registry:   registry,
			Roles:      roles,
			Players:    cfg.Players,
			Dispatcher: cfg.Dispatcher,
			Logger:     logger,
		}),
		store:  cfg.Store,
		logger: logger,
	}, nil
}

// Load reads every stored guild into the registry. A record that references
// an unknown tier or role is a configuration error.
func (c *Core) Load(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	records, err := c.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load guilds: %w", err)
	}

	for _, rec := range records {
		if _, ok := c.Tiers.Get(rec.Tier); !ok {
			return 0, ErrInvalidConfiguration.With("guild", rec.ID, "tier", strconv.Itoa(rec.Tier))
		}
		masters := 0
		for _, m := range rec.Members {
			if _, ok := c.Roles.Get(m.Role); !ok {
				return 0, ErrInvalidConfiguration.With("guild", rec.ID, "role", strconv.Itoa(m.Role))
			}
			if m.Role == model.MasterRoleLevel {
				masters++
			}
		}
		if masters != 1 {
			return 0, ErrInvalidConfiguration.With("guild", rec.ID, "reason", "guild must have exactly one master")
		}
		if err := c.Registry.Insert(model.GuildFromRecord(rec)); err != nil {
			return 0, ErrInvalidConfiguration.With("guild", rec.ID).Wrap(err)
		}
	}

	c.logger.Info("guilds loaded", slog.Int("count", len(records)))
	return len(records), nil
}

// Reconcile re-syncs the permission nodes of every member of every guild.
// It heals grants left behind by provider failures.
func (c *Core) Reconcile(ctx context.Context) error {
	var errs []error
	for _, g := range c.Registry.All() {
		if err := c.Permissions.SyncGuild(ctx, g); err != nil {
			errs = append(errs, fmt.Errorf("guild %s: %w", g.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Start launches background housekeeping
func (c *Core) Start() {
	c.Cooldowns.Start()
}

// Stop halts housekeeping and writes any unsaved guild state
func (c *Core) Stop(ctx context.Context) error {
	c.Cooldowns.Stop()
	if c.Persister == nil {
		return nil
	}
	return c.Persister.Flush(ctx)
}
