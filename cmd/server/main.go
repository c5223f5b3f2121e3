package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/forgo/guilds/internal/config"
	"github.com/forgo/guilds/internal/database"
	"github.com/forgo/guilds/internal/jobs"
	"github.com/forgo/guilds/internal/provider"
	"github.com/forgo/guilds/internal/publish"
	"github.com/forgo/guilds/internal/repository"
	"github.com/forgo/guilds/internal/repository/sqlite"
	"github.com/forgo/guilds/internal/service"
	"github.com/forgo/guilds/internal/telemetry"
)

// version is set at build time
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", slog.String("error", err.Error()))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Server)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server exited")
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: "guilds",
		Version:     version,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	catalog, err := service.LoadCatalogFile(cfg.Guilds.CatalogPath)
	if err != nil {
		return err
	}
	location, err := cfg.Guilds.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	// In-process collaborators; a game host swaps these for its own adapters.
	dispatcher := service.NewQueueDispatcher(256)
	core, err := service.NewCore(service.CoreConfig{
		Catalog:     catalog,
		Store:       store,
		Permissions: provider.NewMemoryPermissions(),
		Ledger: provider.NewMemoryLedger(provider.LedgerConfig{
			Locale: cfg.Guilds.Locale,
			Symbol: cfg.Guilds.CurrencySymbol,
		}),
		Claims:          provider.NewMemoryClaims(),
		Players:         provider.NewMemoryPlayers(),
		Dispatcher:      dispatcher,
		ReadOnly:        cfg.Guilds.ReadOnly,
		JoinCooldown:    cfg.Guilds.JoinCooldown,
		ResidencePrefix: cfg.Guilds.ResidencePrefix,
		ResidenceFlags:  cfg.Guilds.ResidenceFlags,
		Location:        location,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	loaded, err := core.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("guild engine ready",
		slog.Int("guilds", loaded),
		slog.Int("tiers", core.Tiers.MaxLevel()),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("read_only", cfg.Guilds.ReadOnly),
	)

	relay, err := newRelay(cfg.Events, logger)
	if err != nil {
		return err
	}
	if relay != nil {
		core.Events.OnAfter(relay.Listener())
		relay.Start()
	}

	core.Start()
	flushJob := jobs.NewFlushJob(core.Persister, cfg.Storage.FlushInterval, logger)
	flushJob.Start()
	reconcileJob := jobs.NewReconcileJob(core, 0, logger)
	reconcileJob.Start()

	go dispatcher.Run(ctx)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	reconcileJob.Stop()
	flushJob.Stop()
	if err := core.Stop(shutdownCtx); err != nil {
		logger.Error("final flush failed", slog.String("error", err.Error()))
	}
	if relay != nil {
		relay.Stop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracing", slog.String("error", err.Error()))
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.GuildStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
		)
		repo := repository.NewGuildRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil
	default:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened sqlite store", slog.String("path", cfg.Storage.SQLitePath))
		return store, store.Close, nil
	}
}

func newRelay(cfg config.EventsConfig, logger *slog.Logger) (*publish.Relay, error) {
	if !cfg.PublishesEvents() {
		return nil, nil
	}
	var publishers []publish.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, publish.NewKafkaPublisher(publish.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}))
	}
	if cfg.AMQPURL != "" {
		p, err := publish.NewAMQPPublisher(publish.AMQPConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
		})
		if err != nil {
			for _, pub := range publishers {
				_ = pub.Close()
			}
			return nil, fmt.Errorf("connect to amqp: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publish.NewRelay(publish.RelayConfig{
		Publishers: publishers,
		Buffer:     cfg.Buffer,
		Logger:     logger,
	}), nil
}
