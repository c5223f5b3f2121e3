package publish

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/guilds/internal/model"
	"github.com/forgo/guilds/internal/service"
)

// Publisher sends one committed guild event to an external system
type Publisher interface {
	Name() string
	Publish(ctx context.Context, e model.Event) error
	Close() error
}

// Relay moves committed events off the mutating goroutine and hands them to
// every publisher in order. When the buffer is full, events are dropped.
type Relay struct {
	publishers []Publisher
	timeout    time.Duration
	logger     *slog.Logger

	events  chan model.Event
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	dropped int
}

// RelayConfig holds configuration for the relay
type RelayConfig struct {
	Publishers []Publisher
	Buffer     int           // default 256
	Timeout    time.Duration // per publish, default 5 seconds
	Logger     *slog.Logger
}

// NewRelay creates a relay. Start launches the delivery goroutine.
func NewRelay(cfg RelayConfig) *Relay {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		publishers: cfg.Publishers,
		timeout:    cfg.Timeout,
		logger:     logger,
		events:     make(chan model.Event, cfg.Buffer),
		stopCh:     make(chan struct{}),
	}
}

// Listener returns the event bus listener that feeds the relay
func (r *Relay) Listener() service.Listener {
	return func(_ context.Context, e model.Event) {
		select {
		case r.events <- e:
		default:
			r.mu.Lock()
			r.dropped++
			r.mu.Unlock()
			r.logger.Warn("event relay full, dropping event",
				slog.String("type", string(e.Type)),
				slog.String("guild_id", e.GuildID),
			)
		}
	}
}

// Start begins delivering events
func (r *Relay) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	r.logger.Info("event relay started", slog.Int("publishers", len(r.publishers)))
}

// Stop delivers what is already buffered, then closes every publisher
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()

	for _, p := range r.publishers {
		if err := p.Close(); err != nil {
			r.logger.Warn("failed to close publisher",
				slog.String("publisher", p.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	r.logger.Info("event relay stopped")
}

// Dropped returns how many events were discarded because the buffer was full
func (r *Relay) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

func (r *Relay) run() {
	defer r.wg.Done()

	for {
		select {
		case e := <-r.events:
			r.deliver(e)
		case <-r.stopCh:
			for {
				select {
				case e := <-r.events:
					r.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) deliver(e model.Event) {
	for _, p := range r.publishers {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := p.Publish(ctx, e)
		cancel()
		if err != nil {
			r.logger.Error("failed to publish guild event",
				slog.String("publisher", p.Name()),
				slog.String("type", string(e.Type)),
				slog.String("guild_id", e.GuildID),
				slog.String("error", err.Error()),
			)
		}
	}
}
