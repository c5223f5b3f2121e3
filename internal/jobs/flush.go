package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Flusher writes pending guild state to storage
type Flusher interface {
	Flush(ctx context.Context) error
	Pending() int
}

// FlushJob periodically writes dirty guilds to the store
// - Runs Flush every interval while anything is pending
// - Runs a final Flush when stopped
type FlushJob struct {
	flusher  Flusher
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewFlushJob creates a new flush job
func NewFlushJob(flusher Flusher, interval time.Duration, logger *slog.Logger) *FlushJob {
	if interval == 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlushJob{
		flusher:  flusher,
		interval: interval,
		timeout:  time.Minute,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the flush job
func (j *FlushJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("flush job started", slog.Duration("interval", j.interval))
}

// Stop halts the loop and flushes whatever is still pending
func (j *FlushJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.flush()
	j.logger.Info("flush job stopped")
}

func (j *FlushJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if j.flusher.Pending() > 0 {
				j.flush()
			}
		case <-j.stopCh:
			return
		}
	}
}

func (j *FlushJob) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.flusher.Flush(ctx); err != nil {
		j.logger.Error("failed to flush guilds",
			slog.Int("pending", j.flusher.Pending()),
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce flushes once (for testing or manual trigger)
func (j *FlushJob) RunOnce(ctx context.Context) error {
	return j.flusher.Flush(ctx)
}

// IsRunning returns whether the job is running
func (j *FlushJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
