package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reconciler re-syncs external permission grants with guild state
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// ReconcileJob periodically converges permission grants so that nodes left
// behind by a failed provider call are eventually fixed.
type ReconcileJob struct {
	reconciler Reconciler
	interval   time.Duration
	delay      time.Duration
	logger     *slog.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// NewReconcileJob creates a new reconcile job
func NewReconcileJob(reconciler Reconciler, interval time.Duration, logger *slog.Logger) *ReconcileJob {
	if interval == 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileJob{
		reconciler: reconciler,
		interval:   interval,
		delay:      5 * time.Second,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the reconcile job
func (j *ReconcileJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("reconcile job started", slog.Duration("interval", j.interval))
}

// Stop gracefully stops the reconcile job
func (j *ReconcileJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("reconcile job stopped")
}

func (j *ReconcileJob) run() {
	defer j.wg.Done()

	// first pass after startup, once collaborators are reachable
	select {
	case <-time.After(j.delay):
		j.reconcile()
	case <-j.stopCh:
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.reconcile()
		case <-j.stopCh:
			return
		}
	}
}

func (j *ReconcileJob) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := j.reconciler.Reconcile(ctx); err != nil {
		j.logger.Warn("permission reconcile incomplete", slog.String("error", err.Error()))
	}
}

// RunOnce reconciles once (for testing or manual trigger)
func (j *ReconcileJob) RunOnce(ctx context.Context) error {
	return j.reconciler.Reconcile(ctx)
}

// IsRunning returns whether the job is running
func (j *ReconcileJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
