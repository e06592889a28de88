// Package scheduler runs the worker pool that drains the enrichment queue.
// Workers claim due tasks, execute the stage pipeline (fan-out, fusion,
// scoring, signal evaluation), and schedule the successor stage. A janitor
// loop returns expired claims to the queue so work survives worker crashes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/queue"
	"solana-token-radar/internal/ratelimit"
	"solana-token-radar/internal/scoring"
	"solana-token-radar/internal/signal"
	"solana-token-radar/internal/stage"
	"solana-token-radar/internal/storage"
)

// maxAttempts bounds retries per (mint, stage). A task failing this many
// times is dropped with a log line rather than looping forever.
const maxAttempts = 5

// retryDelay spaces retries of a failed task.
const retryDelay = 30 * time.Second

// Archiver receives fused snapshots for offline analysis. Archive writes
// are best-effort; failures never fail the stage.
type Archiver interface {
	Insert(ctx context.Context, snap *domain.TokenSnapshot) error
}

// Options configures a worker pool. Queue, Registry, Limits, the three
// stores, both scorers and the signal engine are required.
type Options struct {
	Queue    queue.Queue
	Registry *stage.Registry
	Limits   *ratelimit.Registry

	Tokens    storage.TokenStore
	Snapshots storage.SnapshotStore
	Signals   storage.SignalStore
	Archive   Archiver // optional

	ScorerV2     *scoring.Engine
	ScorerV3     *scoring.Engine
	Comparator   *scoring.Comparator
	SignalEngine *signal.Engine
	Notifier     signal.Notifier // optional, defaults to LogNotifier

	Config *config.Config
	Logger *log.Logger
}

// Pool is the enrichment worker pool.
type Pool struct {
	queue    queue.Queue
	registry *stage.Registry
	limits   *ratelimit.Registry

	tokens    storage.TokenStore
	snapshots storage.SnapshotStore
	signals   storage.SignalStore
	archive   Archiver

	scorerV2     *scoring.Engine
	scorerV3     *scoring.Engine
	comparator   *scoring.Comparator
	signalEngine *signal.Engine
	notifier     signal.Notifier

	cfg    *config.Config
	logger *log.Logger

	now func() time.Time
}

// New creates a worker pool.
func New(opts Options) (*Pool, error) {
	if opts.Queue == nil || opts.Registry == nil || opts.Limits == nil {
		return nil, fmt.Errorf("scheduler: queue, registry and limits are required")
	}
	if opts.Tokens == nil || opts.Snapshots == nil || opts.Signals == nil {
		return nil, fmt.Errorf("scheduler: all three stores are required")
	}
	if opts.ScorerV2 == nil || opts.ScorerV3 == nil || opts.SignalEngine == nil {
		return nil, fmt.Errorf("scheduler: both scorers and the signal engine are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = &signal.LogNotifier{Logger: logger}
	}

	return &Pool{
		queue:        opts.Queue,
		registry:     opts.Registry,
		limits:       opts.Limits,
		tokens:       opts.Tokens,
		snapshots:    opts.Snapshots,
		signals:      opts.Signals,
		archive:      opts.Archive,
		scorerV2:     opts.ScorerV2,
		scorerV3:     opts.ScorerV3,
		comparator:   opts.Comparator,
		signalEngine: opts.SignalEngine,
		notifier:     notifier,
		cfg:          opts.Config,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Run starts the configured number of workers plus the stale-claim janitor
// and blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.workerLoop(ctx, id)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.janitorLoop(ctx)
	}()

	wg.Wait()
	return ctx.Err()
}

// workerLoop claims and executes tasks until cancelled. An empty queue
// backs off instead of spinning.
func (p *Pool) workerLoop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}

		task, err := p.queue.ClaimNext(ctx, p.now().UnixMilli())
		if err != nil {
			if !errors.Is(err, queue.ErrEmpty) {
				p.logger.Printf("[worker %d] claim failed: %v", id, err)
			}
			p.sleep(ctx, p.cfg.ClaimBackoff())
			continue
		}

		observability.DefaultMetrics.TasksClaimed.Inc()
		p.handle(ctx, id, task)
	}
}

// handle runs one claimed task and settles it with the queue. Queue
// settlement is the failure boundary: pipeline errors requeue the task for
// a later attempt, they never crash the worker.
func (p *Pool) handle(ctx context.Context, id int, task *domain.EnrichmentTask) {
	start := p.now()
	err := p.executeStage(ctx, task)
	elapsed := p.now().Sub(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordStageRun(string(task.Stage), status, elapsed.Seconds())

	if ackErr := p.queue.Ack(ctx, task); ackErr != nil {
		p.logger.Printf("[worker %d] ack %s failed: %v", id, task.Key(), ackErr)
	}

	if err == nil {
		return
	}

	if task.Attempt >= maxAttempts {
		p.logger.Printf("[worker %d] dropping %s after %d attempts: %v", id, task.Key(), task.Attempt, err)
		return
	}

	p.logger.Printf("[worker %d] %s attempt %d failed, retrying: %v", id, task.Key(), task.Attempt, err)
	retry := *task
	retry.DueAt = p.now().Add(retryDelay).UnixMilli()
	if enqErr := p.queue.Enqueue(ctx, &retry, true); enqErr != nil {
		p.logger.Printf("[worker %d] requeue %s failed: %v", id, task.Key(), enqErr)
		return
	}
	observability.DefaultMetrics.TasksRequeued.Inc()
}

// janitorLoop periodically frees expired claims and refreshes the queue
// depth gauge.
func (p *Pool) janitorLoop(ctx context.Context) {
	interval := p.cfg.ClaimLease() / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			freed, err := p.queue.ReleaseStaleClaims(ctx, p.now().UnixMilli())
			if err != nil {
				p.logger.Printf("[janitor] release stale claims failed: %v", err)
				continue
			}
			if freed > 0 {
				p.logger.Printf("[janitor] released %d stale claims", freed)
				observability.DefaultMetrics.StaleClaimsFreed.Add(float64(freed))
			}
			p.reportDepth(ctx)
			p.reportBreakers()
		}
	}
}

func (p *Pool) reportDepth(ctx context.Context) {
	type depther interface {
		Depth(ctx context.Context) (pending, claimed int64, err error)
	}
	if q, ok := p.queue.(depther); ok {
		if pending, _, err := q.Depth(ctx); err == nil {
			observability.DefaultMetrics.QueueDepth.Set(float64(pending))
		}
	}
}

func (p *Pool) reportBreakers() {
	open := make(map[string]bool)
	for _, source := range p.limits.OpenSources() {
		open[source] = true
		observability.SetBreakerOpen(source, true)
	}
	// Closed breakers are reset lazily: a source seen open before flips
	// back to 0 on the sweep after it closes.
	for _, source := range p.limits.Sources() {
		if !open[source] {
			observability.SetBreakerOpen(source, false)
		}
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
