package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finwallet/internal/core"
	"finwallet/internal/log"
	"finwallet/internal/remote"
	"finwallet/internal/storage"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending items (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of items to process per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the number of failed attempts before an item is parked
	// as failed (default: 5)
	MaxRetries int

	// MaxBackoff caps the delay between attempts (default: 10m)
	MaxBackoff time.Duration

	// CleanupInterval is how often to clean up completed items (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old completed items must be before cleanup (default: 24h)
	CleanupAge time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:    10 * time.Second,
		BatchSize:       10,
		MaxRetries:      5,
		MaxBackoff:      10 * time.Minute,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// BatchResult counts what one replay pass did.
type BatchResult struct {
	Processed int
	Succeeded int
	Failed    int
}

func (r *BatchResult) add(o BatchResult) {
	r.Processed += o.Processed
	r.Succeeded += o.Succeeded
	r.Failed += o.Failed
}

// SyncProcessor replays the outbox against the remote mirror whenever the
// remote is reachable.
type SyncProcessor struct {
	store  storage.Store
	mirror remote.Mirror
	prober remote.Prober
	config SyncProcessorConfig
	now    func() time.Time

	// serialises replay passes inside this process
	batchMu sync.Mutex

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a processor. A nil prober means the remote is
// always considered reachable.
func NewSyncProcessor(store storage.Store, mirror remote.Mirror, prober remote.Prober, config SyncProcessorConfig) *SyncProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	return &SyncProcessor{
		store:  store,
		mirror: mirror,
		prober: prober,
		config: config,
		now:    time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	// Items left in processing by a previous crash go back to pending.
	if err := p.store.ResetStaleProcessing(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to reset stale processing items", "error", err)
	}

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	// Cleared before waiting so a timed-out Stop is not repeated.
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	p.replay(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.replay(ctx)
		case <-cleanupTicker.C:
			p.cleanupCompleted(ctx)
		}
	}
}

func (p *SyncProcessor) replay(ctx context.Context) {
	res, err := p.Drain(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Outbox replay failed", "error", err)
		return
	}
	if res.Processed > 0 {
		slog.InfoContext(ctx, "Outbox replayed",
			"processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed)
	}
}

func (p *SyncProcessor) reachable(ctx context.Context) bool {
	return p.prober == nil || p.prober.IsReachable(ctx)
}

// Drain replays batches until the due backlog is empty or an item fails.
func (p *SyncProcessor) Drain(ctx context.Context) (BatchResult, error) {
	return p.ReplayUpTo(ctx, 0)
}

// ReplayUpTo is Drain bounded to at most limit items; zero means no bound.
func (p *SyncProcessor) ReplayUpTo(ctx context.Context, limit int) (BatchResult, error) {
	var total BatchResult
	for {
		size := p.config.BatchSize
		if limit > 0 {
			left := limit - total.Processed
			if left <= 0 {
				return total, nil
			}
			size = min(size, left)
		}
		res, err := p.processBatch(ctx, size)
		total.add(res)
		if err != nil || res.Processed == 0 || res.Failed > 0 {
			return total, err
		}
	}
}

// ProcessOnce replays one batch of due items, oldest first. It stops at the
// first failure so later mutations do not overtake it.
func (p *SyncProcessor) ProcessOnce(ctx context.Context) (BatchResult, error) {
	return p.processBatch(ctx, p.config.BatchSize)
}

func (p *SyncProcessor) processBatch(ctx context.Context, size int) (BatchResult, error) {
	var res BatchResult
	if p.mirror == nil {
		return res, nil
	}
	if !p.reachable(ctx) {
		slog.DebugContext(ctx, "Remote unreachable, skipping outbox replay")
		return res, nil
	}

	p.batchMu.Lock()
	defer p.batchMu.Unlock()

	items, err := p.store.DequeueSyncBatch(ctx, p.now(), int64(size))
	if err != nil {
		return res, fmt.Errorf("dequeue sync batch: %w", err)
	}
	if len(items) == 0 {
		return res, nil
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		claimed, err := p.store.MarkSyncProcessing(ctx, item.ID)
		if err != nil {
			return res, fmt.Errorf("claim sync item %d: %w", item.ID, err)
		}
		if !claimed {
			continue
		}
		res.Processed++

		if err := p.mirrorItem(ctx, item); err != nil {
			res.Failed++
			p.handleFailure(ctx, item, err)
			return res, nil
		}
		res.Succeeded++
		p.handleSuccess(ctx, item)
	}
	return res, nil
}

// mirrorItem sends one queued operation. Failures wrap core.ErrRemoteSync.
func (p *SyncProcessor) mirrorItem(ctx context.Context, item storage.SyncQueueItem) error {
	op := item.Operation()
	if err := p.mirror.Mirror(ctx, op); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrRemoteSync, op, err)
	}
	return nil
}

func (p *SyncProcessor) handleSuccess(ctx context.Context, item storage.SyncQueueItem) {
	if err := p.store.MarkSyncComplete(ctx, item.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync complete",
			"queue_id", item.ID, "error", err)
		return
	}
	slog.DebugContext(ctx, "Mutation mirrored",
		log.NewFields().WithSyncOp(item.OpID, item.Entity, item.Action, item.EntityKey).ToSlice()...)
}

// handleFailure records a failed attempt. The error is logged, never
// returned: the local write already succeeded.
func (p *SyncProcessor) handleFailure(ctx context.Context, item storage.SyncQueueItem, mirrorErr error) {
	attempt := item.Attempts + 1
	fields := log.NewFields().
		WithSyncOp(item.OpID, item.Entity, item.Action, item.EntityKey).
		WithQueueItem(item.ID, attempt).
		WithError(mirrorErr, log.ErrorTypeRemote)

	if attempt >= int64(p.config.MaxRetries) {
		if err := p.store.MarkSyncFailed(ctx, item.ID, mirrorErr.Error()); err != nil {
			slog.ErrorContext(ctx, "Failed to mark sync as failed", "queue_id", item.ID, "error", err)
		}
		slog.ErrorContext(ctx, "Mirror failed permanently after max retries", fields.ToSlice()...)
		return
	}

	next := p.now().Add(p.backoff(attempt))
	if err := p.store.IncrementSyncAttempt(ctx, item.ID, mirrorErr.Error(), next); err != nil {
		slog.ErrorContext(ctx, "Failed to increment sync attempt", "queue_id", item.ID, "error", err)
	}
	slog.WarnContext(ctx, "Mirror failed, will retry", append(fields.ToSlice(), "next_attempt", next)...)
}

// backoff doubles from PollInterval per attempt, capped at MaxBackoff.
func (p *SyncProcessor) backoff(attempt int64) time.Duration {
	d := p.config.PollInterval
	if d <= 0 {
		d = time.Second
	}
	for i := int64(1); i < attempt; i++ {
		d *= 2
		if p.config.MaxBackoff > 0 && d >= p.config.MaxBackoff {
			return p.config.MaxBackoff
		}
	}
	if p.config.MaxBackoff > 0 && d > p.config.MaxBackoff {
		return p.config.MaxBackoff
	}
	return d
}

func (p *SyncProcessor) cleanupCompleted(ctx context.Context) {
	cutoff := p.now().Add(-p.config.CleanupAge)
	n, err := p.store.CleanupCompletedSyncs(ctx, cutoff)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to cleanup completed syncs", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Cleaned up completed syncs", "count", n)
	}
}

func (p *SyncProcessor) Stats(ctx context.Context) (storage.SyncQueueStats, error) {
	return p.store.GetSyncQueueStats(ctx)
}

// RetryFailed puts every parked item back in the queue.
func (p *SyncProcessor) RetryFailed(ctx context.Context) (int64, error) {
	return p.store.RetryFailedSyncs(ctx)
}
