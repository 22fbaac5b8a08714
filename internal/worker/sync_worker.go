package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finwallet/internal/amqp"
	"finwallet/internal/cache"
	"finwallet/internal/log"
	"finwallet/internal/remote"
)

// headerWriter is implemented by sinks that need their layout prepared.
type headerWriter interface {
	EnsureHeaders(ctx context.Context) error
}

// SyncWorker applies mutations consumed from the broker to a sink such as
// the Google Sheets copy.
type SyncWorker struct {
	sink remote.Mirror
	// op ids already applied; redeliveries after a lost ack are skipped
	applied *cache.LRUCache[struct{}]
}

func NewSyncWorker(sink remote.Mirror) *SyncWorker {
	return &SyncWorker{
		sink:    sink,
		applied: cache.NewLRUCache[struct{}](10000, 24*time.Hour),
	}
}

// Applied exposes the dedup cache so a janitor can sweep it.
func (w *SyncWorker) Applied() *cache.LRUCache[struct{}] { return w.applied }

// StartupCheck prepares the sink before the first message.
func (w *SyncWorker) StartupCheck(ctx context.Context) error {
	hw, ok := w.sink.(headerWriter)
	if !ok {
		return nil
	}
	if err := hw.EnsureHeaders(ctx); err != nil {
		return fmt.Errorf("prepare sink: %w", err)
	}
	slog.InfoContext(ctx, "Sink prepared")
	return nil
}

// HandleMutation applies one consumed message. A returned error makes the
// consumer requeue it.
func (w *SyncWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	op := msg.Operation()
	fields := log.NewFields().
		WithComponent(log.ComponentWorker).
		WithSyncOp(op.ID, string(op.Entity), string(op.Action), op.Key)

	if op.ID != "" {
		if _, done := w.applied.Get(op.ID); done {
			slog.DebugContext(ctx, "Skipping already applied mutation", fields.ToSlice()...)
			return nil
		}
	}

	if err := w.sink.Mirror(ctx, op); err != nil {
		return fmt.Errorf("apply %s: %w", op, err)
	}
	if op.ID != "" {
		w.applied.Set(op.ID, struct{}{})
	}

	slog.InfoContext(ctx, "Mutation applied to sink", fields.ToSlice()...)
	return nil
}
