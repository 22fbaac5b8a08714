package services

import (
	"context"
	"fmt"
	"log/slog"

	"finwallet/internal/core"
	"finwallet/internal/log"
	"finwallet/internal/storage"
)

// SyncState is how far a mutation got towards the remote.
type SyncState string

const (
	// SyncLocalOnly: no remote is configured.
	SyncLocalOnly SyncState = "local_only"
	// SyncMirrored: the remote applied the mutation.
	SyncMirrored SyncState = "mirrored"
	// SyncDeferred: the remote was unreachable; the outbox will replay it.
	SyncDeferred SyncState = "deferred"
	// SyncMirrorFailed: the remote rejected or failed the mutation. The
	// local write stands and the outbox retries it.
	SyncMirrorFailed SyncState = "mirror_failed"
)

// SyncTx is the view of the store a mutation runs against. Record queues a
// remote mirror of what the mutation did; it is committed together with the
// local write.
type SyncTx struct {
	storage.Store
	ops []core.SyncOperation
}

func (t *SyncTx) Record(entity core.SyncEntity, action core.SyncAction, key string, payload any) error {
	op, err := core.NewSyncOperation(entity, action, key, payload)
	if err != nil {
		return err
	}
	t.ops = append(t.ops, *op)
	return nil
}

// Mutation is one local write.
type Mutation func(ctx context.Context, tx *SyncTx) error

// SyncCoordinator wraps local writes with a best-effort remote mirror. The
// local write and its outbox rows commit atomically; a failed local write is
// returned to the caller, a failed mirror never is.
type SyncCoordinator struct {
	repo      Repository
	processor *SyncProcessor
}

// NewSyncCoordinator builds a coordinator. A nil processor, or one without a
// mirror, makes every write local only.
func NewSyncCoordinator(repo Repository, processor *SyncProcessor) *SyncCoordinator {
	return &SyncCoordinator{repo: repo, processor: processor}
}

func (c *SyncCoordinator) mirroring() bool {
	return c.processor != nil && c.processor.mirror != nil
}

// Do runs mutate in a transaction, then, if the remote is reachable, replays
// a bounded slice of the outbox so the new rows are mirrored in order behind
// anything older. Rows still queued after that report SyncDeferred.
func (c *SyncCoordinator) Do(ctx context.Context, mutate Mutation) (SyncState, error) {
	var (
		ops      []core.SyncOperation
		queueIDs []int64
	)
	err := c.repo.InTx(ctx, func(s storage.Store) error {
		tx := &SyncTx{Store: s}
		if err := mutate(ctx, tx); err != nil {
			return err
		}
		ops = tx.ops
		if !c.mirroring() {
			return nil
		}
		for _, op := range ops {
			id, err := s.EnqueueSync(ctx, op)
			if err != nil {
				return fmt.Errorf("enqueue %s: %w", op, err)
			}
			queueIDs = append(queueIDs, id)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if !c.mirroring() || len(ops) == 0 {
		return SyncLocalOnly, nil
	}

	if !c.processor.reachable(ctx) {
		slog.DebugContext(ctx, "Remote unreachable, mirror deferred", "ops", len(ops))
		return SyncDeferred, nil
	}

	// A long backlog is left to the processor loop; the caller only waits
	// for its own operations and one batch ahead of them.
	if _, err := c.processor.ReplayUpTo(ctx, len(ops)+c.processor.config.BatchSize); err != nil {
		slog.WarnContext(ctx, "Outbox replay failed",
			log.NewFields().WithOperation(log.OpReplay).WithError(err, log.ErrorTypeDatabase).ToSlice()...)
	}

	state := SyncMirrored
	for _, id := range queueIDs {
		item, err := c.repo.GetSyncItem(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read outbox item", "queue_id", id, "error", err)
			return SyncMirrorFailed, nil
		}
		switch {
		case item.Status == storage.SyncStatusCompleted:
		case item.Attempts == 0:
			// Still queued behind an older item that failed.
			state = SyncDeferred
		default:
			return SyncMirrorFailed, nil
		}
	}
	return state, nil
}
