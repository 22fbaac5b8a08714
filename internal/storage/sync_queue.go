package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finwallet/internal/core"
)

const (
	SyncStatusPending    = "pending"
	SyncStatusProcessing = "processing"
	SyncStatusCompleted  = "completed"
	SyncStatusFailed     = "failed"
)

// SyncQueueItem is one row of the outbox.
type SyncQueueItem struct {
	ID            int64     `db:"id"`
	OpID          string    `db:"op_id"`
	Entity        string    `db:"entity"`
	Action        string    `db:"action"`
	EntityKey     string    `db:"entity_key"`
	Payload       string    `db:"payload"`
	Status        string    `db:"status"`
	Attempts      int64     `db:"attempts"`
	LastError     string    `db:"last_error"`
	NextAttemptAt time.Time `db:"next_attempt_at"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Operation rebuilds the mutation the row was enqueued for.
func (i SyncQueueItem) Operation() core.SyncOperation {
	op := core.SyncOperation{
		ID:        i.OpID,
		Entity:    core.SyncEntity(i.Entity),
		Action:    core.SyncAction(i.Action),
		Key:       i.EntityKey,
		CreatedAt: i.CreatedAt,
	}
	if i.Payload != "" {
		op.Payload = json.RawMessage(i.Payload)
	}
	return op
}

type SyncQueueStats struct {
	Pending    int64 `db:"pending"`
	Processing int64 `db:"processing"`
	Completed  int64 `db:"completed"`
	Failed     int64 `db:"failed"`
}

const syncQueueColumns = `id, op_id, entity, action, entity_key, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at`

func (q *Queries) EnqueueSync(ctx context.Context, op core.SyncOperation) (int64, error) {
	now := utc(time.Now())
	created := now
	if !op.CreatedAt.IsZero() {
		created = utc(op.CreatedAt)
	}
	res, err := q.exec(ctx,
		`INSERT INTO sync_queue (op_id, entity, action, entity_key, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'pending', 0, '', ?, ?, ?)`,
		op.ID, string(op.Entity), string(op.Action), op.Key, string(op.Payload), now, created, now)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("enqueue sync %s", op), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("enqueue sync: last insert id", err)
	}
	return id, nil
}

func (q *Queries) GetSyncItem(ctx context.Context, id int64) (SyncQueueItem, error) {
	var item SyncQueueItem
	if err := q.get(ctx, &item, `SELECT `+syncQueueColumns+` FROM sync_queue WHERE id = ?`, id); err != nil {
		return SyncQueueItem{}, wrapErr(fmt.Sprintf("get sync item %d", id), err)
	}
	return item, nil
}

// DequeueSyncBatch returns pending items that are due, oldest first. Order
// matters: a rename must reach the remote before later edits to the new name.
func (q *Queries) DequeueSyncBatch(ctx context.Context, now time.Time, limit int64) ([]SyncQueueItem, error) {
	items := []SyncQueueItem{}
	err := q.selectAll(ctx, &items,
		`SELECT `+syncQueueColumns+` FROM sync_queue
		 WHERE status = 'pending' AND next_attempt_at <= ?
		 ORDER BY id ASC LIMIT ?`, utc(now), limit)
	if err != nil {
		return nil, wrapErr("dequeue sync batch", err)
	}
	return items, nil
}

func (q *Queries) setSyncStatus(ctx context.Context, op string, id int64, status string) error {
	_, err := q.exec(ctx,
		`UPDATE sync_queue SET status = ?, updated_at = ? WHERE id = ?`, status, utc(time.Now()), id)
	return wrapErr(fmt.Sprintf("%s %d", op, id), err)
}

// MarkSyncProcessing claims a pending item. It reports false when another
// processor got there first.
func (q *Queries) MarkSyncProcessing(ctx context.Context, id int64) (bool, error) {
	res, err := q.exec(ctx,
		`UPDATE sync_queue SET status = 'processing', updated_at = ? WHERE id = ? AND status = 'pending'`,
		utc(time.Now()), id)
	if err != nil {
		return false, wrapErr(fmt.Sprintf("mark sync processing %d", id), err)
	}
	return rowsAffected(res) == 1, nil
}

func (q *Queries) MarkSyncComplete(ctx context.Context, id int64) error {
	return q.setSyncStatus(ctx, "mark sync complete", id, SyncStatusCompleted)
}

func (q *Queries) MarkSyncFailed(ctx context.Context, id int64, lastError string) error {
	_, err := q.exec(ctx,
		`UPDATE sync_queue SET status = 'failed', attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		lastError, utc(time.Now()), id)
	return wrapErr(fmt.Sprintf("mark sync failed %d", id), err)
}

// IncrementSyncAttempt puts the item back to pending, due again at next.
func (q *Queries) IncrementSyncAttempt(ctx context.Context, id int64, lastError string, next time.Time) error {
	_, err := q.exec(ctx,
		`UPDATE sync_queue
		 SET status = 'pending', attempts = attempts + 1, last_error = ?, next_attempt_at = ?, updated_at = ?
		 WHERE id = ?`,
		lastError, utc(next), utc(time.Now()), id)
	return wrapErr(fmt.Sprintf("increment sync attempt %d", id), err)
}

// ResetStaleProcessing returns items left in processing by a crashed run to
// the pending state.
func (q *Queries) ResetStaleProcessing(ctx context.Context) error {
	_, err := q.exec(ctx,
		`UPDATE sync_queue SET status = 'pending', updated_at = ? WHERE status = 'processing'`, utc(time.Now()))
	return wrapErr("reset stale processing", err)
}

func (q *Queries) CleanupCompletedSyncs(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.exec(ctx,
		`DELETE FROM sync_queue WHERE status = 'completed' AND updated_at < ?`, utc(before))
	if err != nil {
		return 0, wrapErr("cleanup completed syncs", err)
	}
	return rowsAffected(res), nil
}

func (q *Queries) GetSyncQueueStats(ctx context.Context) (SyncQueueStats, error) {
	var stats SyncQueueStats
	err := q.get(ctx, &stats,
		`SELECT
		   COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		   COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0) AS processing,
		   COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		   COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed
		 FROM sync_queue`)
	if err != nil {
		return SyncQueueStats{}, wrapErr("get sync queue stats", err)
	}
	return stats, nil
}

func (q *Queries) RetryFailedSyncs(ctx context.Context) (int64, error) {
	now := utc(time.Now())
	res, err := q.exec(ctx,
		`UPDATE sync_queue SET status = 'pending', attempts = 0, next_attempt_at = ?, updated_at = ? WHERE status = 'failed'`,
		now, now)
	if err != nil {
		return 0, wrapErr("retry failed syncs", err)
	}
	return rowsAffected(res), nil
}
