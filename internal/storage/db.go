package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finwallet/internal/core"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every query can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sqlx.Tx) *Queries {
	return &Queries{db: tx}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer logQuery(ctx, query, time.Now())
	return q.db.ExecContext(ctx, query, args...)
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	defer logQuery(ctx, query, time.Now())
	return q.db.GetContext(ctx, dest, query, args...)
}

func (q *Queries) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	defer logQuery(ctx, query, time.Now())
	return q.db.SelectContext(ctx, dest, query, args...)
}

func logQuery(ctx context.Context, query string, start time.Time) {
	slog.DebugContext(ctx, "Query executed",
		"query", strings.Join(strings.Fields(query), " "),
		"duration", time.Since(start))
}

// wrapErr maps driver errors onto the core taxonomy. Anything that is not a
// missing row or a uniqueness violation is a storage failure.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateName)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(se.Error(), "UNIQUE constraint failed")
}

// utc normalises timestamps before they are bound. Stored values share one
// format, so lexical order in SQL is chronological order.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
