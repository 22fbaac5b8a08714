package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

// Store is every statement the engine runs against the local database.
type Store interface {
	GetWallet(ctx context.Context, name string) (core.Wallet, error)
	ListWallets(ctx context.Context) ([]core.Wallet, error)
	CreateWallet(ctx context.Context, w core.Wallet) error
	UpdateWallet(ctx context.Context, oldName string, w core.Wallet) error
	DeleteWallet(ctx context.Context, name string) (int64, error)
	ReassignVisibleCategory(ctx context.Context, oldName, newName string) (int64, error)

	GetCategory(ctx context.Context, name string) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) error
	RenameCategory(ctx context.Context, oldName, newName string) error
	DeleteCategory(ctx context.Context, name string) (int64, error)

	CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) (int64, error)
	CountTransactions(ctx context.Context, f TransactionFilter) (int64, error)
	ReassignWallet(ctx context.Context, oldName, newName string) (int64, error)
	ReassignCategory(ctx context.Context, oldName, newName string) (int64, error)
	SumTransactions(ctx context.Context, wallet string, typ core.TransactionType) (decimal.Decimal, error)

	GetSubscription(ctx context.Context, name string) (core.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	CreateSubscription(ctx context.Context, s core.Subscription) error
	UpdateSubscription(ctx context.Context, oldName string, s core.Subscription) error
	DeleteSubscription(ctx context.Context, name string) (int64, error)
	CountSubscriptionsByCategory(ctx context.Context, category string) (int64, error)
	ReassignSubscriptionCategory(ctx context.Context, oldName, newName string) (int64, error)

	EnqueueSync(ctx context.Context, op core.SyncOperation) (int64, error)
	GetSyncItem(ctx context.Context, id int64) (SyncQueueItem, error)
	DequeueSyncBatch(ctx context.Context, now time.Time, limit int64) ([]SyncQueueItem, error)
	MarkSyncProcessing(ctx context.Context, id int64) (bool, error)
	MarkSyncComplete(ctx context.Context, id int64) error
	MarkSyncFailed(ctx context.Context, id int64, lastError string) error
	IncrementSyncAttempt(ctx context.Context, id int64, lastError string, next time.Time) error
	ResetStaleProcessing(ctx context.Context) error
	CleanupCompletedSyncs(ctx context.Context, before time.Time) (int64, error)
	GetSyncQueueStats(ctx context.Context) (SyncQueueStats, error)
	RetryFailedSyncs(ctx context.Context) (int64, error)
}

var _ Store = (*Queries)(nil)

// TransactionFilter narrows ListTransactions and CountTransactions. A nil
// field matches everything; a set field matches exactly, so an empty
// Category selects uncategorised entries.
type TransactionFilter struct {
	Wallet   *string
	Category *string
	Limit    int
}

func ByWallet(name string) TransactionFilter {
	return TransactionFilter{Wallet: &name}
}

func ByCategory(name string) TransactionFilter {
	return TransactionFilter{Category: &name}
}
