package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finwallet/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finwallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestWalletRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	w := core.Wallet{Name: "Cash", InitAmount: decimal.RequireFromString("100000.50"), Currency: "VND"}
	require.NoError(t, repo.CreateWallet(ctx, w))

	got, err := repo.GetWallet(ctx, "Cash")
	require.NoError(t, err)
	require.Equal(t, "Cash", got.Name)
	require.True(t, got.InitAmount.Equal(w.InitAmount))

	err = repo.CreateWallet(ctx, w)
	require.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = repo.GetWallet(ctx, "Bank")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestListWalletsOrderedByName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, name := range []string{"Savings", "Bank", "Cash"} {
		require.NoError(t, repo.CreateWallet(ctx, core.Wallet{Name: name, Currency: "EUR"}))
	}

	wallets, err := repo.ListWallets(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 3)
	require.Equal(t, []string{"Bank", "Cash", "Savings"},
		[]string{wallets[0].Name, wallets[1].Name, wallets[2].Name})
}

func TestTransactionsOrderedByDateDesc(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, days := range []int{3, 1, 2} {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			Type:     core.Expense,
			Amount:   decimal.NewFromInt(int64(10 * (i + 1))),
			Date:     base.AddDate(0, 0, days),
			Wallet:   "Cash",
			Category: "Food",
			Repeat:   core.RepeatNone,
		})
		require.NoError(t, err)
	}

	txs, err := repo.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for i := 1; i < len(txs); i++ {
		require.False(t, txs[i].Date.After(txs[i-1].Date), "not ordered by date desc")
	}
	require.True(t, txs[0].Date.Equal(base.AddDate(0, 0, 3)))

	n, err := repo.CountTransactions(ctx, ByWallet("Cash"))
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestSumTransactionsEmptyIsZero(t *testing.T) {
	repo := newTestRepo(t)

	sum, err := repo.SumTransactions(context.Background(), "Nowhere", core.Income)
	require.NoError(t, err)
	require.True(t, sum.IsZero())
}

func TestSumTransactionsExact(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, a := range []string{"0.1", "0.2"} {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			Type: core.Income, Amount: decimal.RequireFromString(a),
			Date: time.Now(), Wallet: "Cash", Repeat: core.RepeatNone,
		})
		require.NoError(t, err)
	}

	sum, err := repo.SumTransactions(ctx, "Cash", core.Income)
	require.NoError(t, err)
	require.Equal(t, "0.3", sum.String())
}

func TestUpdateMissingTransaction(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateTransaction(context.Background(), core.Transaction{
		ID: 42, Type: core.Income, Amount: decimal.NewFromInt(1), Date: time.Now(), Wallet: "Cash",
	})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateWallet(ctx, core.Wallet{Name: "Cash", Currency: "VND"}))

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(s Store) error {
		if err := s.UpdateWallet(ctx, "Cash", core.Wallet{Name: "Wallet", Currency: "VND"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetWallet(ctx, "Cash")
	require.NoError(t, err, "rename should have been rolled back")
}

func TestSyncQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	op, err := core.NewSyncOperation(core.EntityWallet, core.ActionCreate, "Cash", core.Wallet{Name: "Cash"})
	require.NoError(t, err)
	id, err := repo.EnqueueSync(ctx, *op)
	require.NoError(t, err)

	items, err := repo.DequeueSyncBatch(ctx, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, op.ID, items[0].OpID)
	require.Equal(t, core.EntityWallet, items[0].Operation().Entity)
	require.JSONEq(t, string(op.Payload), string(items[0].Operation().Payload))

	claimed, err := repo.MarkSyncProcessing(ctx, id)
	require.NoError(t, err)
	require.True(t, claimed)
	claimed, err = repo.MarkSyncProcessing(ctx, id)
	require.NoError(t, err)
	require.False(t, claimed, "item already claimed")
	require.NoError(t, repo.IncrementSyncAttempt(ctx, id, "offline", time.Now().Add(time.Hour)))

	items, err = repo.DequeueSyncBatch(ctx, time.Now().Add(time.Second), 10)
	require.NoError(t, err)
	require.Empty(t, items, "retry not due yet")

	require.NoError(t, repo.MarkSyncFailed(ctx, id, "gave up"))
	stats, err := repo.GetSyncQueueStats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Failed)

	n, err := repo.RetryFailedSyncs(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, repo.MarkSyncComplete(ctx, id))
	removed, err := repo.CleanupCompletedSyncs(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}
