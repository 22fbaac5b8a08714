package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finwallet/internal/core"
)

func TestLedgerCreateChecksReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Create(ctx, core.Transaction{Type: core.Income, Amount: decimal.NewFromInt(1), Wallet: "Ghost"})
	require.ErrorIs(t, err, core.ErrNotFound)

	f.mustWallet(t, "Cash", 0)
	_, err = f.ledger.Create(ctx, core.Transaction{Type: core.Income, Amount: decimal.NewFromInt(1), Wallet: "Cash", Category: "Ghost"})
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.ledger.Create(ctx, core.Transaction{Type: core.Income, Amount: decimal.Zero, Wallet: "Cash"})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestLedgerCreateDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)

	id := f.mustTx(t, core.Income, 5, "Cash", "")
	tx, err := f.ledger.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, core.RepeatNone, tx.Repeat)
	require.Equal(t, "VND", tx.Currency)
	require.False(t, tx.Date.IsZero())
}

func TestLedgerUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)
	id, err := f.ledger.Create(ctx, core.Transaction{
		Type: core.Expense, Amount: decimal.NewFromInt(10), Wallet: "Cash",
		Date: day(2024, 3, 1), Note: "lunch", Repeat: "weekly",
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(12)
	updated, err := f.ledger.Update(ctx, id, core.TransactionPatch{Amount: &amount})
	require.NoError(t, err)
	requireDecimal(t, 12, updated.Amount)

	stored, err := f.ledger.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "lunch", stored.Note)
	require.Equal(t, "weekly", stored.Repeat)
	require.True(t, stored.Date.Equal(day(2024, 3, 1)))
	requireDecimal(t, 12, stored.Amount)

	_, err = f.ledger.Update(ctx, id+100, core.TransactionPatch{Amount: &amount})
	require.ErrorIs(t, err, core.ErrNotFound)

	ghost := "Ghost"
	_, err = f.ledger.Update(ctx, id, core.TransactionPatch{Wallet: &ghost})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedgerDeleteIsUnconditional(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)
	id := f.mustTx(t, core.Income, 5, "Cash", "")

	require.NoError(t, f.ledger.Delete(ctx, id))
	require.NoError(t, f.ledger.Delete(ctx, id))

	tx, err := f.ledger.GetByID(ctx, id)
	require.NoError(t, err)
	require.Nil(t, tx)
}

func TestLedgerGetAllMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)
	for _, d := range []time.Time{day(2024, 1, 2), day(2024, 3, 1), day(2023, 12, 31)} {
		_, err := f.ledger.Create(ctx, core.Transaction{Type: core.Income, Amount: decimal.NewFromInt(1), Wallet: "Cash", Date: d})
		require.NoError(t, err)
	}

	txs, err := f.ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.True(t, txs[0].Date.Equal(day(2024, 3, 1)))
	require.True(t, txs[2].Date.Equal(day(2023, 12, 31)))
}

func TestLedgerNextBillDate(t *testing.T) {
	f := newFixture(t)
	next, ok := f.ledger.NextBillDate(day(2024, 1, 31), "monthly")
	require.True(t, ok)
	require.Equal(t, time.February, next.Month())
	require.Equal(t, 29, next.Day())

	_, ok = f.ledger.NextBillDate(day(2024, 1, 31), "None")
	require.False(t, ok)
}

func TestLedgerFiltersMatchEmptyNamesExactly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)
	_, err := f.categories.Create(ctx, "Food")
	require.NoError(t, err)

	filed := f.mustTx(t, core.Expense, 10, "Cash", "Food")
	loose := f.mustTx(t, core.Expense, 20, "Cash", "")

	uncategorised, err := f.ledger.GetByCategory(ctx, "")
	require.NoError(t, err)
	require.Len(t, uncategorised, 1)
	require.Equal(t, loose, uncategorised[0].ID)

	food, err := f.ledger.GetByCategory(ctx, "Food")
	require.NoError(t, err)
	require.Len(t, food, 1)
	require.Equal(t, filed, food[0].ID)

	none, err := f.ledger.GetByWallet(ctx, "")
	require.NoError(t, err)
	require.Empty(t, none)

	all, err := f.ledger.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestClosedStoreReportsStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)
	require.NoError(t, f.sqlite.Close())

	_, err := f.balances.GetBalance(ctx, "Cash")
	require.ErrorIs(t, err, core.ErrStorage)

	_, err = f.categories.Create(ctx, "Food")
	require.ErrorIs(t, err, core.ErrStorage)
}
