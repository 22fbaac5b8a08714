package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finwallet/internal/core"
)

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.categories.Create(ctx, "Food")
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, "Food")
	require.ErrorIs(t, err, core.ErrDuplicateName)

	missing, err := f.categories.GetByName(ctx, "Rent")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, f.categories.Delete(ctx, "Food"))
	all, err := f.categories.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestCategoryRenameCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.categories.Create(ctx, "Food")
	require.NoError(t, err)

	_, err = f.wallets.Create(ctx, core.Wallet{Name: "Cash", Currency: "VND", VisibleCategory: "Food"})
	require.NoError(t, err)
	id := f.mustTx(t, core.Expense, 10, "Cash", "Food")
	_, err = f.subscriptions.Create(ctx, core.Subscription{
		Name: "Meal box", Amount: decimal.NewFromInt(30), BillingDate: day(2024, 5, 1),
		Repeat: "monthly", Category: "Food",
	})
	require.NoError(t, err)

	require.NoError(t, f.categories.Rename(ctx, "Food", "Groceries"))

	txs, err := f.ledger.GetByCategory(ctx, "Groceries")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, id, txs[0].ID)

	old, err := f.ledger.GetByCategory(ctx, "Food")
	require.NoError(t, err)
	require.Empty(t, old)

	sub, err := f.subscriptions.GetByName(ctx, "Meal box")
	require.NoError(t, err)
	require.Equal(t, "Groceries", sub.Category)

	w, err := f.wallets.GetByName(ctx, "Cash")
	require.NoError(t, err)
	require.Equal(t, "Groceries", w.VisibleCategory)
}

func TestCategoryRenameErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.categories.Create(ctx, "Food")
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, "Rent")
	require.NoError(t, err)

	require.ErrorIs(t, f.categories.Rename(ctx, "Food", "Rent"), core.ErrDuplicateName)
	require.ErrorIs(t, f.categories.Rename(ctx, "Travel", "Trips"), core.ErrNotFound)
	require.NoError(t, f.categories.Rename(ctx, "Food", "Food"))
}

func TestCategoryDeleteGuarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.categories.Create(ctx, "Food")
	require.NoError(t, err)
	f.mustWallet(t, "Cash", 0)
	id := f.mustTx(t, core.Expense, 10, "Cash", "Food")

	require.ErrorIs(t, f.categories.Delete(ctx, "Food"), core.ErrConflict)

	require.NoError(t, f.ledger.Delete(ctx, id))
	_, err = f.subscriptions.Create(ctx, core.Subscription{
		Name: "Meal box", Amount: decimal.NewFromInt(30), BillingDate: day(2024, 5, 1), Category: "Food",
	})
	require.NoError(t, err)
	require.ErrorIs(t, f.categories.Delete(ctx, "Food"), core.ErrConflict)

	require.NoError(t, f.subscriptions.Delete(ctx, "Meal box"))
	require.NoError(t, f.categories.Delete(ctx, "Food"))
}
