package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finwallet/internal/core"
)

func TestProcessDueTransactionsCatchesUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mustWallet(t, "Cash", 0)
	id, err := f.ledger.Create(ctx, core.Transaction{
		Type: core.Expense, Amount: decimal.NewFromInt(100), Wallet: "Cash",
		Date: day(2024, 1, 31), Repeat: "Monthly", Note: "rent",
	})
	require.NoError(t, err)

	p := NewRecurringProcessor(f.repo, f.ledger, f.subscriptions)
	booked, err := p.ProcessDueTransactions(ctx, day(2024, 4, 15))
	require.NoError(t, err)
	require.Equal(t, 2, booked)

	orig, err := f.ledger.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, core.RepeatNone, orig.Repeat)

	txs, err := f.ledger.GetByWallet(ctx, "Cash")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.True(t, txs[0].Date.Equal(day(2024, 3, 29)))
	require.Equal(t, "Monthly", txs[0].Repeat)
	require.Equal(t, "rent", txs[0].Note)
	require.Equal(t, core.RepeatNone, txs[1].Repeat)

	// A second run finds nothing new.
	booked, err = p.ProcessDueTransactions(ctx, day(2024, 4, 15))
	require.NoError(t, err)
	require.Zero(t, booked)

	bal, err := f.balances.GetBalance(ctx, "Cash")
	require.NoError(t, err)
	requireDecimal(t, -300, bal)
}

func TestProcessDueTransactionsNotInitialized(t *testing.T) {
	p := NewRecurringProcessor(nil, nil, nil)
	_, err := p.ProcessDueTransactions(context.Background(), day(2024, 1, 1))
	require.Error(t, err)
}

func TestProcessDueAdvancesSubscriptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.subscriptions.Create(ctx, core.Subscription{
		Name: "Netflix", Amount: decimal.NewFromInt(10), Currency: "USD",
		BillingDate: day(2024, 1, 10), Repeat: "Monthly",
	})
	require.NoError(t, err)

	p := NewRecurringProcessor(f.repo, f.ledger, f.subscriptions)
	booked, advanced, err := p.ProcessDue(ctx, day(2024, 3, 20))
	require.NoError(t, err)
	require.Zero(t, booked)
	require.Equal(t, 1, advanced)

	sub, err := f.subscriptions.GetByName(ctx, "Netflix")
	require.NoError(t, err)
	require.True(t, sub.BillingDate.Equal(day(2024, 4, 10)))
}
