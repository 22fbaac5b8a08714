package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finwallet/internal/core"
	"finwallet/internal/storage"
)

// BalanceService derives wallet balances from the ledger on every call.
// Nothing is cached, so a balance can never drift from its transactions.
// Currencies are summed nominally; there is no conversion.
type BalanceService struct {
	repo Repository
}

func NewBalanceService(repo Repository) *BalanceService {
	return &BalanceService{repo: repo}
}

func balanceOf(ctx context.Context, st storage.Store, w core.Wallet) (decimal.Decimal, error) {
	income, err := st.SumTransactions(ctx, w.Name, core.Income)
	if err != nil {
		return decimal.Zero, err
	}
	expense, err := st.SumTransactions(ctx, w.Name, core.Expense)
	if err != nil {
		return decimal.Zero, err
	}
	return w.InitAmount.Add(income).Sub(expense), nil
}

// GetBalance is init_amount + Σincome − Σexpense for the wallet.
func (s *BalanceService) GetBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.repo.InTx(ctx, func(st storage.Store) error {
		w, err := st.GetWallet(ctx, wallet)
		if err != nil {
			return err
		}
		balance, err = balanceOf(ctx, st, w)
		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetTotalBalance sums every wallet's balance; zero when there are none.
func (s *BalanceService) GetTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Balance)
	}
	return total, nil
}

// Balances returns every wallet with its balance, ordered by wallet name.
func (s *BalanceService) Balances(ctx context.Context) ([]core.WalletBalance, error) {
	var out []core.WalletBalance
	err := s.repo.InTx(ctx, func(st storage.Store) error {
		wallets, err := st.ListWallets(ctx)
		if err != nil {
			return err
		}
		out = make([]core.WalletBalance, 0, len(wallets))
		for _, w := range wallets {
			b, err := balanceOf(ctx, st, w)
			if err != nil {
				return err
			}
			out = append(out, core.WalletBalance{Wallet: w, Balance: b})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get balances: %w", err)
	}
	return out, nil
}
