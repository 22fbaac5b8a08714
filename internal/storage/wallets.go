package storage

import (
	"context"
	"fmt"

	"finwallet/internal/core"
)

const walletColumns = `name, init_amount, currency, visible_category`

func (q *Queries) GetWallet(ctx context.Context, name string) (core.Wallet, error) {
	var w core.Wallet
	err := q.get(ctx, &w, `SELECT `+walletColumns+` FROM wallets WHERE name = ?`, name)
	if err != nil {
		return core.Wallet{}, wrapErr(fmt.Sprintf("get wallet %q", name), err)
	}
	return w, nil
}

func (q *Queries) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	wallets := []core.Wallet{}
	if err := q.selectAll(ctx, &wallets, `SELECT `+walletColumns+` FROM wallets ORDER BY name ASC`); err != nil {
		return nil, wrapErr("list wallets", err)
	}
	return wallets, nil
}

func (q *Queries) CreateWallet(ctx context.Context, w core.Wallet) error {
	_, err := q.exec(ctx,
		`INSERT INTO wallets (`+walletColumns+`) VALUES (?, ?, ?, ?)`,
		w.Name, w.InitAmount.String(), w.Currency, w.VisibleCategory)
	return wrapErr(fmt.Sprintf("create wallet %q", w.Name), err)
}

// UpdateWallet rewrites the row stored under oldName, including its name.
func (q *Queries) UpdateWallet(ctx context.Context, oldName string, w core.Wallet) error {
	res, err := q.exec(ctx,
		`UPDATE wallets SET name = ?, init_amount = ?, currency = ?, visible_category = ? WHERE name = ?`,
		w.Name, w.InitAmount.String(), w.Currency, w.VisibleCategory, oldName)
	if err != nil {
		return wrapErr(fmt.Sprintf("update wallet %q", oldName), err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("update wallet %q: %w", oldName, core.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteWallet(ctx context.Context, name string) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM wallets WHERE name = ?`, name)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("delete wallet %q", name), err)
	}
	return rowsAffected(res), nil
}

// ReassignVisibleCategory follows a category rename; an empty newName clears
// the filter.
func (q *Queries) ReassignVisibleCategory(ctx context.Context, oldName, newName string) (int64, error) {
	res, err := q.exec(ctx, `UPDATE wallets SET visible_category = ? WHERE visible_category = ?`, newName, oldName)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("reassign visible category %q", oldName), err)
	}
	return rowsAffected(res), nil
}
