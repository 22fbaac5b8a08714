package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finwallet/internal/core"
)

const transactionColumns = `id, type, amount, currency, date, wallet, category, repeat, note, picture`

func (f TransactionFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Wallet != nil {
		clauses = append(clauses, "wallet = ?")
		args = append(args, *f.Wallet)
	}
	if f.Category != nil {
		clauses = append(clauses, "category = ?")
		args = append(args, *f.Category)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q *Queries) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	res, err := q.exec(ctx,
		`INSERT INTO transactions (type, amount, currency, date, wallet, category, repeat, note, picture)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tx.Type), tx.Amount.String(), tx.Currency, utc(tx.Date),
		tx.Wallet, tx.Category, tx.Repeat, tx.Note, tx.Picture)
	if err != nil {
		return 0, wrapErr("create transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("create transaction: last insert id", err)
	}
	return id, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var tx core.Transaction
	err := q.get(ctx, &tx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, wrapErr(fmt.Sprintf("get transaction %d", id), err)
	}
	return tx, nil
}

// ListTransactions returns the most recent entries first. Entries sharing a
// timestamp are ordered by id so the order is stable.
func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	where, args := f.where()
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	txs := []core.Transaction{}
	if err := q.selectAll(ctx, &txs, query, args...); err != nil {
		return nil, wrapErr("list transactions", err)
	}
	return txs, nil
}

func (q *Queries) ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs := []core.Transaction{}
	err := q.selectAll(ctx, &txs,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE repeat <> '' AND lower(repeat) <> 'none'
		 ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, wrapErr("list recurring transactions", err)
	}
	return txs, nil
}

// UpdateTransaction writes back every column of tx.
func (q *Queries) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := q.exec(ctx,
		`UPDATE transactions
		 SET type = ?, amount = ?, currency = ?, date = ?, wallet = ?, category = ?, repeat = ?, note = ?, picture = ?
		 WHERE id = ?`,
		string(tx.Type), tx.Amount.String(), tx.Currency, utc(tx.Date),
		tx.Wallet, tx.Category, tx.Repeat, tx.Note, tx.Picture, tx.ID)
	if err != nil {
		return wrapErr(fmt.Sprintf("update transaction %d", tx.ID), err)
	}
	if rowsAffected(res) == 0 {
		return fmt.Errorf("update transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("delete transaction %d", id), err)
	}
	return rowsAffected(res), nil
}

func (q *Queries) CountTransactions(ctx context.Context, f TransactionFilter) (int64, error) {
	where, args := f.where()
	var n int64
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return 0, wrapErr("count transactions", err)
	}
	return n, nil
}

func (q *Queries) ReassignWallet(ctx context.Context, oldName, newName string) (int64, error) {
	res, err := q.exec(ctx, `UPDATE transactions SET wallet = ? WHERE wallet = ?`, newName, oldName)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("reassign wallet %q", oldName), err)
	}
	return rowsAffected(res), nil
}

func (q *Queries) ReassignCategory(ctx context.Context, oldName, newName string) (int64, error) {
	res, err := q.exec(ctx, `UPDATE transactions SET category = ? WHERE category = ?`, newName, oldName)
	if err != nil {
		return 0, wrapErr(fmt.Sprintf("reassign category %q", oldName), err)
	}
	return rowsAffected(res), nil
}

// SumTransactions totals the amounts of one type for a wallet. Amounts are
// stored as decimal text, so the sum is folded here rather than by SQLite's
// floating point SUM. No matching rows is a zero sum.
func (q *Queries) SumTransactions(ctx context.Context, wallet string, typ core.TransactionType) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := q.selectAll(ctx, &amounts,
		`SELECT amount FROM transactions WHERE wallet = ? AND type = ?`, wallet, string(typ))
	if err != nil {
		return decimal.Zero, wrapErr(fmt.Sprintf("sum %s for wallet %q", typ, wallet), err)
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum, nil
}
