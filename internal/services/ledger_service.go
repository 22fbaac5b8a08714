package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"finwallet/internal/core"
	"finwallet/internal/log"
	"finwallet/internal/storage"
)

// LedgerService owns transaction records, the source every balance is
// derived from.
type LedgerService struct {
	repo Repository
	sync *SyncCoordinator
	now  func() time.Time
}

func NewLedgerService(repo Repository, sync *SyncCoordinator) *LedgerService {
	return &LedgerService{repo: repo, sync: sync, now: time.Now}
}

func walletFilter(name string) storage.TransactionFilter {
	return storage.ByWallet(name)
}

func categoryFilter(name string) storage.TransactionFilter {
	return storage.ByCategory(name)
}

func txKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// prepare fills defaults and checks the references. The wallet must exist;
// the category must exist when one is given.
func (s *LedgerService) prepare(ctx context.Context, st storage.Store, tx core.Transaction) (core.Transaction, error) {
	tx.Wallet = strings.TrimSpace(tx.Wallet)
	tx.Category = strings.TrimSpace(tx.Category)
	tx.Currency = core.NormalizeCurrency(tx.Currency)
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	if strings.TrimSpace(tx.Repeat) == "" {
		tx.Repeat = core.RepeatNone
	}
	if err := tx.Validate(); err != nil {
		return tx, err
	}

	w, err := st.GetWallet(ctx, tx.Wallet)
	if err != nil {
		return tx, fmt.Errorf("wallet %q: %w", tx.Wallet, err)
	}
	if tx.Currency == "" {
		tx.Currency = w.Currency
	}
	if tx.Category != "" {
		if _, err := st.GetCategory(ctx, tx.Category); err != nil {
			return tx, fmt.Errorf("category %q: %w", tx.Category, err)
		}
	}
	return tx, nil
}

// Create records a transaction and returns its id.
func (s *LedgerService) Create(ctx context.Context, tx core.Transaction) (int64, error) {
	_, err := s.sync.Do(ctx, func(ctx context.Context, st *SyncTx) error {
		var err error
		if tx, err = s.prepare(ctx, st, tx); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if tx.ID, err = st.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		return st.Record(core.EntityTransaction, core.ActionCreate, txKey(tx.ID), tx)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction created",
		log.NewFields().WithTransaction(tx.ID, string(tx.Type), tx.Amount.String(), tx.Wallet).ToSlice()...)
	return tx.ID, nil
}

// GetAll lists every transaction, most recent first.
func (s *LedgerService) GetAll(ctx context.Context) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, storage.TransactionFilter{})
}

// GetByID returns nil when the id is unknown.
func (s *LedgerService) GetByID(ctx context.Context, id int64) (*core.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Update loads the transaction, merges patch over it and writes every column
// back.
func (s *LedgerService) Update(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	_, err := s.sync.Do(ctx, func(ctx context.Context, st *SyncTx) error {
		existing, err := st.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if updated, err = s.prepare(ctx, st, patch.Apply(existing)); err != nil {
			return fmt.Errorf("update transaction %d: %w", id, err)
		}
		if err := st.UpdateTransaction(ctx, updated); err != nil {
			return err
		}
		return st.Record(core.EntityTransaction, core.ActionUpdate, txKey(id), updated)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated", log.FieldTransactionID, id)
	return updated, nil
}

// Delete removes a transaction. Deleting an unknown id is not an error.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	var n int64
	_, err := s.sync.Do(ctx, func(ctx context.Context, st *SyncTx) error {
		var err error
		if n, err = st.DeleteTransaction(ctx, id); err != nil || n == 0 {
			return err
		}
		return st.Record(core.EntityTransaction, core.ActionDelete, txKey(id), nil)
	})
	if err != nil {
		return err
	}

	if n > 0 {
		slog.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)
	}
	return nil
}

// GetByWallet lists a wallet's transactions, most recent first.
func (s *LedgerService) GetByWallet(ctx context.Context, wallet string) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, walletFilter(wallet))
}

// GetByCategory lists a category's transactions, most recent first.
func (s *LedgerService) GetByCategory(ctx context.Context, category string) ([]core.Transaction, error) {
	return s.repo.ListTransactions(ctx, categoryFilter(category))
}

// NextBillDate is core.NextBillDate, exposed next to the ledger operations.
func (s *LedgerService) NextBillDate(date time.Time, repeat string) (time.Time, bool) {
	return core.NextBillDate(date, repeat)
}

// Materialize books the next occurrence of a repeating transaction. The copy
// dated next carries the repeat tag forward and the original stops repeating,
// so each series always has exactly one live template.
func (s *LedgerService) Materialize(ctx context.Context, id int64, next time.Time) (int64, error) {
	var copyID int64
	_, err := s.sync.Do(ctx, func(ctx context.Context, st *SyncTx) error {
		orig, err := st.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if !core.IsRecurring(orig.Repeat) {
			return fmt.Errorf("transaction %d does not repeat: %w", id, core.ErrConflict)
		}

		occurrence := orig
		occurrence.ID = 0
		occurrence.Date = next
		if copyID, err = st.CreateTransaction(ctx, occurrence); err != nil {
			return err
		}
		occurrence.ID = copyID

		orig.Repeat = core.RepeatNone
		if err := st.UpdateTransaction(ctx, orig); err != nil {
			return err
		}
		if err := st.Record(core.EntityTransaction, core.ActionUpdate, txKey(orig.ID), orig); err != nil {
			return err
		}
		return st.Record(core.EntityTransaction, core.ActionCreate, txKey(copyID), occurrence)
	})
	if err != nil {
		return 0, err
	}
	return copyID, nil
}
