package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finwallet/internal/core"
	"finwallet/internal/log"
)

// WalletService is the wallet registry. Wallet names are unique, renames
// cascade into the ledger and a wallet cannot be deleted while any
// transaction references it.
type WalletService struct {
	repo Repository
	sync *SyncCoordinator
}

func NewWalletService(repo Repository, sync *SyncCoordinator) *WalletService {
	return &WalletService{repo: repo, sync: sync}
}

func normalizeWallet(w core.Wallet) core.Wallet {
	w.Name = strings.TrimSpace(w.Name)
	w.Currency = core.NormalizeCurrency(w.Currency)
	w.VisibleCategory = strings.TrimSpace(w.VisibleCategory)
	return w
}

// Create stores a new wallet and returns its name.
func (s *WalletService) Create(ctx context.Context, w core.Wallet) (string, error) {
	w = normalizeWallet(w)
	if err := w.Validate(); err != nil {
		return "", fmt.Errorf("create wallet: %w", err)
	}

	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		if err := ensureAbsent(tx.GetWallet(ctx, w.Name)); err != nil {
			return fmt.Errorf("create wallet %q: %w", w.Name, err)
		}
		if err := tx.CreateWallet(ctx, w); err != nil {
			return err
		}
		return tx.Record(core.EntityWallet, core.ActionCreate, w.Name, w)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Wallet created",
		log.NewFields().WithWallet(w.Name).WithOperation(log.OpCreate).ToSlice()...)
	return w.Name, nil
}

// Update applies patch to the wallet stored as oldName. When the patch
// renames it, ledger rows are moved to the new name before the wallet row
// itself, all inside one transaction.
func (s *WalletService) Update(ctx context.Context, oldName string, patch core.WalletPatch) (core.Wallet, error) {
	var updated core.Wallet
	var moved int64

	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		existing, err := tx.GetWallet(ctx, oldName)
		if err != nil {
			return err
		}
		updated = normalizeWallet(patch.Apply(existing))
		if err := updated.Validate(); err != nil {
			return fmt.Errorf("update wallet %q: %w", oldName, err)
		}

		if updated.Name != oldName {
			if err := ensureAbsent(tx.GetWallet(ctx, updated.Name)); err != nil {
				return fmt.Errorf("rename wallet %q to %q: %w", oldName, updated.Name, err)
			}
			if moved, err = tx.ReassignWallet(ctx, oldName, updated.Name); err != nil {
				return err
			}
		}
		if err := tx.UpdateWallet(ctx, oldName, updated); err != nil {
			return err
		}
		return tx.Record(core.EntityWallet, core.ActionUpdate, oldName, updated)
	})
	if err != nil {
		return core.Wallet{}, err
	}

	if updated.Name != oldName {
		slog.InfoContext(ctx, "Wallet renamed",
			"from", oldName, "to", updated.Name, "transactions_moved", moved)
	} else {
		slog.InfoContext(ctx, "Wallet updated", log.FieldWallet, oldName)
	}
	return updated, nil
}

// Delete removes a wallet no transaction references.
func (s *WalletService) Delete(ctx context.Context, name string) error {
	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		if _, err := tx.GetWallet(ctx, name); err != nil {
			return err
		}
		n, err := tx.CountTransactions(ctx, walletFilter(name))
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("wallet %q in use by %d transactions: %w", name, n, core.ErrConflict)
		}
		if _, err := tx.DeleteWallet(ctx, name); err != nil {
			return err
		}
		return tx.Record(core.EntityWallet, core.ActionDelete, name, nil)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Wallet deleted", log.FieldWallet, name)
	return nil
}

// GetByName returns nil when no wallet has that name.
func (s *WalletService) GetByName(ctx context.Context, name string) (*core.Wallet, error) {
	w, err := s.repo.GetWallet(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetAll lists wallets ordered by name.
func (s *WalletService) GetAll(ctx context.Context) ([]core.Wallet, error) {
	return s.repo.ListWallets(ctx)
}

// ensureAbsent turns the result of a lookup into ErrDuplicateName when the
// record exists.
func ensureAbsent[T any](_ T, err error) error {
	switch {
	case err == nil:
		return core.ErrDuplicateName
	case errors.Is(err, core.ErrNotFound):
		return nil
	default:
		return err
	}
}
