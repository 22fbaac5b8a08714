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

// CategoryService is the category registry. It mirrors WalletService over the
// ledger's category column, and also keeps subscriptions and wallet display
// filters pointing at the right name.
type CategoryService struct {
	repo Repository
	sync *SyncCoordinator
}

func NewCategoryService(repo Repository, sync *SyncCoordinator) *CategoryService {
	return &CategoryService{repo: repo, sync: sync}
}

func (s *CategoryService) Create(ctx context.Context, name string) (string, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}

	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		if err := ensureAbsent(tx.GetCategory(ctx, c.Name)); err != nil {
			return fmt.Errorf("create category %q: %w", c.Name, err)
		}
		if err := tx.CreateCategory(ctx, c); err != nil {
			return err
		}
		return tx.Record(core.EntityCategory, core.ActionCreate, c.Name, c)
	})
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "Category created", log.FieldCategory, c.Name)
	return c.Name, nil
}

// Rename moves every reference to oldName over to newName, then renames the
// category itself.
func (s *CategoryService) Rename(ctx context.Context, oldName, newName string) error {
	c := core.Category{Name: strings.TrimSpace(newName)}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("rename category %q: %w", oldName, err)
	}

	var moved int64
	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		if _, err := tx.GetCategory(ctx, oldName); err != nil {
			return err
		}
		if c.Name == oldName {
			return nil
		}
		if err := ensureAbsent(tx.GetCategory(ctx, c.Name)); err != nil {
			return fmt.Errorf("rename category %q to %q: %w", oldName, c.Name, err)
		}

		var err error
		if moved, err = tx.ReassignCategory(ctx, oldName, c.Name); err != nil {
			return err
		}
		if _, err := tx.ReassignSubscriptionCategory(ctx, oldName, c.Name); err != nil {
			return err
		}
		if _, err := tx.ReassignVisibleCategory(ctx, oldName, c.Name); err != nil {
			return err
		}
		if err := tx.RenameCategory(ctx, oldName, c.Name); err != nil {
			return err
		}
		return tx.Record(core.EntityCategory, core.ActionUpdate, oldName, c)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category renamed", "from", oldName, "to", c.Name, "transactions_moved", moved)
	return nil
}

// Delete removes a category that no transaction or subscription references.
// Wallets using it as their display filter fall back to no filter.
func (s *CategoryService) Delete(ctx context.Context, name string) error {
	_, err := s.sync.Do(ctx, func(ctx context.Context, tx *SyncTx) error {
		if _, err := tx.GetCategory(ctx, name); err != nil {
			return err
		}
		n, err := tx.CountTransactions(ctx, categoryFilter(name))
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("category %q in use by %d transactions: %w", name, n, core.ErrConflict)
		}
		subs, err := tx.CountSubscriptionsByCategory(ctx, name)
		if err != nil {
			return err
		}
		if subs > 0 {
			return fmt.Errorf("category %q in use by %d subscriptions: %w", name, subs, core.ErrConflict)
		}
		if _, err := tx.ReassignVisibleCategory(ctx, name, ""); err != nil {
			return err
		}
		if _, err := tx.DeleteCategory(ctx, name); err != nil {
			return err
		}
		return tx.Record(core.EntityCategory, core.ActionDelete, name, nil)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", log.FieldCategory, name)
	return nil
}

// GetByName returns nil when no category has that name.
func (s *CategoryService) GetByName(ctx context.Context, name string) (*core.Category, error) {
	c, err := s.repo.GetCategory(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryService) GetAll(ctx context.Context) ([]core.Category, error) {
	return s.repo.ListCategories(ctx)
}
