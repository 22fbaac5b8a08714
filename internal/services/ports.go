package services

import (
	"context"

	"finwallet/internal/storage"
)

// Repository is the local store plus atomic multi-statement sequences.
// *storage.SQLiteRepository satisfies it.
type Repository interface {
	storage.Store
	InTx(ctx context.Context, fn func(storage.Store) error) error
}

var _ Repository = (*storage.SQLiteRepository)(nil)
