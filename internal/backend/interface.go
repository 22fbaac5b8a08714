package backend

import (
	"context"

	"finwallet/internal/services"
	"finwallet/internal/storage"
)

// Services is the wired engine handed to a command.
type Services struct {
	Repo          *storage.SQLiteRepository
	Coordinator   *services.SyncCoordinator
	Processor     *services.SyncProcessor
	Wallets       *services.WalletService
	Categories    *services.CategoryService
	Ledger        *services.LedgerService
	Balances      *services.BalanceService
	Subscriptions *services.SubscriptionService
	Recurring     *services.RecurringProcessor
}

// CleanupFunc releases what CreateBackend opened.
type CleanupFunc func() error

type BackendResult struct {
	Services *Services
	Cleanup  CleanupFunc
}

// Factory builds the engine for a configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType selects where mutations are mirrored.
type BackendType string

const (
	NoneBackend   BackendType = "none"
	MemoryBackend BackendType = "memory"
	HTTPBackend   BackendType = "http"
	AMQPBackend   BackendType = "amqp"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case NoneBackend, MemoryBackend, HTTPBackend, AMQPBackend:
		return true
	default:
		return false
	}
}
