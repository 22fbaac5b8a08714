package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"finwallet/internal/core"
	"finwallet/internal/remote/memory"
	"finwallet/internal/storage"
)

type fixture struct {
	repo          Repository
	sqlite        *storage.SQLiteRepository
	remote        *memory.Store
	processor     *SyncProcessor
	coordinator   *SyncCoordinator
	wallets       *WalletService
	categories    *CategoryService
	ledger        *LedgerService
	balances      *BalanceService
	subscriptions *SubscriptionService
}

type fixtureOption func(*fixture)

// withRemote mirrors writes to an in-memory remote.
func withRemote() fixtureOption {
	return func(f *fixture) { f.remote = memory.New() }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	sqlite, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finwallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	f := &fixture{repo: sqlite, sqlite: sqlite}
	for _, opt := range opts {
		opt(f)
	}
	f.wire()
	return f
}

func (f *fixture) wire() {
	if f.remote != nil {
		cfg := DefaultSyncProcessorConfig()
		cfg.MaxRetries = 3
		f.processor = NewSyncProcessor(f.repo, f.remote, f.remote, cfg)
	}
	f.coordinator = NewSyncCoordinator(f.repo, f.processor)
	f.wallets = NewWalletService(f.repo, f.coordinator)
	f.categories = NewCategoryService(f.repo, f.coordinator)
	f.ledger = NewLedgerService(f.repo, f.coordinator)
	f.balances = NewBalanceService(f.repo)
	f.subscriptions = NewSubscriptionService(f.repo, f.coordinator)
}

func (f *fixture) mustWallet(t *testing.T, name string, init int64) {
	t.Helper()
	_, err := f.wallets.Create(context.Background(), core.Wallet{
		Name: name, InitAmount: decimal.NewFromInt(init), Currency: "VND",
	})
	require.NoError(t, err)
}

func (f *fixture) mustTx(t *testing.T, typ core.TransactionType, amount int64, wallet, category string) int64 {
	t.Helper()
	id, err := f.ledger.Create(context.Background(), core.Transaction{
		Type: typ, Amount: decimal.NewFromInt(amount), Wallet: wallet, Category: category,
	})
	require.NoError(t, err)
	return id
}

func requireDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
