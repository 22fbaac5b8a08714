package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"finwallet/internal/amqp"
	"finwallet/internal/connectivity"
	"finwallet/internal/middleware/ratelimit"
	"finwallet/internal/remote"
	"finwallet/internal/remote/httpapi"
	"finwallet/internal/remote/memory"
	"finwallet/internal/services"
	"finwallet/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the local store, builds the mirror for the configured
// backend and wires every service on top.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	mirror, prober, closeRemote, err := f.createRemote(ctx, config)
	if err != nil {
		repo.Close()
		return nil, err
	}

	svc := Wire(repo, mirror, prober, config.Processor)

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"db_path", config.SQLiteDBPath,
		"mirroring", mirror != nil)

	return &BackendResult{
		Services: svc,
		Cleanup: func() error {
			var errs []error
			if closeRemote != nil {
				errs = append(errs, closeRemote())
			}
			errs = append(errs, repo.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createRemote(ctx context.Context, config Config) (remote.Mirror, remote.Prober, func() error, error) {
	switch config.Type {
	case NoneBackend:
		return nil, nil, nil, nil

	case MemoryBackend:
		store := memory.New()
		return store, store, nil, nil

	case HTTPBackend:
		client, err := httpapi.New(ctx, config.RemoteBaseURL, f.tokenSource(ctx, config), config.RemoteTimeout,
			httpapi.WithRateLimit(ratelimit.Config{RequestsPerSecond: config.RemoteRPS, Burst: config.RemoteBurst}))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize REST mirror: %w", err)
		}
		probe, err := connectivity.NewProbe(config.RemoteBaseURL, config.ConnectivityTimeout, config.ConnectivityTTL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize connectivity probe: %w", err)
		}
		f.logger.Info("Initialized REST mirror", "base_url", config.RemoteBaseURL)
		return client, probe, nil, nil

	case AMQPBackend:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("AMQP broker unavailable, mutations will be deferred", "error", err)
			client = amqp.New(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
		probe, err := connectivity.NewProbe(config.AMQPURL, config.ConnectivityTimeout, config.ConnectivityTTL)
		if err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to initialize connectivity probe: %w", err)
		}
		// The TCP probe is cached and cheap; the client check may redial.
		prober := remote.ProberFunc(func(ctx context.Context) bool {
			return probe.IsReachable(ctx) && client.IsReachable(ctx)
		})
		return client, prober, client.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// tokenSource prefers the static token. Without a saved login the mirror runs
// unauthenticated and its failures stay queued until `finwallet login`.
func (f *DefaultFactory) tokenSource(ctx context.Context, config Config) oauth2.TokenSource {
	if config.OAuth == nil {
		return httpapi.StaticToken(config.RemoteToken)
	}
	ts, err := httpapi.FileTokenSource(ctx, config.OAuth.Config(), config.TokenFile)
	if err != nil {
		f.logger.Warn("No usable login token, run `finwallet login`", "error", err, "path", config.TokenFile)
		return nil
	}
	return ts
}

// Wire builds the services over repo. A nil mirror gives local-only mode.
func Wire(repo *storage.SQLiteRepository, mirror remote.Mirror, prober remote.Prober, cfg services.SyncProcessorConfig) *Services {
	var processor *services.SyncProcessor
	if mirror != nil {
		processor = services.NewSyncProcessor(repo, mirror, prober, cfg)
	}
	coordinator := services.NewSyncCoordinator(repo, processor)
	ledger := services.NewLedgerService(repo, coordinator)
	subscriptions := services.NewSubscriptionService(repo, coordinator)

	return &Services{
		Repo:          repo,
		Coordinator:   coordinator,
		Processor:     processor,
		Wallets:       services.NewWalletService(repo, coordinator),
		Categories:    services.NewCategoryService(repo, coordinator),
		Ledger:        ledger,
		Balances:      services.NewBalanceService(repo),
		Subscriptions: subscriptions,
		Recurring:     services.NewRecurringProcessor(repo, ledger, subscriptions),
	}
}
