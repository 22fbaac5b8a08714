package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"finwallet/internal/backend"
	"finwallet/internal/cli"
	"finwallet/internal/log"
)

// app carries the engine between PersistentPreRunE and the subcommands.
type app struct {
	dbPath      string
	backendType string

	svc     *backend.Services
	cleanup backend.CleanupFunc
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "finwallet",
		Short:         "Offline-first personal finance ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	root.PersistentFlags().StringVar(&a.backendType, "backend", "", "sync backend: none, memory, http or amqp (overrides SYNC_BACKEND)")

	root.AddCommand(
		newWalletCmd(a),
		newCategoryCmd(a),
		newTxCmd(a),
		newSubscriptionCmd(a),
		newBalanceCmd(a),
		newSyncCmd(a),
		newLoginCmd(),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(log.ComponentCLI, cfg.LogLevel)

	if a.dbPath != "" {
		cfg.SQLiteDBPath = a.dbPath
	}
	if a.backendType != "" {
		cfg.SyncBackend = a.backendType
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	a.svc = res.Services
	a.cleanup = res.Cleanup
	return nil
}

func (a *app) close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
