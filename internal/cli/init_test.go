package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("worker", "debug")
	if logger.Component() != "worker" {
		t.Errorf("Component() = %q, want worker", logger.Component())
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}

	logger = SetupLogger("cli", "nonsense")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("an unknown level should fall back to info")
	}
}

func TestOpenRepository(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	logger := SetupLogger("cli", "error")

	repo, err := OpenRepository(logger, filepath.Join(t.TempDir(), "nested", "finwallet.db"))
	if err != nil {
		t.Fatalf("OpenRepository() error = %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
