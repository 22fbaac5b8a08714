package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finwallet/internal/core"
)

// fakeValues is an in-memory spreadsheet understanding the ranges the client
// sends: "Sheet!A:A", "Sheet!A<row>" and "Sheet!A<row>:<col><row>".
type fakeValues struct {
	sheets map[string][][]any
	gets   int
	fail   error
}

func newFakeValues() *fakeValues {
	return &fakeValues{sheets: map[string][][]any{}}
}

func splitRange(rng string) (string, int) {
	sheet, cells, _ := strings.Cut(rng, "!")
	cells, _, _ = strings.Cut(cells, ":")
	row, err := strconv.Atoi(strings.TrimLeft(cells, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		return sheet, 0
	}
	return sheet, row
}

func (f *fakeValues) Get(_ context.Context, _, rng string) ([][]any, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.gets++
	sheet, _ := splitRange(rng)
	var out [][]any
	for _, row := range f.sheets[sheet] {
		if len(row) == 0 {
			out = append(out, []any{})
			continue
		}
		out = append(out, []any{row[0]})
	}
	return out, nil
}

func (f *fakeValues) Update(_ context.Context, _, rng string, rows [][]any) error {
	if f.fail != nil {
		return f.fail
	}
	sheet, row := splitRange(rng)
	grid := f.sheets[sheet]
	for len(grid) < row {
		grid = append(grid, nil)
	}
	grid[row-1] = rows[0]
	f.sheets[sheet] = grid
	return nil
}

func (f *fakeValues) Append(_ context.Context, _, rng string, rows [][]any) error {
	if f.fail != nil {
		return f.fail
	}
	sheet, _ := splitRange(rng)
	if len(f.sheets[sheet]) == 0 {
		f.sheets[sheet] = [][]any{nil}
	}
	f.sheets[sheet] = append(f.sheets[sheet], rows...)
	return nil
}

func (f *fakeValues) Clear(_ context.Context, _, rng string) error {
	if f.fail != nil {
		return f.fail
	}
	sheet, row := splitRange(rng)
	f.sheets[sheet][row-1] = nil
	return nil
}

func op(t *testing.T, entity core.SyncEntity, action core.SyncAction, key string, payload any) core.SyncOperation {
	t.Helper()
	o, err := core.NewSyncOperation(entity, action, key, payload)
	require.NoError(t, err)
	return *o
}

func TestApplyUpsertRenameDelete(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, "sheet-id")
	require.NoError(t, c.EnsureHeaders(ctx))

	w := map[string]any{"name": "Cash", "init_amount": "10.5", "currency": "VND", "visible_category": ""}
	require.NoError(t, c.Apply(ctx, op(t, core.EntityWallet, core.ActionCreate, "Cash", w)))
	require.Equal(t, []any{"Cash", "Cash", "10.5", "VND", ""}, fv.sheets["Wallets"][1])

	w["name"] = "Pocket"
	require.NoError(t, c.Apply(ctx, op(t, core.EntityWallet, core.ActionUpdate, "Cash", w)))
	require.Len(t, fv.sheets["Wallets"], 2, "rename updates in place")
	require.Equal(t, "Pocket", fv.sheets["Wallets"][1][0])

	require.NoError(t, c.Mirror(ctx, op(t, core.EntityWallet, core.ActionDelete, "Pocket", nil)))
	require.Nil(t, fv.sheets["Wallets"][1])

	// Deleting again is a no-op.
	require.NoError(t, c.Apply(ctx, op(t, core.EntityWallet, core.ActionDelete, "Pocket", nil)))
}

func TestApplyUsesRowCache(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, "sheet-id")
	require.NoError(t, c.EnsureHeaders(ctx))

	tx := map[string]any{"id": 7, "type": "Expense", "amount": "3.20", "date": "2024-01-02T00:00:00Z", "wallet": "Cash"}
	require.NoError(t, c.Apply(ctx, op(t, core.EntityTransaction, core.ActionCreate, "7", tx)))
	tx["amount"] = "4.00"
	require.NoError(t, c.Apply(ctx, op(t, core.EntityTransaction, core.ActionUpdate, "7", tx)))
	require.NoError(t, c.Apply(ctx, op(t, core.EntityTransaction, core.ActionUpdate, "7", tx)))

	require.Equal(t, 2, fv.gets, "one scan before the create, one to find the row, then cached")
	row := fv.sheets["Transactions"][1]
	require.Equal(t, "7", row[0])
	require.Equal(t, "4.00", row[3])
}

func TestApplyErrors(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, "sheet-id")

	err := c.Apply(ctx, core.SyncOperation{Entity: "budget", Action: core.ActionCreate})
	require.Error(t, err)

	fv.fail = errors.New("quota exceeded")
	err = c.Apply(ctx, op(t, core.EntityCategory, core.ActionCreate, "Food", map[string]string{"name": "Food"}))
	require.ErrorIs(t, err, fv.fail)
}

func TestCredentials(t *testing.T) {
	b, err := Credentials(`{"type":"service_account"}`, "")
	require.NoError(t, err)
	require.Contains(t, string(b), "service_account")

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	b, err = Credentials("", path)
	require.NoError(t, err)
	require.Equal(t, "{}", string(b))

	_, err = Credentials("", "")
	require.Error(t, err)
	_, err = Credentials("", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLastColumn(t *testing.T) {
	for entity, cols := range columns {
		got := lastColumn(entity)
		want := fmt.Sprintf("%c", 'A'+len(cols))
		require.Equal(t, want, got)
	}
	require.Equal(t, "B", lastColumn(core.EntityCategory))
}
