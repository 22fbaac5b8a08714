// Package google keeps a Google Sheets copy of the mirrored records, one
// sheet per entity with the record key in column A.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finwallet/internal/cache"
	"finwallet/internal/core"
	"finwallet/internal/remote"
)

// columns lists, per entity, the payload fields written after the key.
var columns = map[core.SyncEntity][]string{
	core.EntityWallet:       {"name", "init_amount", "currency", "visible_category"},
	core.EntityCategory:     {"name"},
	core.EntityTransaction:  {"id", "type", "amount", "currency", "date", "wallet", "category", "repeat", "note"},
	core.EntitySubscription: {"name", "amount", "currency", "billing_date", "repeat", "reminder_before", "category"},
}

var sheetNames = map[core.SyncEntity]string{
	core.EntityWallet:       "Wallets",
	core.EntityCategory:     "Categories",
	core.EntityTransaction:  "Transactions",
	core.EntitySubscription: "Subscriptions",
}

const keyHeader = "key"

// values is the slice of the Sheets values API the client uses.
type values interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
	Clear(ctx context.Context, spreadsheetID, rng string) error
}

type Client struct {
	values        values
	spreadsheetID string
	// entity/key -> 1-based row number
	rows *cache.LRUCache[int]
}

var _ remote.Mirror = (*Client)(nil)

// New creates a client authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return newClient(serviceValues{svc: svc}, spreadsheetID), nil
}

// Credentials returns inline JSON when set, otherwise the file contents.
func Credentials(inlineJSON, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inlineJSON) != "":
		return []byte(inlineJSON), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func newClient(v values, spreadsheetID string) *Client {
	return &Client{
		values:        v,
		spreadsheetID: spreadsheetID,
		rows:          cache.NewLRUCache[int](4096, time.Hour),
	}
}

// Rows exposes the row cache so a janitor can sweep it.
func (c *Client) Rows() *cache.LRUCache[int] { return c.rows }

// EnsureHeaders writes the header row of every sheet.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	for entity, name := range sheetNames {
		header := []any{keyHeader}
		for _, col := range columns[entity] {
			header = append(header, col)
		}
		if err := c.values.Update(ctx, c.spreadsheetID, name+"!A1", [][]any{header}); err != nil {
			return fmt.Errorf("write %s header: %w", name, err)
		}
	}
	return nil
}

// Mirror applies op to the spreadsheet.
func (c *Client) Mirror(ctx context.Context, op core.SyncOperation) error {
	return c.Apply(ctx, op)
}

// Apply upserts the row for a create or update, following renames, and
// clears it on delete.
func (c *Client) Apply(ctx context.Context, op core.SyncOperation) error {
	sheet, ok := sheetNames[op.Entity]
	if !ok {
		return fmt.Errorf("unknown entity %q", op.Entity)
	}

	if op.Action == core.ActionDelete {
		row, found, err := c.findRow(ctx, op.Entity, op.Key)
		if err != nil || !found {
			return err
		}
		rng := fmt.Sprintf("%s!A%d:%s%d", sheet, row, lastColumn(op.Entity), row)
		if err := c.values.Clear(ctx, c.spreadsheetID, rng); err != nil {
			return fmt.Errorf("clear %s: %w", rng, err)
		}
		c.rows.Delete(cacheKey(op.Entity, op.Key))
		return nil
	}

	key, err := remote.PayloadKey(op)
	if err != nil {
		return err
	}
	record, err := rowValues(op.Entity, key, op.Payload)
	if err != nil {
		return err
	}

	lookup := key
	if op.Key != "" {
		lookup = op.Key
	}
	row, found, err := c.findRow(ctx, op.Entity, lookup)
	if err != nil {
		return err
	}
	if !found && lookup != key {
		if row, found, err = c.findRow(ctx, op.Entity, key); err != nil {
			return err
		}
	}

	if !found {
		if err := c.values.Append(ctx, c.spreadsheetID, sheet+"!A:A", [][]any{record}); err != nil {
			return fmt.Errorf("append to %s: %w", sheet, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A%d", sheet, row)
	if err := c.values.Update(ctx, c.spreadsheetID, rng, [][]any{record}); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	if lookup != key {
		c.rows.Delete(cacheKey(op.Entity, lookup))
	}
	c.rows.Set(cacheKey(op.Entity, key), row)
	return nil
}

// findRow locates the row holding key, skipping the header.
func (c *Client) findRow(ctx context.Context, entity core.SyncEntity, key string) (int, bool, error) {
	if row, ok := c.rows.Get(cacheKey(entity, key)); ok {
		return row, true, nil
	}

	sheet := sheetNames[entity]
	keys, err := c.values.Get(ctx, c.spreadsheetID, sheet+"!A:A")
	if err != nil {
		return 0, false, fmt.Errorf("read %s keys: %w", sheet, err)
	}
	for i, cells := range keys {
		if i == 0 || len(cells) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cells[0])) == key {
			c.rows.Set(cacheKey(entity, key), i+1)
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func rowValues(entity core.SyncEntity, key string, payload json.RawMessage) ([]any, error) {
	fields := map[string]any{}
	if len(payload) > 0 {
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", entity, err)
		}
	}
	out := []any{key}
	for _, col := range columns[entity] {
		out = append(out, cellValue(fields[col]))
	}
	return out, nil
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func lastColumn(entity core.SyncEntity) string {
	return string(rune('A' + len(columns[entity])))
}

func cacheKey(entity core.SyncEntity, key string) string {
	return string(entity) + "/" + key
}

// serviceValues adapts the generated Sheets client.
type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Get(ctx context.Context, id, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s serviceValues) Update(ctx context.Context, id, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(id, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s serviceValues) Append(ctx context.Context, id, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(id, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s serviceValues) Clear(ctx context.Context, id, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(id, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
