// Package remote defines what the engine needs from the optional online
// backend: somewhere to mirror mutations and a reachability signal.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"finwallet/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror applies one local mutation to the remote copy.
	Mirror interface {
		Mirror(ctx context.Context, op core.SyncOperation) error
	}

	// Prober reports whether the remote can currently be reached.
	Prober interface {
		IsReachable(ctx context.Context) bool
	}
)

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) IsReachable(ctx context.Context) bool { return f(ctx) }

// PayloadKey returns the key the record has after op is applied. For a
// rename it differs from op.Key; for a delete it is op.Key.
func PayloadKey(op core.SyncOperation) (string, error) {
	if op.Action == core.ActionDelete || len(op.Payload) == 0 {
		return op.Key, nil
	}
	var rec struct {
		ID   *int64 `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(op.Payload, &rec); err != nil {
		return "", fmt.Errorf("decode %s payload: %w", op.Entity, err)
	}
	if op.Entity == core.EntityTransaction {
		if rec.ID == nil {
			return "", fmt.Errorf("transaction payload has no id")
		}
		return strconv.FormatInt(*rec.ID, 10), nil
	}
	if rec.Name == "" {
		return "", fmt.Errorf("%s payload has no name", op.Entity)
	}
	return rec.Name, nil
}
