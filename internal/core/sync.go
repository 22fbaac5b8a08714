package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EntityWallet       SyncEntity = "wallet"
	EntityCategory     SyncEntity = "category"
	EntityTransaction  SyncEntity = "transaction"
	EntitySubscription SyncEntity = "subscription"
)

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionDelete SyncAction = "delete"
)

type (
	SyncEntity string
	SyncAction string

	// SyncOperation is one local mutation to be mirrored remotely. Key
	// addresses the remote record as it was before the mutation, so a rename
	// carries the old name in Key and the new one in Payload.
	SyncOperation struct {
		ID        string          `json:"id"`
		Entity    SyncEntity      `json:"entity"`
		Action    SyncAction      `json:"action"`
		Key       string          `json:"key"`
		Payload   json.RawMessage `json:"payload,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
	}
)

// NewSyncOperation builds an operation with a fresh id. A nil payload is
// allowed for deletes.
func NewSyncOperation(entity SyncEntity, action SyncAction, key string, payload any) (*SyncOperation, error) {
	op := &SyncOperation{
		ID:        uuid.NewString(),
		Entity:    entity,
		Action:    action,
		Key:       key,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", entity, err)
		}
		op.Payload = raw
	}
	return op, nil
}

func (op SyncOperation) String() string {
	return fmt.Sprintf("%s %s %q", op.Action, op.Entity, op.Key)
}
