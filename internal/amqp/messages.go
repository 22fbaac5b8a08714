package amqp

import (
	"encoding/json"
	"time"

	"finwallet/internal/core"
)

// MutationMessage carries one outbox operation to the consumers of the
// mutation queue. It is self-contained: consumers never read the local
// database.
type MutationMessage struct {
	OpID      string          `json:"op_id"`
	Entity    string          `json:"entity"`
	Action    string          `json:"action"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewMutationMessage(op core.SyncOperation) *MutationMessage {
	return &MutationMessage{
		OpID:      op.ID,
		Entity:    string(op.Entity),
		Action:    string(op.Action),
		Key:       op.Key,
		Payload:   op.Payload,
		CreatedAt: op.CreatedAt,
		Timestamp: time.Now(),
	}
}

// Operation converts the message back into the operation it was built from.
func (m *MutationMessage) Operation() core.SyncOperation {
	return core.SyncOperation{
		ID:        m.OpID,
		Entity:    core.SyncEntity(m.Entity),
		Action:    core.SyncAction(m.Action),
		Key:       m.Key,
		Payload:   m.Payload,
		CreatedAt: m.CreatedAt,
	}
}

func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
