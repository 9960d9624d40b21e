package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sync message operations. Upserts carry the version observed at publish
// time; the worker re-reads the expense, so the payload stays minimal.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// ExpenseSyncMessage tells the export worker that an expense changed. The
// worker fetches the current row from the database, so only the id, the
// operation and the version travel on the wire.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUpsertMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{ID: id, Version: version, Op: OpUpsert, Timestamp: time.Now()}
}

func NewDeleteMessage(id int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{ID: id, Op: OpDelete, Timestamp: time.Now()}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op != OpUpsert && msg.Op != OpDelete {
		return nil, fmt.Errorf("unknown sync operation %q", msg.Op)
	}
	return &msg, nil
}
