package amqp

import (
	"encoding/json"
	"time"
)

// Message operations. A delete message still carries the entry id so the
// worker can clear the mirrored row.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// EntrySyncMessage is a lightweight notification that an entry changed.
// It carries only the id and version; the worker fetches the full entry
// from the database before mirroring it.
type EntrySyncMessage struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id string, version int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Version:   version,
		Op:        OpSync,
		Timestamp: time.Now(),
	}
}

func NewEntryDeleteMessage(id string) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Op:        OpDelete,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntrySyncMessageFromJSON creates a message from JSON bytes.
func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op == "" {
		msg.Op = OpSync
	}
	return &msg, nil
}
