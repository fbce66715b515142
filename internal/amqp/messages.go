package amqp

import (
	"encoding/json"
	"time"
)

// TransactionExportMessage is the lightweight queue payload for exporting a
// transaction. It carries only the ID and version, the worker fetches the
// full row from the database.
type TransactionExportMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionExportMessage(id, version int64) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
