package amqp

import (
	"encoding/json"
	"time"
)

// RecordsChangedMessage announces a committed ledger write. It carries no
// record data; consumers reload the shared store.
type RecordsChangedMessage struct {
	Revision  uint64    `json:"revision"`
	Operation string    `json:"operation"`
	RecordID  string    `json:"record_id,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordsChangedMessage(revision uint64, operation, recordID string, count int) *RecordsChangedMessage {
	return &RecordsChangedMessage{
		Revision:  revision,
		Operation: operation,
		RecordID:  recordID,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecordsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordsChangedMessageFromJSON(data []byte) (*RecordsChangedMessage, error) {
	var msg RecordsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
