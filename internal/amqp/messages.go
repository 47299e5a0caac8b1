package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// ChangeMessage announces one applied store mutation. For deletes the
// expense fields describe the record as it was before removal.
type ChangeMessage struct {
	Op        store.Op    `json:"op"`
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Amount    core.Amount `json:"amount"`
	Date      core.Date   `json:"date"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewChangeMessage builds a message for a store change.
func NewChangeMessage(op store.Op, e core.Expense) *ChangeMessage {
	return &ChangeMessage{
		Op:        op,
		ID:        e.ID,
		Name:      e.Name,
		Amount:    e.Amount,
		Date:      e.Date,
		Timestamp: time.Now().UTC(),
	}
}

// Expense returns the record carried by the message.
func (m *ChangeMessage) Expense() core.Expense {
	return core.Expense{ID: m.ID, Name: m.Name, Amount: m.Amount, Date: m.Date}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and checks the operation name.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case store.OpAdd, store.OpEdit, store.OpDelete:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
