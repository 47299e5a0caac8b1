package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"expensetracker/internal/core"
)

// ErrCorrupt marks slot content that cannot be turned back into records.
var ErrCorrupt = errors.New("corrupt expense list")

// record is the persisted layout of one expense:
// {"id": 1, "name": "Rent", "amount": 250, "date": "2024-06-01"}.
type record struct {
	ID     int         `json:"id"`
	Name   string      `json:"name"`
	Amount core.Amount `json:"amount"`
	Date   core.Date   `json:"date"`
}

// Encode serializes the full ordered list. Invalid amounts become null.
func Encode(items []core.Expense) ([]byte, error) {
	out := make([]record, len(items))
	for i, e := range items {
		out[i] = record{ID: e.ID, Name: e.Name, Amount: e.Amount, Date: e.Date}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode expenses: %w", err)
	}
	return b, nil
}

// Decode parses and validates a persisted list. Dates may be plain calendar
// dates or full timestamps; both are reduced to a calendar day.
func Decode(b []byte) ([]core.Expense, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrCorrupt)
	}
	var in []record
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	items := make([]core.Expense, len(in))
	for i, r := range in {
		e := core.Expense{ID: r.ID, Name: r.Name, Amount: r.Amount, Date: r.Date}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		items[i] = e
	}
	return items, nil
}
