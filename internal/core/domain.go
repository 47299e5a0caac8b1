package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar-date form used on the wire and in inputs.
	DateLayout = "2006-01-02"
	// DisplayDateLayout matches the dd/MM/yyyy form shown in the list view.
	DisplayDateLayout = "02/01/2006"
)

type (
	Date struct {
		time.Time
	}

	Expense struct {
		ID     int
		Name   string
		Amount Amount
		Date   Date
	}

	// Patch carries the editable fields of an Expense; the id is never patched.
	Patch struct {
		Name   string
		Amount Amount
		Date   Date
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidAmount = errors.New("invalid amount")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate accepts a plain calendar date (2024-06-01) or a full RFC3339
// timestamp (2024-06-01T00:00:00.000Z). Timestamps are reduced to their UTC
// calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String returns the ISO calendar form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display returns the date as shown next to each record.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayDateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: expected string, got %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Apply returns a copy of e with the patch fields applied.
func (e Expense) Apply(p Patch) Expense {
	e.Name = p.Name
	e.Amount = p.Amount
	e.Date = p.Date
	return e
}

// Validate checks the structural fields needed to rebuild a record from
// persisted state. Name and amount are free-form.
func (e Expense) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, e.ID)
	}
	if err := e.Date.Validate(); err != nil {
		return fmt.Errorf("expense %d: %w", e.ID, err)
	}
	return nil
}
