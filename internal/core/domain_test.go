package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-06-01", NewDate(2024, 6, 1), true},
		{" 2024-07-01 ", NewDate(2024, 7, 1), true},
		{"2024-05-15T00:00:00.000Z", NewDate(2024, 5, 15), true},
		{"2024-05-15T23:30:00-02:00", NewDate(2024, 5, 16), true}, // UTC day
		{"", Date{}, false},
		{"15/05/2024", Date{}, false},
		{"yesterday", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateFormats(t *testing.T) {
	d := NewDate(2024, 6, 5)
	if d.String() != "2024-06-05" {
		t.Fatalf("String=%q", d.String())
	}
	if d.Display() != "05/06/2024" {
		t.Fatalf("Display=%q", d.Display())
	}
	if (Date{}).String() != "" || (Date{}).Display() != "" {
		t.Fatalf("zero date should render empty")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 6, 10))
	if err != nil || string(b) != `"2024-06-10"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-06-10T00:00:00.000Z"`), &d); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if !d.Equal(NewDate(2024, 6, 10).Time) {
		t.Fatalf("got %s", d)
	}
	if err := json.Unmarshal([]byte(`12`), &d); err == nil {
		t.Fatalf("expected error for non-string date")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{ID: 1, Name: "ok", Amount: MustAmount("1"), Date: NewDate(2025, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// name and amount are free-form
	loose := Expense{ID: 2, Name: "", Amount: InvalidAmount(), Date: NewDate(2025, 1, 1)}
	if err := loose.Validate(); err != nil {
		t.Fatalf("expected ok for empty name and invalid amount, got %v", err)
	}

	bads := []Expense{
		{ID: 0, Name: "a", Amount: MustAmount("1"), Date: NewDate(2025, 1, 1)},
		{ID: -3, Name: "a", Amount: MustAmount("1"), Date: NewDate(2025, 1, 1)},
		{ID: 1, Name: "a", Amount: MustAmount("1"), Date: Date{}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseApplyKeepsID(t *testing.T) {
	e := Expense{ID: 7, Name: "Rent", Amount: MustAmount("250"), Date: NewDate(2024, 6, 1)}
	got := e.Apply(Patch{Name: "Rent June", Amount: MustAmount("900.5"), Date: NewDate(2024, 6, 2)})
	if got.ID != 7 || got.Name != "Rent June" || got.Amount.Text() != "900.5" || !got.Date.Equal(NewDate(2024, 6, 2).Time) {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	if e.Name != "Rent" {
		t.Fatalf("Apply must not mutate the receiver")
	}
}
