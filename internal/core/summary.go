package core

import "github.com/shopspring/decimal"

// Totals is the running total over a list of expenses.
type Totals struct {
	Sum     decimal.Decimal
	Count   int
	Invalid int // records whose amount is Invalid; they add zero to Sum
}

// Sum folds the amounts of expenses left to right.
func Sum(expenses []Expense) Totals {
	t := Totals{Sum: decimal.Zero}
	for _, e := range expenses {
		t.Count++
		d, ok := e.Amount.Decimal()
		if !ok {
			t.Invalid++
			continue
		}
		t.Sum = t.Sum.Add(d)
	}
	return t
}

// String formats the sum with two decimals.
func (t Totals) String() string {
	return t.Sum.StringFixed(2)
}
