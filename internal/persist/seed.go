package persist

import "expensetracker/internal/core"

// Seeds returns the example records used when nothing has been stored yet.
func Seeds() []core.Expense {
	return []core.Expense{
		{ID: 1, Name: "Groceries", Amount: core.MustAmount("250"), Date: core.NewDate(2024, 5, 15)},
		{ID: 2, Name: "Rent", Amount: core.MustAmount("250"), Date: core.NewDate(2024, 6, 1)},
		{ID: 3, Name: "Utilities", Amount: core.MustAmount("250"), Date: core.NewDate(2024, 6, 5)},
		{ID: 4, Name: "Dining Out", Amount: core.MustAmount("250"), Date: core.NewDate(2024, 6, 10)},
	}
}
