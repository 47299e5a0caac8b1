package http

import (
	"expensetracker/internal/core"
	"expensetracker/internal/form"
)

type itemView struct {
	ID     int
	Name   string
	Amount string
	Date   string
}

type trackerView struct {
	Total   string
	Count   int
	Invalid int
	Items   []itemView
	Form    form.View
}

// newTrackerView derives list rows and the total from one snapshot.
func newTrackerView(items []core.Expense, fv form.View) trackerView {
	totals := core.Sum(items)
	v := trackerView{
		Total:   totals.String(),
		Count:   totals.Count,
		Invalid: totals.Invalid,
		Items:   make([]itemView, 0, len(items)),
		Form:    fv,
	}
	for _, e := range items {
		v.Items = append(v.Items, itemView{
			ID:     e.ID,
			Name:   e.Name,
			Amount: formatAmount(e.Amount),
			Date:   e.Date.Display(),
		})
	}
	return v
}

func formatAmount(a core.Amount) string {
	if !a.IsValid() {
		return a.String()
	}
	return "$" + a.String()
}
