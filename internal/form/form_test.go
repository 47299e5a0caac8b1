package form

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

var fixedToday = core.NewDate(2024, 7, 1)

func newController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	st := store.New([]core.Expense{
		{ID: 1, Name: "Groceries", Amount: core.MustAmount("250"), Date: core.NewDate(2024, 5, 15)},
		{ID: 2, Name: "Rent", Amount: core.MustAmount("250"), Date: core.NewDate(2024, 6, 1)},
	})
	return New(st, WithClock(func() core.Date { return fixedToday })), st
}

func TestOpenResetsDraft(t *testing.T) {
	c, _ := newController(t)
	if c.State() != Closed || c.View().Open {
		t.Fatalf("controller must start closed")
	}

	c.Open(context.Background())
	v := c.View()
	if v.State != AddDraft || !v.Open || v.Title != "Add Expense" || v.SubmitLabel != "Add Expense" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Name != "" || v.AmountText != "" || v.DateText != "2024-07-01" || v.AmountValid {
		t.Fatalf("draft not reset: %+v", v)
	}
}

func TestAddCommit(t *testing.T) {
	ctx := context.Background()
	c, st := newController(t)
	c.Open(ctx)
	for field, text := range map[Field]string{FieldName: "Coffee", FieldAmount: "4.5", FieldDate: "2024-07-02"} {
		if err := c.SetField(field, text); err != nil {
			t.Fatalf("set %s: %v", field, err)
		}
	}
	if st.Len() != 2 {
		t.Fatalf("field edits must not touch the store")
	}

	res, err := c.Commit(ctx)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Op != store.OpAdd || !res.Applied || res.Expense.ID != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got, ok := st.Get(3)
	if !ok || got.Name != "Coffee" || got.Amount.String() != "4.50" || !got.Date.Equal(core.NewDate(2024, 7, 2).Time) {
		t.Fatalf("unexpected stored record: %+v", got)
	}
	if c.State() != Closed || c.Draft().Name != "" {
		t.Fatalf("commit must close and reset the form")
	}
}

func TestAmountParsedOnEveryKeystroke(t *testing.T) {
	c, _ := newController(t)
	c.Open(context.Background())

	steps := []struct {
		text  string
		valid bool
	}{
		{"1", true},
		{"abc", false},
		{"1.5", true},
		{"1.5x", false},
		{"", false},
		{"-2", true},
	}
	for _, s := range steps {
		_ = c.SetField(FieldAmount, s.text)
		d := c.Draft()
		if d.AmountText != s.text || d.Amount.IsValid() != s.valid {
			t.Fatalf("%q: text=%q valid=%v", s.text, d.AmountText, d.Amount.IsValid())
		}
	}
}

func TestCommitWithInvalidAmountStillAdds(t *testing.T) {
	ctx := context.Background()
	c, st := newController(t)
	c.Open(ctx)
	_ = c.SetField(FieldName, "Mystery")
	_ = c.SetField(FieldAmount, "lots")

	res, err := c.Commit(ctx)
	if err != nil || !res.Applied {
		t.Fatalf("commit: %+v %v", res, err)
	}
	got, _ := st.Get(res.Expense.ID)
	if got.Amount.IsValid() {
		t.Fatalf("expected invalid amount to be stored as invalid")
	}
	if st.Total().String() != "500.00" {
		t.Fatalf("invalid amount must add zero, total=%s", st.Total())
	}
}

func TestBadDateKeepsPreviousDate(t *testing.T) {
	c, _ := newController(t)
	c.Open(context.Background())
	_ = c.SetField(FieldDate, "2024-02-30x")
	if c.View().DateText != "2024-07-01" {
		t.Fatalf("bad date text must keep the previous date, got %s", c.View().DateText)
	}
}

func TestEditCommit(t *testing.T) {
	ctx := context.Background()
	c, st := newController(t)
	if !c.Edit(ctx, 2) {
		t.Fatalf("expected edit draft")
	}
	v := c.View()
	if v.State != EditDraft || v.EditID != 2 || v.Title != "Edit Expense" || v.SubmitLabel != "Save Changes" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Name != "Rent" || v.AmountText != "250" || v.DateText != "2024-06-01" || !v.AmountValid {
		t.Fatalf("draft not populated from record: %+v", v)
	}

	_ = c.SetField(FieldAmount, "900.50")
	if got, _ := st.Get(2); got.Amount.String() != "250.00" {
		t.Fatalf("draft edits must not reach the store before commit")
	}

	res, err := c.Commit(ctx)
	if err != nil || res.Op != store.OpEdit || !res.Applied {
		t.Fatalf("commit: %+v %v", res, err)
	}
	got, _ := st.Get(2)
	if got.Name != "Rent" || got.Amount.String() != "900.50" || st.Len() != 2 {
		t.Fatalf("unexpected record after edit: %+v", got)
	}
	if first, _ := st.Get(1); first.Amount.String() != "250.00" {
		t.Fatalf("other records must be unchanged")
	}
}

func TestEditUnknownIDLeavesState(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	c.Open(ctx)
	_ = c.SetField(FieldName, "keep me")
	if c.Edit(ctx, 99) {
		t.Fatalf("edit of unknown id must report false")
	}
	if c.State() != AddDraft || c.Draft().Name != "keep me" {
		t.Fatalf("state changed on unknown id")
	}
}

func TestEditFromAddDraftSwitches(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	c.Open(ctx)
	_ = c.SetField(FieldName, "half typed")
	c.Edit(ctx, 1)
	if c.State() != EditDraft || c.Draft().Name != "Groceries" {
		t.Fatalf("edit should replace the add draft, got %v %+v", c.State(), c.Draft())
	}
}

func TestEditCommitAfterRecordDeleted(t *testing.T) {
	ctx := context.Background()
	c, st := newController(t)
	c.Edit(ctx, 1)
	st.Delete(ctx, 1)

	res, err := c.Commit(ctx)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Applied || st.Len() != 1 {
		t.Fatalf("edit of a vanished record must be a no-op: %+v", res)
	}
	if c.State() != Closed {
		t.Fatalf("form must close after commit")
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	c, st := newController(t)
	c.Edit(ctx, 1)
	_ = c.SetField(FieldName, "changed")
	c.Cancel(ctx)

	if c.State() != Closed {
		t.Fatalf("cancel must close the form")
	}
	if got, _ := st.Get(1); got.Name != "Groceries" {
		t.Fatalf("cancel must not touch the store")
	}
	if c.Draft().Name != "" {
		t.Fatalf("cancel must reset the draft")
	}
}

func TestClosedFormRejectsInput(t *testing.T) {
	ctx := context.Background()
	c, st := newController(t)
	if err := c.SetField(FieldName, "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := c.Commit(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if st.Len() != 2 {
		t.Fatalf("closed commit must not add")
	}

	c.Open(ctx)
	if err := c.SetField("colour", "red"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	if Closed.String() != "closed" || AddDraft.String() != "add" || EditDraft.String() != "edit" {
		t.Fatalf("unexpected state names")
	}
}
