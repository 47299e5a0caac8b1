// Package form manages the add/edit modal: a transient draft that only
// reaches the store on commit.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/store"
)

// State of the modal.
type State int

const (
	Closed State = iota
	AddDraft
	EditDraft
)

func (s State) String() string {
	switch s {
	case AddDraft:
		return "add"
	case EditDraft:
		return "edit"
	default:
		return "closed"
	}
}

// Field names a draft input.
type Field string

const (
	FieldName   Field = "name"
	FieldAmount Field = "amount"
	FieldDate   Field = "date"
)

var (
	ErrClosed       = errors.New("form is closed")
	ErrUnknownField = errors.New("unknown field")
)

// Draft holds the uncommitted modal values. AmountText is what the user
// typed; Amount is its parsed form, Invalid until the text is a number.
type Draft struct {
	Name       string
	AmountText string
	Amount     core.Amount
	Date       core.Date
}

// Store is what the controller commits into.
type Store interface {
	Add(ctx context.Context, name string, amount core.Amount, date core.Date) core.Expense
	Edit(ctx context.Context, id int, p core.Patch) bool
	Get(id int) (core.Expense, bool)
}

// Result reports what a commit did.
type Result struct {
	Op      store.Op
	Expense core.Expense
	// Applied is false when an edit targeted a record that no longer exists.
	Applied bool
}

// View is the read model used to render the modal.
type View struct {
	Open        bool
	State       State
	EditID      int
	Title       string
	SubmitLabel string
	Name        string
	AmountText  string
	AmountValid bool
	DateText    string
}

type Controller struct {
	mu     sync.Mutex
	store  Store
	state  State
	editID int
	draft  Draft
	today  func() core.Date
	logger *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the source of "today" used for new drafts.
func WithClock(today func() core.Date) Option {
	return func(c *Controller) {
		if today != nil {
			c.today = today
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentForm)
		}
	}
}

func New(st Store, opts ...Option) *Controller {
	c := &Controller{
		store:  st,
		today:  core.Today,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.draft = c.emptyDraft()
	return c
}

func (c *Controller) emptyDraft() Draft {
	return Draft{Amount: core.InvalidAmount(), Date: c.today()}
}

func (c *Controller) reset() {
	c.state = Closed
	c.editID = 0
	c.draft = c.emptyDraft()
}

// Open starts a new record: the draft is reset to an empty name, empty
// amount and today's date.
func (c *Controller) Open(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.state = AddDraft
	c.logger.DebugContext(ctx, "Add draft opened", log.FieldFormState, c.state.String())
}

// Edit loads the record with the given id into the draft. It reports false,
// leaving the form as it was, when the id is unknown.
func (c *Controller) Edit(ctx context.Context, id int) bool {
	e, ok := c.store.Get(id)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = EditDraft
	c.editID = id
	c.draft = Draft{
		Name:       e.Name,
		AmountText: e.Amount.Text(),
		Amount:     e.Amount,
		Date:       e.Date,
	}
	c.logger.DebugContext(ctx, "Edit draft opened", log.FieldFormState, c.state.String(), log.FieldExpenseID, id)
	return true
}

// SetField updates one draft field from its input text. Amount text is
// parsed on every call; date text that does not parse keeps the previous date.
func (c *Controller) SetField(field Field, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	switch field {
	case FieldName:
		c.draft.Name = text
	case FieldAmount:
		c.draft.AmountText = text
		c.draft.Amount = core.ParseAmount(text)
	case FieldDate:
		if d, err := core.ParseDate(text); err == nil {
			c.draft.Date = d
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Cancel discards the draft without side effects.
func (c *Controller) Cancel(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Closed {
		c.logger.DebugContext(ctx, "Draft discarded", log.FieldFormState, c.state.String(), log.FieldOperation, log.OpCancel)
	}
	c.reset()
}

// Commit copies the draft into the store (add or edit) and closes the form.
// Committing a closed form returns ErrClosed and changes nothing.
func (c *Controller) Commit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	state, id, d := c.state, c.editID, c.draft
	if state == Closed {
		c.mu.Unlock()
		return Result{}, ErrClosed
	}
	c.reset()
	c.mu.Unlock()

	var res Result
	switch state {
	case AddDraft:
		e := c.store.Add(ctx, d.Name, d.Amount, d.Date)
		res = Result{Op: store.OpAdd, Expense: e, Applied: true}
	case EditDraft:
		p := core.Patch{Name: d.Name, Amount: d.Amount, Date: d.Date}
		applied := c.store.Edit(ctx, id, p)
		res = Result{Op: store.OpEdit, Expense: core.Expense{ID: id}.Apply(p), Applied: applied}
	}

	c.logger.DebugContext(ctx, "Draft committed",
		log.NewFields().
			WithExpense(res.Expense.ID, res.Expense.Name, res.Expense.Amount.String(), res.Expense.Date.String()).
			WithOperation(log.OpCommit).
			ToSlice()...)
	return res, nil
}

// State returns the current modal state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// View returns the modal read model.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Open:        c.state != Closed,
		State:       c.state,
		EditID:      c.editID,
		Title:       "Add Expense",
		SubmitLabel: "Add Expense",
		Name:        c.draft.Name,
		AmountText:  c.draft.AmountText,
		AmountValid: c.draft.Amount.IsValid(),
		DateText:    c.draft.Date.String(),
	}
	if c.state == EditDraft {
		v.Title = "Edit Expense"
		v.SubmitLabel = "Save Changes"
	}
	return v
}
