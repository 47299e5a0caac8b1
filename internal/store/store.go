// Package store holds the ordered list of expenses for the lifetime of the
// process and exposes the CRUD operations over it.
package store

import (
	"context"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// IDPolicy decides how Add picks the id of a new record.
type IDPolicy string

const (
	// IDMaxPlusOne assigns one more than the highest id currently held.
	IDMaxPlusOne IDPolicy = "max"
	// IDByLength assigns len(list)+1. After a delete from the middle of the
	// list this can hand out an id that is still in use.
	IDByLength IDPolicy = "length"
)

// IsValid returns true if the policy is known
func (p IDPolicy) IsValid() bool {
	switch p {
	case IDMaxPlusOne, IDByLength:
		return true
	default:
		return false
	}
}

// Op names the mutation carried by a Change.
type Op string

const (
	OpAdd    Op = "add"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

// Change describes one applied mutation. Snapshot is the full list after it.
type Change struct {
	Op       Op
	Expense  core.Expense
	Snapshot []core.Expense
}

// Observer is called after every applied mutation, in mutation order.
type Observer func(ctx context.Context, c Change)

type Store struct {
	mu     sync.RWMutex
	items  []core.Expense
	policy IDPolicy
	logger *log.Logger

	// held across a mutation and its notifications so observers see
	// snapshots in the order the mutations happened
	notifyMu  sync.Mutex
	observers []Observer
}

// Option configures a Store.
type Option func(*Store)

// WithIDPolicy selects the id assignment policy.
func WithIDPolicy(p IDPolicy) Option {
	return func(s *Store) {
		if p.IsValid() {
			s.policy = p
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentStore)
		}
	}
}

// New returns a store holding a copy of items.
func New(items []core.Expense, opts ...Option) *Store {
	s := &Store{
		items:  clone(items),
		policy: IDMaxPlusOne,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers an observer.
func (s *Store) OnChange(o Observer) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.observers = append(s.observers, o)
}

// Policy returns the id policy in use.
func (s *Store) Policy() IDPolicy {
	return s.policy
}

// Add appends a new record and returns it. It never fails: an invalid amount
// is kept as core.InvalidAmount.
func (s *Store) Add(ctx context.Context, name string, amount core.Amount, date core.Date) core.Expense {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	e := core.Expense{
		ID:     s.nextID(),
		Name:   name,
		Amount: amount,
		Date:   date,
	}
	s.items = append(s.items, e)
	snap := clone(s.items)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Expense added",
		log.NewFields().WithExpense(e.ID, e.Name, e.Amount.String(), e.Date.String()).WithOperation(log.OpCreate).ToSlice()...)
	s.notify(ctx, Change{Op: OpAdd, Expense: e, Snapshot: snap})
	return e
}

// Edit replaces name, amount and date of the first record with the given id.
// It reports false, and changes nothing, when no record matches.
func (s *Store) Edit(ctx context.Context, id int, p core.Patch) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Edit ignored, no such expense", log.FieldExpenseID, id)
		return false
	}
	s.items[i] = s.items[i].Apply(p)
	e := s.items[i]
	snap := clone(s.items)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Expense edited",
		log.NewFields().WithExpense(e.ID, e.Name, e.Amount.String(), e.Date.String()).WithOperation(log.OpUpdate).ToSlice()...)
	s.notify(ctx, Change{Op: OpEdit, Expense: e, Snapshot: snap})
	return true
}

// Delete removes the first record with the given id, keeping the relative
// order of the rest. It reports false when no record matches.
func (s *Store) Delete(ctx context.Context, id int) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Delete ignored, no such expense", log.FieldExpenseID, id)
		return false
	}
	e := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	snap := clone(s.items)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	s.notify(ctx, Change{Op: OpDelete, Expense: e, Snapshot: snap})
	return true
}

// Total sums all amounts; invalid amounts count as zero.
func (s *Store) Total() core.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Sum(s.items)
}

// List returns a copy of the records in insertion order.
func (s *Store) List() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

// Get returns the first record with the given id.
func (s *Store) Get(id int) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Expense{}, false
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) nextID() int {
	if s.policy == IDByLength {
		return len(s.items) + 1
	}
	max := 0
	for _, e := range s.items {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

func (s *Store) indexOf(id int) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify(ctx context.Context, c Change) {
	for _, o := range s.observers {
		o(ctx, c)
	}
}

func clone(items []core.Expense) []core.Expense {
	out := make([]core.Expense, len(items))
	copy(out, items)
	return out
}
