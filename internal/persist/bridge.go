// Package persist keeps the store and its durable slot in sync: it loads the
// list (or the seed records) at startup and rewrites the whole slot after
// every change.
package persist

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/slot"
	"expensetracker/internal/store"
)

// Source tells where a loaded list came from.
type Source string

const (
	SourceSlot    Source = "slot"
	SourceSeed    Source = "seed"
	SourceCorrupt Source = "seed_after_corrupt_slot"
)

type Options struct {
	// Key names the slot; defaults to slot.DefaultKey.
	Key string
	// PersistEmpty writes "[]" when the list becomes empty. When false the
	// slot keeps its previous content and the next start reloads it.
	PersistEmpty bool
	// Backend is only used to label log lines.
	Backend string
	Logger  *log.Logger
}

type Bridge struct {
	slot         slot.Slot
	key          string
	persistEmpty bool
	backend      string
	logger       *log.Logger
}

func NewBridge(s slot.Slot, opts Options) *Bridge {
	key := opts.Key
	if key == "" {
		key = slot.DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Bridge{
		slot:         s,
		key:          key,
		persistEmpty: opts.PersistEmpty,
		backend:      opts.Backend,
		logger:       logger.WithComponent(log.ComponentPersist),
	}
}

// Key returns the slot name.
func (b *Bridge) Key() string {
	return b.key
}

// Load reads the slot. An absent slot yields the seed records; content that
// does not decode is logged and also replaced by the seeds. Only a failing
// read is returned as an error.
func (b *Bridge) Load(ctx context.Context) ([]core.Expense, Source, error) {
	raw, ok, err := b.slot.Read(ctx, b.key)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", b.key, err)
	}
	if !ok {
		b.logger.InfoContext(ctx, "No stored expenses, using seed list",
			log.NewFields().WithSlot(b.backend, b.key).WithOperation(log.OpSeed).ToSlice()...)
		return Seeds(), SourceSeed, nil
	}

	items, err := Decode(raw)
	if err != nil {
		b.logger.WarnContext(ctx, "Stored expenses are corrupt, using seed list",
			log.NewFields().WithSlot(b.backend, b.key).WithOperation(log.OpLoad).WithError(err).ToSlice()...)
		return Seeds(), SourceCorrupt, nil
	}

	b.logger.InfoContext(ctx, "Loaded stored expenses",
		log.NewFields().WithSlot(b.backend, b.key).WithOperation(log.OpLoad).ToSlice()...)
	return items, SourceSlot, nil
}

// Save overwrites the slot with the full list.
func (b *Bridge) Save(ctx context.Context, items []core.Expense) error {
	if len(items) == 0 && !b.persistEmpty {
		b.logger.DebugContext(ctx, "List empty, slot left untouched", log.FieldSlotKey, b.key)
		return nil
	}
	raw, err := Encode(items)
	if err != nil {
		return err
	}
	if err := b.slot.Write(ctx, b.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", b.key, err)
	}
	b.logger.DebugContext(ctx, "Expenses saved",
		log.FieldSlotKey, b.key, log.FieldCount, len(items), log.FieldOperation, log.OpSave)
	return nil
}

// Attach makes the bridge save the store after every change. Save failures
// are logged; the in-memory list stays authoritative. The save outlives the
// caller's context: the mutation has already happened, so a cancelled
// request must not keep it out of the slot.
func (b *Bridge) Attach(st *store.Store) {
	st.OnChange(func(ctx context.Context, c store.Change) {
		if err := b.Save(context.WithoutCancel(ctx), c.Snapshot); err != nil {
			b.logger.ErrorContext(ctx, "Failed to save expenses",
				log.NewFields().WithSlot(b.backend, b.key).WithOperation(log.OpSave).WithError(err).ToSlice()...)
		}
	})
}

// Open loads the list, builds a store around it and attaches the bridge.
func Open(ctx context.Context, b *Bridge, opts ...store.Option) (*store.Store, Source, error) {
	if b == nil {
		return nil, "", errors.New("nil bridge")
	}
	items, src, err := b.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	st := store.New(items, opts...)
	b.Attach(st)
	return st, src, nil
}
