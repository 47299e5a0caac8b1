package amqp

import (
	"context"
	"sync"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/store"
)

const (
	forwardQueueSize = 256
	forwardTimeout   = 2 * time.Second
)

// Publisher is the part of Client used by the store hook.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

// Forwarder publishes store changes from a single goroutine, so a slow or
// unreachable broker never holds up a mutation. Events keep mutation order.
// When the queue is full new events are dropped and logged.
type Forwarder struct {
	p      Publisher
	logger *log.Logger
	queue  chan *ChangeMessage
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

// Attach publishes a change event for every store mutation. Publish errors
// are logged and never reach the caller of the mutation. Close the returned
// Forwarder to flush pending events.
func Attach(st *store.Store, p Publisher, logger *log.Logger) *Forwarder {
	if logger == nil {
		logger = log.Discard()
	}
	f := &Forwarder{
		p:      p,
		logger: logger.WithComponent(log.ComponentAMQP),
		queue:  make(chan *ChangeMessage, forwardQueueSize),
		done:   make(chan struct{}),
	}
	go f.run()
	st.OnChange(f.enqueue)
	return f
}

func (f *Forwarder) enqueue(ctx context.Context, c store.Change) {
	msg := NewChangeMessage(c.Op, c.Expense)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.logger.DebugContext(ctx, "Forwarder closed, change event dropped", log.FieldExpenseID, c.Expense.ID)
		return
	}
	select {
	case f.queue <- msg:
	default:
		f.logger.WarnContext(ctx, "Change event queue full, event dropped",
			log.FieldExpenseID, c.Expense.ID,
			log.FieldOperation, log.OpPublish)
	}
}

func (f *Forwarder) run() {
	defer close(f.done)
	for msg := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
		err := f.p.PublishChange(ctx, msg)
		cancel()
		if err != nil {
			f.logger.Warn("Failed to publish change event",
				log.FieldExpenseID, msg.ID,
				log.FieldOperation, log.OpPublish,
				log.FieldError, err)
		}
	}
}

// Close stops accepting events and waits until the queued ones have been
// handed to the publisher. It is safe to call more than once.
func (f *Forwarder) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	<-f.done
}
