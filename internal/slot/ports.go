package slot

import (
	"context"
	"errors"
)

// DefaultKey names the slot holding the serialized expense list.
const DefaultKey = "expenses"

// ErrEmptyKey is returned by backends asked for a slot without a name.
var ErrEmptyKey = errors.New("empty slot key")

// Ports for durable key-value storage.
type (
	Reader interface {
		// Read returns the slot content; ok is false when the slot was never written.
		Read(ctx context.Context, key string) (value []byte, ok bool, err error)
	}

	Writer interface {
		// Write replaces the whole slot content.
		Write(ctx context.Context, key string, value []byte) error
	}

	// Slot is a single-writer key-value store such as browser local storage.
	Slot interface {
		Reader
		Writer
	}
)
