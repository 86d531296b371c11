// Package storage defines the durable key-to-string slot the cart is
// persisted into. The slot holds one full-state snapshot per key; it is not
// an append log.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no value exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// Slot is a durable key→string store surviving process restarts on the same
// device. Read, Write, and Delete are the only operations the cart's
// persistence adapter requires of the medium.
type Slot interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
