// Package vault defines the encrypted key-value store the engine persists
// all durable state through, plus the adapters shipped with the module.
//
// Single-key Get/Set/Delete are atomic. There is no cross-key transaction:
// callers that need a multi-field record written atomically must encode it
// as one value under one key.
//
// Adapters normalize every backend fault into [ErrStorage] so orchestration
// code above this boundary sees exactly one storage error kind and can fail
// closed on it.
package vault

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("vault key not found")
	// ErrStorage wraps any backend I/O fault. Callers must treat it as
	// unrecoverable for the current operation and fail closed.
	ErrStorage = errors.New("vault storage fault")
)

// Vault is the opaque encrypted key-value capability.
type Vault interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear wipes every key. Used for sign-out-and-forget and debug resets.
	Clear(ctx context.Context) error
}
