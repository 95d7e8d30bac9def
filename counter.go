package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/softlock/authcore/vault"
)

// attemptRecord is the persisted failure counter for one factor. ResetAt is
// when the streak becomes eligible for reset; it is set on the first failure
// of a streak and evaluated lazily on every read, never by a timer.
type attemptRecord struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// attemptCounter tracks consecutive failures for one factor with a lazy
// time-window reset. Counts reset strictly after the window elapses, never
// early. Increments are not protected against concurrent callers; the
// invoking layer is expected to serialize attempts for one factor.
type attemptCounter struct {
	vault  vault.Vault
	key    string
	max    int
	window time.Duration
	now    func() time.Time
}

// read returns the current record, applying (and persisting) the lazy reset
// when the window has elapsed.
func (c *attemptCounter) read(ctx context.Context) (attemptRecord, error) {
	var rec attemptRecord
	if err := readRecord(ctx, c.vault, c.key, &rec); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return attemptRecord{}, nil
		}
		return attemptRecord{}, err
	}

	if rec.Count > 0 && !rec.ResetAt.IsZero() && c.now().After(rec.ResetAt) {
		if err := c.vault.Delete(ctx, c.key); err != nil {
			return attemptRecord{}, err
		}
		return attemptRecord{}, nil
	}
	return rec, nil
}

// Exhausted reports whether the failure budget is spent within the active
// window.
func (c *attemptCounter) Exhausted(ctx context.Context) (bool, error) {
	rec, err := c.read(ctx)
	if err != nil {
		return false, err
	}
	return rec.Count >= c.max, nil
}

// Remaining reports how many failures are left before lockout.
func (c *attemptCounter) Remaining(ctx context.Context) (int, error) {
	rec, err := c.read(ctx)
	if err != nil {
		return 0, err
	}
	remaining := c.max - rec.Count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// WindowEnd reports when the active streak resets. Zero when no streak.
func (c *attemptCounter) WindowEnd(ctx context.Context) (time.Time, error) {
	rec, err := c.read(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return rec.ResetAt, nil
}

// RecordFailure increments the counter, starting the reset window on the
// first failure of a streak. It reports whether the budget is now exhausted.
func (c *attemptCounter) RecordFailure(ctx context.Context) (exhausted bool, err error) {
	rec, err := c.read(ctx)
	if err != nil {
		return false, err
	}

	rec.Count++
	if rec.Count == 1 {
		rec.ResetAt = c.now().Add(c.window)
	}

	if err := writeRecord(ctx, c.vault, c.key, rec); err != nil {
		return false, err
	}
	return rec.Count >= c.max, nil
}

// Reset clears the counter and its window.
func (c *attemptCounter) Reset(ctx context.Context) error {
	return c.vault.Delete(ctx, c.key)
}
