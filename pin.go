package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/softlock/authcore/password"
	"github.com/softlock/authcore/vault"
)

// pinRecord is the persisted PIN state: the hash plus the failure counter
// and lock deadline, written together as one document.
type pinRecord struct {
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	LockUntil time.Time `json:"lock_until"`
}

// pinFallback is the second-chance factor behind the biometric gate. It
// never talks to the identity backend; a correct PIN resurrects the session
// from the stored Credential Record.
type pinFallback struct {
	vault  vault.Vault
	hasher *password.Hasher
	creds  *credentialStore
	cfg    PINConfig
	now    func() time.Time
}

func (p *pinFallback) read(ctx context.Context) (*pinRecord, error) {
	var rec pinRecord
	if err := readRecord(ctx, p.vault, keyPIN, &rec); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return &pinRecord{}, nil
		}
		return nil, err
	}

	// An expired lock grants a fresh budget. Applied lazily; persisted on
	// the next write.
	if !rec.LockUntil.IsZero() && p.now().After(rec.LockUntil) {
		rec.Attempts = 0
		rec.LockUntil = time.Time{}
	}
	return &rec, nil
}

// Configure hashes and stores the PIN, replacing any previous one and
// clearing any accumulated failures or lock.
func (p *pinFallback) Configure(ctx context.Context, pin string) error {
	if len(pin) < p.cfg.MinLength {
		return failure(ErrValidation, "PIN is too short")
	}

	hash, err := p.hasher.Hash(pin)
	if err != nil {
		return err
	}
	return writeRecord(ctx, p.vault, keyPIN, &pinRecord{Hash: hash})
}

// IsConfigured reports whether a PIN record exists.
func (p *pinFallback) IsConfigured(ctx context.Context) (bool, error) {
	rec, err := p.read(ctx)
	if err != nil {
		return false, err
	}
	return rec.Hash != "", nil
}

// IsLocked reports whether the PIN is currently locked. Pure read.
func (p *pinFallback) IsLocked(ctx context.Context) (bool, error) {
	rec, err := p.read(ctx)
	if err != nil {
		return false, err
	}
	return !rec.LockUntil.IsZero() && p.now().Before(rec.LockUntil), nil
}

// RemainingAttempts reports how many failures are left before lockout. Pure
// read.
func (p *pinFallback) RemainingAttempts(ctx context.Context) (int, error) {
	rec, err := p.read(ctx)
	if err != nil {
		return 0, err
	}
	remaining := p.cfg.MaxAttempts - rec.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// LockoutRemaining reports how long until the lock expires; zero when not
// locked. Pure read.
func (p *pinFallback) LockoutRemaining(ctx context.Context) (time.Duration, error) {
	rec, err := p.read(ctx)
	if err != nil {
		return 0, err
	}
	if rec.LockUntil.IsZero() {
		return 0, nil
	}
	remaining := rec.LockUntil.Sub(p.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Verify checks the PIN and returns the stored identity on a match. The
// final allowed failure locks the PIN in the same call, so the caller sees
// the lockout immediately rather than on the next attempt.
func (p *pinFallback) Verify(ctx context.Context, pin string) (*Identity, error) {
	rec, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	if rec.Hash == "" {
		return nil, failure(ErrNotConfigured, "PIN is not set up")
	}
	if !rec.LockUntil.IsZero() && p.now().Before(rec.LockUntil) {
		return nil, &LockoutError{Factor: FactorPIN, UnlockAt: rec.LockUntil}
	}

	match, err := p.hasher.Verify(pin, rec.Hash)
	if err != nil {
		return nil, err
	}
	if !match {
		rec.Attempts++
		if rec.Attempts >= p.cfg.MaxAttempts {
			rec.LockUntil = p.now().Add(p.cfg.LockoutDuration)
			if err := writeRecord(ctx, p.vault, keyPIN, rec); err != nil {
				return nil, err
			}
			return nil, &LockoutError{Factor: FactorPIN, UnlockAt: rec.LockUntil}
		}
		if err := writeRecord(ctx, p.vault, keyPIN, rec); err != nil {
			return nil, err
		}
		return nil, failure(ErrInvalidCredentials, "Incorrect PIN")
	}

	rec.Attempts = 0
	rec.LockUntil = time.Time{}
	if err := writeRecord(ctx, p.vault, keyPIN, rec); err != nil {
		return nil, err
	}

	stored, err := p.creds.Read(ctx)
	if err != nil {
		return nil, err
	}
	if stored.UserID == "" {
		return nil, failure(ErrNotAuthenticated, "Please sign in with your password first")
	}
	return stored.Identity(), nil
}

// Reset wipes the PIN record. Used during sign-up of a new identity.
func (p *pinFallback) Reset(ctx context.Context) error {
	return p.vault.Delete(ctx, keyPIN)
}
