package authcore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/softlock/authcore/biometric"
	"github.com/softlock/authcore/vault"
)

// errBiometricTimeout marks a prompt that the user never resolved within the
// configured timeout. It is an ordinary authentication failure, never a
// storage fault.
var errBiometricTimeout = failure(ErrInvalidCredentials, "Biometric prompt timed out")

// biometricGate owns the biometric binding and its attempt counter. At most
// one platform prompt is in flight at a time; a second concurrent
// Authenticate call is refused rather than invoking the platform twice.
type biometricGate struct {
	vault    vault.Vault
	prompter biometric.Prompter
	counter  *attemptCounter
	cfg      BiometricConfig
	now      func() time.Time

	// pinConfigured is injected so the gate can flag PIN fallback
	// availability on lockout without depending on the PIN component.
	pinConfigured func(ctx context.Context) (bool, error)

	promptBusy atomic.Bool
}

// Available reports whether the hardware supports biometrics and at least
// one biometric is enrolled.
func (g *biometricGate) Available(ctx context.Context) (bool, error) {
	supported, err := g.prompter.IsDeviceSupported(ctx)
	if err != nil || !supported {
		return false, err
	}
	enrolled, err := g.prompter.CanCheckBiometrics(ctx)
	if err != nil || !enrolled {
		return false, err
	}
	types, err := g.prompter.AvailableTypes(ctx)
	if err != nil {
		return false, err
	}
	return len(types) > 0, nil
}

// Binding reads the stored biometric binding, or a zero record when none
// exists.
func (g *biometricGate) Binding(ctx context.Context) (*BiometricBinding, error) {
	var b BiometricBinding
	if err := readRecord(ctx, g.vault, keyBiometricBinding, &b); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return &BiometricBinding{}, nil
		}
		return nil, err
	}
	return &b, nil
}

// Enable persists the binding. Requires availability; idempotent when called
// again with the same values.
func (g *biometricGate) Enable(ctx context.Context, email, token, userID, name string) error {
	available, err := g.Available(ctx)
	if err != nil {
		return err
	}
	if !available {
		return failure(ErrNotConfigured, "Biometric authentication is not available on this device")
	}

	return writeRecord(ctx, g.vault, keyBiometricBinding, &BiometricBinding{
		Enabled: true,
		Email:   email,
		Token:   token,
		UserID:  userID,
		Name:    name,
	})
}

// Disable clears the binding only. Calling it when already disabled is a
// no-op; it never touches the Credential Record.
func (g *biometricGate) Disable(ctx context.Context) error {
	return g.vault.Delete(ctx, keyBiometricBinding)
}

// Reset wipes the binding and the attempt counter. Used during sign-up of a
// new identity.
func (g *biometricGate) Reset(ctx context.Context) error {
	if err := g.vault.Delete(ctx, keyBiometricBinding); err != nil {
		return err
	}
	return g.counter.Reset(ctx)
}

// Authenticate runs one bounded platform prompt and returns the bound
// identity on success. Failures (mismatch, cancel, timeout) increment the
// attempt counter; exhausting the budget yields a [LockoutError] whose
// PINFallbackAvailable flag reflects whether a PIN record exists.
func (g *biometricGate) Authenticate(ctx context.Context) (*BiometricBinding, error) {
	if !g.promptBusy.CompareAndSwap(false, true) {
		return nil, ErrPromptInFlight
	}
	defer g.promptBusy.Store(false)

	binding, err := g.Binding(ctx)
	if err != nil {
		return nil, err
	}
	if !binding.Enabled {
		return nil, failure(ErrNotConfigured, "Biometric sign-in is not enabled")
	}

	// The budget may already be spent from a previous call; never invoke
	// the platform in that case.
	exhausted, err := g.counter.Exhausted(ctx)
	if err != nil {
		return nil, err
	}
	if exhausted {
		return nil, g.lockoutError(ctx)
	}

	ok, promptErr := g.prompt(ctx)
	if promptErr == nil && ok {
		if err := g.counter.Reset(ctx); err != nil {
			return nil, err
		}
		return binding, nil
	}

	nowExhausted, err := g.counter.RecordFailure(ctx)
	if err != nil {
		return nil, err
	}
	if nowExhausted {
		return nil, g.lockoutError(ctx)
	}
	if promptErr != nil {
		return nil, promptErr
	}
	return nil, failure(ErrInvalidCredentials, "Biometric authentication failed")
}

// prompt invokes the platform exactly once, bounded by the configured
// timeout. The timeout is the only cancellation mechanism; there is no
// caller-supplied cancellation token.
func (g *biometricGate) prompt(ctx context.Context) (bool, error) {
	promptCtx, cancel := context.WithTimeout(ctx, g.cfg.PromptTimeout)
	defer cancel()

	ok, err := g.prompter.Authenticate(promptCtx, g.cfg.Reason, biometric.PromptOptions{
		BiometricOnly: g.cfg.BiometricOnly,
		StickyAuth:    g.cfg.StickyAuth,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Best effort; the prompt may already be gone.
			_ = g.prompter.StopAuthentication(context.WithoutCancel(ctx))
			return false, errBiometricTimeout
		}
		// Platform faults count as ordinary failures.
		return false, failure(ErrInvalidCredentials, "Biometric authentication failed")
	}
	return ok, nil
}

func (g *biometricGate) lockoutError(ctx context.Context) error {
	windowEnd, err := g.counter.WindowEnd(ctx)
	if err != nil {
		return err
	}

	pinAvailable := false
	if g.pinConfigured != nil {
		if available, err := g.pinConfigured(ctx); err == nil {
			pinAvailable = available
		}
	}

	return &LockoutError{
		Factor:               FactorBiometric,
		AttemptsRemaining:    0,
		UnlockAt:             windowEnd,
		PINFallbackAvailable: pinAvailable,
	}
}
