package authcore

import (
	"context"
	"errors"
	"time"
)

// ConfigurePIN hashes and stores the fallback PIN for this device,
// replacing any previous one and clearing accumulated failures.
func (e *Engine) ConfigurePIN(ctx context.Context, pin string) error {
	if err := e.pin.Configure(ctx, pin); err != nil {
		return err
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventPINConfigured,
		Factor:    string(FactorPIN),
		Success:   true,
	})
	return nil
}

// PINConfigured reports whether a PIN exists on this device.
func (e *Engine) PINConfigured(ctx context.Context) (bool, error) {
	return e.pin.IsConfigured(ctx)
}

// PINLocked reports whether the PIN is currently locked out.
func (e *Engine) PINLocked(ctx context.Context) (bool, error) {
	return e.pin.IsLocked(ctx)
}

// PINRemainingAttempts reports how many failures are left before the PIN
// locks.
func (e *Engine) PINRemainingAttempts(ctx context.Context) (int, error) {
	return e.pin.RemainingAttempts(ctx)
}

// PINLockoutRemaining reports how long until the PIN lock expires; zero
// when not locked.
func (e *Engine) PINLockoutRemaining(ctx context.Context) (time.Duration, error) {
	return e.pin.LockoutRemaining(ctx)
}

// SignInWithPIN verifies the PIN and, on a match, resurrects the session
// from the stored Credential Record. No backend round trip is made.
func (e *Engine) SignInWithPIN(ctx context.Context, pin string) (*Identity, error) {
	identity, err := e.pin.Verify(ctx, pin)
	if err != nil {
		e.recordPINFailure(ctx, err)
		return nil, err
	}

	creds, err := e.creds.Read(ctx)
	if err != nil {
		return nil, err
	}
	creds.LoggedIn = true
	if err := e.creds.Write(ctx, creds); err != nil {
		return nil, err
	}

	e.metricInc(MetricPINSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventPINSuccess,
		UserID:    identity.UserID,
		Factor:    string(FactorPIN),
		Success:   true,
	})
	return identity, nil
}

func (e *Engine) recordPINFailure(ctx context.Context, err error) {
	if errors.Is(err, ErrStorage) {
		return
	}

	var lo *LockoutError
	if errors.As(err, &lo) {
		e.metricInc(MetricPINLockout)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventPINLockout,
			Factor:    string(FactorPIN),
			Error:     UserMessage(err),
		})
		return
	}
	if errors.Is(err, ErrInvalidCredentials) {
		e.metricInc(MetricPINFailure)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventPINFailure,
		Factor:    string(FactorPIN),
		Error:     UserMessage(err),
	})
}
