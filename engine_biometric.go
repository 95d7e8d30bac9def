package authcore

import (
	"context"
	"errors"
)

// BiometricAvailable reports whether the device supports biometrics and has
// at least one enrolled.
func (e *Engine) BiometricAvailable(ctx context.Context) (bool, error) {
	return e.gate.Available(ctx)
}

// BiometricEnabled reports whether a biometric binding exists on this
// device.
func (e *Engine) BiometricEnabled(ctx context.Context) (bool, error) {
	binding, err := e.gate.Binding(ctx)
	if err != nil {
		return false, err
	}
	return binding.Enabled, nil
}

// EnableBiometric binds the biometric shortcut to the currently signed-in
// identity. Requires an active password-established session; the bound
// values are taken from the Credential Record as stored.
func (e *Engine) EnableBiometric(ctx context.Context) error {
	creds, err := e.creds.Read(ctx)
	if err != nil {
		return err
	}
	if !creds.LoggedIn || creds.UserID == "" {
		return failure(ErrNotAuthenticated, "Please sign in before enabling biometric authentication")
	}

	if err := e.gate.Enable(ctx, creds.Email, creds.AccessToken, creds.UserID, creds.Name); err != nil {
		return err
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventBiometricEnabled,
		UserID:    creds.UserID,
		Factor:    string(FactorBiometric),
		Success:   true,
	})
	return nil
}

// DisableBiometric removes the binding. Idempotent; the active session is
// untouched.
func (e *Engine) DisableBiometric(ctx context.Context) error {
	if err := e.gate.Disable(ctx); err != nil {
		return err
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventBiometricDisabled,
		Factor:    string(FactorBiometric),
		Success:   true,
	})
	return nil
}

// SignInWithBiometric runs one biometric prompt and, on success, adopts the
// bound identity into the Credential Record exactly as it was stored at
// enable time. No backend round trip is made; token freshness is the
// caller's concern via [Engine.RefreshToken].
func (e *Engine) SignInWithBiometric(ctx context.Context) (*Identity, error) {
	binding, err := e.gate.Authenticate(ctx)
	if err != nil {
		e.recordBiometricFailure(ctx, err)
		return nil, err
	}

	creds, err := e.creds.Read(ctx)
	if err != nil {
		return nil, err
	}
	creds.Email = binding.Email
	creds.Name = binding.Name
	creds.UserID = binding.UserID
	creds.AccessToken = binding.Token
	creds.LoggedIn = true
	if err := e.creds.Write(ctx, creds); err != nil {
		return nil, err
	}

	e.metricInc(MetricBiometricSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventBiometricSuccess,
		UserID:    creds.UserID,
		Factor:    string(FactorBiometric),
		Success:   true,
	})
	return creds.Identity(), nil
}

func (e *Engine) recordBiometricFailure(ctx context.Context, err error) {
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrPromptInFlight) {
		return
	}

	var lo *LockoutError
	switch {
	case errors.As(err, &lo):
		e.metricInc(MetricBiometricLockout)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventBiometricLockout,
			Factor:    string(FactorBiometric),
			Error:     UserMessage(err),
		})
	case errors.Is(err, errBiometricTimeout):
		e.metricInc(MetricBiometricTimeout)
		e.metricInc(MetricBiometricFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventBiometricFailure,
			Factor:    string(FactorBiometric),
			Error:     UserMessage(err),
		})
	default:
		e.metricInc(MetricBiometricFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventBiometricFailure,
			Factor:    string(FactorBiometric),
			Error:     UserMessage(err),
		})
	}
}
