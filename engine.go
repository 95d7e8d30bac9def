package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/softlock/authcore/backend"
	"github.com/softlock/authcore/vault"
)

// Engine is the authentication orchestrator. It owns the Credential Record
// and composes the factor chain (password, biometric, PIN) with the
// lifecycle lockout controller. All persisted state lives behind the vault;
// the engine itself is stateless apart from its single-flight prompt guard,
// so it can be rebuilt at process start and re-derive session state.
type Engine struct {
	config  Config
	vault   vault.Vault
	backend backend.IdentityBackend
	creds   *credentialStore
	gate    *biometricGate
	pin     *pinFallback
	device  *deviceIdentity
	lockout *LockoutController
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time
}

// SessionState derives the current session state from persisted records.
// Fails closed: any storage fault reports SignedOut alongside the error.
func (e *Engine) SessionState(ctx context.Context) (SessionState, error) {
	creds, err := e.creds.Read(ctx)
	if err != nil {
		return SignedOut, e.storageErr(err)
	}
	if !creds.LoggedIn {
		return SignedOut, nil
	}

	lock, err := e.lockout.read(ctx)
	if err != nil {
		return SignedOut, e.storageErr(err)
	}
	if lock.IsLocked && lock.WasAuthenticated {
		return Locked, nil
	}
	return SignedIn, nil
}

// Credentials returns a copy of the stored Credential Record. Empty record
// when signed out.
func (e *Engine) Credentials(ctx context.Context) (*Credentials, error) {
	return e.creds.Read(ctx)
}

// DeviceID returns this installation's stable device identifier, minting
// and persisting one on first use.
func (e *Engine) DeviceID(ctx context.Context) (string, error) {
	return e.device.ID(ctx)
}

// Metrics exposes the engine's counters. Nil-safe no-op when disabled.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Wipe clears every key in the vault: session, bindings, PIN, counters, and
// device identity. For sign-out-and-forget and debug resets.
func (e *Engine) Wipe(ctx context.Context) error {
	if err := e.vault.Clear(ctx); err != nil {
		return e.storageErr(err)
	}
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventSignOut,
		Success:   true,
		Metadata:  map[string]string{"wipe": "full"},
	})
	return nil
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e.audit != nil {
		e.audit.Close()
	}
}

// storageErr counts a vault fault on its way out. The error itself is
// returned unchanged.
func (e *Engine) storageErr(err error) error {
	if errors.Is(err, ErrStorage) {
		e.metricInc(MetricStorageFault)
	}
	return err
}

func (e *Engine) metricInc(id MetricID) {
	if e.metrics != nil {
		e.metrics.Inc(id)
	}
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	e.audit.Emit(ctx, event)
}
