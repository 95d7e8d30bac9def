package authcore

import (
	"context"
	"errors"
	"log"

	"github.com/softlock/authcore/lifecycle"
	"github.com/softlock/authcore/vault"
)

// LockoutController translates lifecycle transitions into the persisted
// session lock. The lock is written synchronously on backgrounding so it is
// durable before the process can be suspended. When the write happens is
// best effort: a process killed mid-transition may miss it, and the next
// launch then resumes the session unlocked.
type LockoutController struct {
	engine *Engine
}

// Lockout returns the engine's lifecycle lockout controller.
func (e *Engine) Lockout() *LockoutController { return e.lockout }

func (c *LockoutController) read(ctx context.Context) (*LockoutState, error) {
	var st LockoutState
	if err := readRecord(ctx, c.engine.vault, keyLockout, &st); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return &LockoutState{}, nil
		}
		return nil, err
	}
	return &st, nil
}

func (c *LockoutController) write(ctx context.Context, st *LockoutState) error {
	return writeRecord(ctx, c.engine.vault, keyLockout, st)
}

func (c *LockoutController) clear(ctx context.Context) error {
	return c.engine.vault.Delete(ctx, keyLockout)
}

// IsLocked re-reads the persisted lock. A storage fault reads as locked:
// when the lock state cannot be determined the session must not be treated
// as open.
func (c *LockoutController) IsLocked(ctx context.Context) (bool, error) {
	st, err := c.read(ctx)
	if err != nil {
		return true, err
	}
	return st.IsLocked && st.WasAuthenticated, nil
}

// HandleLifecycle applies one lifecycle transition. Paused and Detached lock
// an authenticated session; Resumed re-reads the persisted state without
// mutating it; Inactive and Hidden are deliberate no-ops (they fire for
// dialogs, notification shades, and split-screen, where locking would be
// hostile).
func (c *LockoutController) HandleLifecycle(ctx context.Context, state lifecycle.State) error {
	switch state {
	case lifecycle.Paused, lifecycle.Detached:
		return c.lockIfAuthenticated(ctx)
	case lifecycle.Resumed:
		_, err := c.IsLocked(ctx)
		return err
	case lifecycle.Inactive, lifecycle.Hidden:
		return nil
	default:
		return failure(ErrValidation, "unknown lifecycle state")
	}
}

func (c *LockoutController) lockIfAuthenticated(ctx context.Context) error {
	state, err := c.engine.SessionState(ctx)
	if err != nil {
		return err
	}
	if state != SignedIn {
		return nil
	}

	if err := c.write(ctx, &LockoutState{IsLocked: true, WasAuthenticated: true}); err != nil {
		return err
	}
	c.engine.metricInc(MetricSessionLocked)
	c.engine.emitAudit(ctx, AuditEvent{
		EventType: auditEventSessionLocked,
		Success:   true,
	})
	return nil
}

// Run consumes lifecycle transitions until ctx is done or the channel
// closes. Handling errors are logged, not fatal; a later transition may
// still succeed.
func (c *LockoutController) Run(ctx context.Context, events <-chan lifecycle.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-events:
			if !ok {
				return
			}
			if err := c.HandleLifecycle(ctx, state); err != nil {
				log.Printf("authcore: lifecycle %s: %v", state, err)
			}
		}
	}
}

// UnlockWithBiometric clears the lock after a successful biometric check.
// The lock stays in place on any failure, including lockout of the
// biometric factor itself.
func (c *LockoutController) UnlockWithBiometric(ctx context.Context) (*Identity, error) {
	identity, err := c.engine.SignInWithBiometric(ctx)
	if err != nil {
		c.engine.emitAudit(ctx, AuditEvent{
			EventType: auditEventUnlockFailure,
			Factor:    string(FactorBiometric),
			Error:     UserMessage(err),
		})
		return nil, err
	}
	if err := c.unlocked(ctx, identity, FactorBiometric); err != nil {
		return nil, err
	}
	return identity, nil
}

// UnlockWithCredentials clears the lock after a full password sign-in.
func (c *LockoutController) UnlockWithCredentials(ctx context.Context, email, pass string) (*Identity, error) {
	identity, err := c.engine.SignIn(ctx, email, pass)
	if err != nil {
		c.engine.emitAudit(ctx, AuditEvent{
			EventType: auditEventUnlockFailure,
			Factor:    string(FactorPassword),
			Error:     UserMessage(err),
		})
		return nil, err
	}
	if err := c.unlocked(ctx, identity, FactorPassword); err != nil {
		return nil, err
	}
	return identity, nil
}

// UnlockWithPIN clears the lock after a successful PIN check.
func (c *LockoutController) UnlockWithPIN(ctx context.Context, pin string) (*Identity, error) {
	identity, err := c.engine.SignInWithPIN(ctx, pin)
	if err != nil {
		c.engine.emitAudit(ctx, AuditEvent{
			EventType: auditEventUnlockFailure,
			Factor:    string(FactorPIN),
			Error:     UserMessage(err),
		})
		return nil, err
	}
	if err := c.unlocked(ctx, identity, FactorPIN); err != nil {
		return nil, err
	}
	return identity, nil
}

func (c *LockoutController) unlocked(ctx context.Context, identity *Identity, factor Factor) error {
	if err := c.clear(ctx); err != nil {
		return err
	}
	c.engine.metricInc(MetricSessionUnlocked)
	c.engine.emitAudit(ctx, AuditEvent{
		EventType: auditEventSessionUnlocked,
		UserID:    identity.UserID,
		Factor:    string(factor),
		Success:   true,
	})
	return nil
}
