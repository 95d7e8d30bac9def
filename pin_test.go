package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfigurePINTooShort(t *testing.T) {
	rig := newTestRig(t, nil)

	err := rig.engine.ConfigurePIN(context.Background(), "123")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	configured, err := rig.engine.PINConfigured(context.Background())
	if err != nil || configured {
		t.Fatalf("PIN stored despite validation failure: %v, %v", configured, err)
	}
}

func TestPINSignInResurrectsSession(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")
	if err := rig.engine.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	identity, err := rig.engine.SignInWithPIN(context.Background(), "4242")
	if err != nil {
		t.Fatalf("SignInWithPIN: %v", err)
	}
	if identity.UserID != "u-1" || identity.Email != "ada@example.com" {
		t.Fatalf("identity = %+v", identity)
	}

	state, _ := rig.engine.SessionState(context.Background())
	if state != SignedIn {
		t.Fatalf("state = %v", state)
	}
	if rig.backend.totalCalls() != 1 { // the original password sign-in only
		t.Fatalf("backend contacted %d times", rig.backend.totalCalls())
	}
}

func TestPINNotConfigured(t *testing.T) {
	rig := newTestRig(t, nil)

	_, err := rig.engine.SignInWithPIN(context.Background(), "4242")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestPINFifthFailureLocksInSameCall(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")

	for i := 0; i < 4; i++ {
		_, err := rig.engine.SignInWithPIN(context.Background(), "0000")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCredentials", i+1, err)
		}
		remaining, err := rig.engine.PINRemainingAttempts(context.Background())
		if err != nil || remaining != defaultPINMaxAttempts-(i+1) {
			t.Fatalf("attempt %d: remaining = %d, %v", i+1, remaining, err)
		}
	}

	_, err := rig.engine.SignInWithPIN(context.Background(), "0000")
	var lo *LockoutError
	if !errors.As(err, &lo) {
		t.Fatalf("attempt 5: err = %v, want LockoutError", err)
	}
	if lo.Factor != FactorPIN {
		t.Fatalf("lockout factor = %v", lo.Factor)
	}
	if want := rig.clock.Now().Add(defaultPINLockoutDuration); !lo.UnlockAt.Equal(want) {
		t.Fatalf("UnlockAt = %v, want %v", lo.UnlockAt, want)
	}

	locked, err := rig.engine.PINLocked(context.Background())
	if err != nil || !locked {
		t.Fatalf("PINLocked = %v, %v", locked, err)
	}
	remaining, err := rig.engine.PINLockoutRemaining(context.Background())
	if err != nil || remaining != defaultPINLockoutDuration {
		t.Fatalf("PINLockoutRemaining = %v, %v", remaining, err)
	}
}

func TestLockedPINRejectsEvenCorrectPIN(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")

	for i := 0; i < 5; i++ {
		rig.engine.SignInWithPIN(context.Background(), "0000")
	}

	_, err := rig.engine.SignInWithPIN(context.Background(), "4242")
	if !errors.Is(err, ErrLockedOut) {
		t.Fatalf("correct PIN while locked: err = %v, want lockout", err)
	}
}

func TestPINLockExpiryRestoresBudget(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")

	for i := 0; i < 5; i++ {
		rig.engine.SignInWithPIN(context.Background(), "0000")
	}

	rig.clock.Advance(defaultPINLockoutDuration + time.Second)

	remaining, err := rig.engine.PINRemainingAttempts(context.Background())
	if err != nil || remaining != defaultPINMaxAttempts {
		t.Fatalf("remaining after expiry = %d, %v", remaining, err)
	}
	if _, err := rig.engine.SignInWithPIN(context.Background(), "4242"); err != nil {
		t.Fatalf("correct PIN after expiry: %v", err)
	}
}

func TestPINSuccessResetsFailures(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")

	for i := 0; i < 3; i++ {
		rig.engine.SignInWithPIN(context.Background(), "0000")
	}
	if _, err := rig.engine.SignInWithPIN(context.Background(), "4242"); err != nil {
		t.Fatalf("SignInWithPIN: %v", err)
	}

	remaining, err := rig.engine.PINRemainingAttempts(context.Background())
	if err != nil || remaining != defaultPINMaxAttempts {
		t.Fatalf("remaining after success = %d, %v", remaining, err)
	}
}

func TestReconfigurePINClearsLock(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")

	for i := 0; i < 5; i++ {
		rig.engine.SignInWithPIN(context.Background(), "0000")
	}

	rig.configurePIN(t, "9999")
	locked, err := rig.engine.PINLocked(context.Background())
	if err != nil || locked {
		t.Fatalf("locked after reconfigure: %v, %v", locked, err)
	}
	if _, err := rig.engine.SignInWithPIN(context.Background(), "9999"); err != nil {
		t.Fatalf("new PIN rejected: %v", err)
	}
}

func TestPINWithoutStoredCredentials(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.signIn(t)
	rig.configurePIN(t, "4242")

	// Wipe the record behind the PIN's back.
	if err := rig.engine.creds.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	_, err := rig.engine.SignInWithPIN(context.Background(), "4242")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}
