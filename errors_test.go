package authcore

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLockoutErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("unlock: %w", &LockoutError{Factor: FactorPIN})

	if !errors.Is(err, ErrLockedOut) {
		t.Fatal("wrapped LockoutError does not match ErrLockedOut")
	}
	var lo *LockoutError
	if !errors.As(err, &lo) || lo.Factor != FactorPIN {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestUserMessageMappings(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{failure(ErrValidation, "Please enter both email and password"), "Please enter both email and password"},
		{ErrConnectivity, "Cannot reach the server. Please check your connection."},
		{ErrInvalidCredentials, "Invalid email or password"},
		{ErrAccountExists, "An account with this email already exists"},
		{ErrNotConfigured, "This sign-in method is not enabled"},
		{ErrNotAuthenticated, "Please sign in first"},
		{ErrPromptInFlight, "Authentication is already in progress"},
		{ErrStorage, "Secure storage is unavailable. Please restart the app."},
		{errors.New("internal detail"), "Something went wrong. Please try again."},
		{
			&LockoutError{Factor: FactorBiometric, PINFallbackAvailable: true},
			"Too many failed biometric attempts. Please use your PIN.",
		},
		{
			&LockoutError{Factor: FactorBiometric},
			"Too many failed biometric attempts. Please sign in with your password.",
		},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestUserMessagePINLockoutIncludesCountdown(t *testing.T) {
	err := &LockoutError{Factor: FactorPIN, UnlockAt: time.Now().Add(4*time.Minute + 59*time.Second)}

	got := UserMessage(err)
	if got != "Too many failed attempts. Try again in 4m59s." && got != "Too many failed attempts. Try again in 5m00s." {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestFailureDoesNotLeakKindMessage(t *testing.T) {
	err := failure(ErrInvalidCredentials, "Incorrect PIN")

	if err.Error() != "Incorrect PIN" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("kind not matchable")
	}
}
