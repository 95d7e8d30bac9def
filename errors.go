package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/softlock/authcore/vault"
)

var (
	// ErrValidation marks malformed or empty caller input. No collaborator
	// is contacted when validation fails.
	ErrValidation = errors.New("validation failed")
	// ErrConnectivity marks a failed reachability probe or transport fault
	// talking to the identity backend.
	ErrConnectivity = errors.New("identity backend unreachable")
	// ErrInvalidCredentials marks a rejected password, PIN mismatch, or
	// failed biometric check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists marks a duplicate identity on sign-up.
	ErrAccountExists = errors.New("account already exists")
	// ErrNotConfigured marks a factor that was never set up on this device.
	ErrNotConfigured = errors.New("factor not configured")
	// ErrNotAuthenticated marks an operation that requires an existing
	// session or stored refresh token.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrLockedOut marks an exhausted attempt budget. Carried by
	// [LockoutError], which holds the structured payload.
	ErrLockedOut = errors.New("attempt budget exhausted")
	// ErrPromptInFlight is returned when a biometric authenticate call is
	// made while another prompt is outstanding. The invoking layer is
	// expected to disable repeat invocation; this error is the backstop.
	ErrPromptInFlight = errors.New("biometric prompt already in flight")
	// ErrStorage is the vault fault sentinel. It is the only error class
	// that indicates an unrecoverable platform problem; callers must fail
	// closed on it (treat the session as not authenticated).
	ErrStorage = vault.ErrStorage
)

// Factor identifies which authentication factor produced an error or event.
type Factor string

const (
	// FactorPassword is the primary email/password factor.
	FactorPassword Factor = "password"
	// FactorBiometric is the platform biometric shortcut.
	FactorBiometric Factor = "biometric"
	// FactorPIN is the PIN fallback factor.
	FactorPIN Factor = "pin"
)

// LockoutError reports an exhausted attempt budget with enough structure for
// the caller to render a precise message without re-deriving anything.
type LockoutError struct {
	Factor            Factor
	AttemptsRemaining int
	// UnlockAt is when the lock expires. Zero when the lock has no
	// deadline (biometric lockouts clear via their reset window, which is
	// reported here as the window end).
	UnlockAt time.Time
	// PINFallbackAvailable is set on biometric lockouts when a PIN record
	// exists, directing the caller to the next factor in the chain.
	PINFallbackAvailable bool
}

// Error implements error.
func (e *LockoutError) Error() string {
	if e.Factor == FactorBiometric && e.PINFallbackAvailable {
		return "biometric attempts exhausted, PIN fallback available"
	}
	return fmt.Sprintf("%s attempts exhausted", e.Factor)
}

// Unwrap lets errors.Is(err, ErrLockedOut) match.
func (e *LockoutError) Unwrap() error { return ErrLockedOut }

// userFacingError pairs a presentation-ready message with a taxonomy
// sentinel.
type userFacingError struct {
	msg  string
	kind error
}

func (e *userFacingError) Error() string { return e.msg }
func (e *userFacingError) Unwrap() error { return e.kind }

func failure(kind error, msg string) error {
	return &userFacingError{msg: msg, kind: kind}
}

// UserMessage maps any engine error to the human-readable message the
// presentation layer should render verbatim. Unknown errors map to a generic
// message rather than leaking internals.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ufe *userFacingError
	if errors.As(err, &ufe) {
		return ufe.msg
	}

	var lo *LockoutError
	if errors.As(err, &lo) {
		switch {
		case lo.Factor == FactorBiometric && lo.PINFallbackAvailable:
			return "Too many failed biometric attempts. Please use your PIN."
		case lo.Factor == FactorBiometric:
			return "Too many failed biometric attempts. Please sign in with your password."
		case !lo.UnlockAt.IsZero():
			return fmt.Sprintf("Too many failed attempts. Try again in %s.", humanDuration(time.Until(lo.UnlockAt)))
		default:
			return "Too many failed attempts. Please try again later."
		}
	}

	switch {
	case errors.Is(err, ErrValidation):
		return "Please check your input and try again"
	case errors.Is(err, ErrConnectivity):
		return "Cannot reach the server. Please check your connection."
	case errors.Is(err, ErrAccountExists):
		return "An account with this email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrNotConfigured):
		return "This sign-in method is not enabled"
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first"
	case errors.Is(err, ErrPromptInFlight):
		return "Authentication is already in progress"
	case errors.Is(err, ErrStorage):
		return "Secure storage is unavailable. Please restart the app."
	default:
		return "Something went wrong. Please try again."
	}
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
