// Package biometric defines the platform biometric capability consumed by the
// engine. The library never verifies biometric signals itself; it only asks
// the platform to run a prompt and acts on the boolean outcome.
package biometric

import "context"

// Type identifies one biometric modality reported by the platform.
type Type uint8

const (
	// TypeFingerprint is an enrolled fingerprint sensor.
	TypeFingerprint Type = iota
	// TypeFace is an enrolled face-recognition sensor.
	TypeFace
	// TypeIris is an enrolled iris sensor.
	TypeIris
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeFingerprint:
		return "fingerprint"
	case TypeFace:
		return "face"
	case TypeIris:
		return "iris"
	default:
		return "unknown"
	}
}

// PromptOptions mirror the platform prompt flags. BiometricOnly disables
// device-credential (PIN/pattern) fallback inside the platform sheet;
// StickyAuth keeps the prompt alive across an app switch.
type PromptOptions struct {
	BiometricOnly bool
	StickyAuth    bool
}

// Prompter is the platform capability the engine talks to. Implementations
// wrap the host OS biometric API. All methods may be called from any
// goroutine; the engine guarantees at most one Authenticate call is in
// flight at a time.
type Prompter interface {
	// CanCheckBiometrics reports whether at least one biometric is
	// enrolled and usable right now.
	CanCheckBiometrics(ctx context.Context) (bool, error)

	// IsDeviceSupported reports whether the hardware supports biometrics
	// at all, enrolled or not.
	IsDeviceSupported(ctx context.Context) (bool, error)

	// AvailableTypes lists the enrolled biometric modalities.
	AvailableTypes(ctx context.Context) ([]Type, error)

	// Authenticate shows the platform prompt and blocks until the user
	// succeeds, fails, or ctx is done. A false result with nil error is an
	// ordinary user failure (wrong finger, cancel).
	Authenticate(ctx context.Context, reason string, opts PromptOptions) (bool, error)

	// StopAuthentication dismisses an in-flight prompt, if any.
	StopAuthentication(ctx context.Context) error
}
