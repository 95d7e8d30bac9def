// Package lifecycle defines the application lifecycle states consumed by the
// lockout controller. The hosting platform is expected to translate its own
// lifecycle callbacks into this enum and feed them to
// [authcore.LockoutController] either call-by-call or as a channel stream.
package lifecycle

import "fmt"

// State is one application lifecycle transition reported by the host.
type State uint8

const (
	// Resumed means the application is visible and responding to input.
	Resumed State = iota
	// Inactive is a transient state during animations or system interruptions.
	Inactive
	// Hidden is a transient state while the app is obscured, e.g. by the
	// app switcher.
	Hidden
	// Paused means the application is no longer visible to the user.
	Paused
	// Detached means the host view is gone; the process may be killed at
	// any moment after this.
	Detached
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Resumed:
		return "resumed"
	case Inactive:
		return "inactive"
	case Hidden:
		return "hidden"
	case Paused:
		return "paused"
	case Detached:
		return "detached"
	default:
		return fmt.Sprintf("lifecycle(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the defined lifecycle states.
func (s State) Valid() bool {
	return s <= Detached
}
