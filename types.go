package authcore

// SessionState is the orchestrator's session state machine.
//
// Transitions: SignedOut → SignedIn on any successful sign-in/up/biometric/
// PIN; SignedIn → Locked only via a Paused/Detached lifecycle event while
// authenticated; Locked → SignedIn on any successful re-authentication;
// SignedIn|Locked → SignedOut on sign-out. There is no SignedOut → Locked
// transition.
type SessionState uint8

const (
	// SignedOut means no active session.
	SignedOut SessionState = iota
	// SignedIn means an active, unlocked session.
	SignedIn
	// Locked means an authenticated session locked by backgrounding.
	Locked
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case SignedOut:
		return "signed_out"
	case SignedIn:
		return "signed_in"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// Identity is the caller-visible outcome of a successful authentication.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Credentials is the full Credential Record as persisted in the vault.
// Owned exclusively by the Engine: created on sign-in/sign-up, updated on
// refresh, partially cleared on sign-out.
//
// Password is kept for auto-login re-presentation. That is an explicit
// product decision carried over from the shipped behavior, not a gap.
type Credentials struct {
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	Name         string `json:"name"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	LoggedIn     bool   `json:"logged_in"`
}

// Identity projects the record's identity fields.
func (c *Credentials) Identity() *Identity {
	return &Identity{UserID: c.UserID, Email: c.Email, Name: c.Name}
}

// BiometricBinding is the identity re-presented after a successful biometric
// check. It exists only after an explicit enable following a password
// sign-in, survives sign-out, and is wiped on sign-up of a new identity.
type BiometricBinding struct {
	Enabled bool   `json:"enabled"`
	Email   string `json:"email"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
}

// LockoutState is the persisted backgrounding lock, mutated only by the
// lockout controller and the unlock operations.
type LockoutState struct {
	IsLocked         bool `json:"is_locked"`
	WasAuthenticated bool `json:"was_authenticated"`
}
