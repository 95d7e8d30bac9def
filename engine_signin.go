package authcore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/softlock/authcore/backend"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SignIn authenticates against the identity backend with email and password
// and persists the resulting session. Empty input is rejected before any
// collaborator is contacted, and never touches lockout state.
func (e *Engine) SignIn(ctx context.Context, email, pass string) (*Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || pass == "" {
		err := failure(ErrValidation, "Please enter both email and password")
		e.auditSignIn(ctx, "", err)
		return nil, err
	}

	if e.config.Backend.ProbeBeforeSignIn {
		if err := e.backend.Ping(ctx); err != nil {
			err = failure(ErrConnectivity, "Cannot reach the server. Please check your connection.")
			e.auditSignIn(ctx, "", err)
			return nil, err
		}
	}

	session, err := e.backend.Login(ctx, email, pass)
	if err != nil {
		err = mapBackendErr(err)
		e.metricInc(MetricSignInFailure)
		e.auditSignIn(ctx, "", err)
		return nil, err
	}

	creds := &Credentials{
		Email:        session.Email,
		Password:     pass,
		Name:         session.Name,
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		LoggedIn:     true,
	}
	if creds.Email == "" {
		creds.Email = email
	}
	if err := e.creds.Write(ctx, creds); err != nil {
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.auditSignIn(ctx, creds.UserID, nil)
	return creds.Identity(), nil
}

// SignUp registers a new identity and signs it in. Because the vault may
// still hold state for a previous user of this device, the biometric
// binding, its attempt counter, and the PIN are wiped before the new
// Credential Record is written.
func (e *Engine) SignUp(ctx context.Context, email, pass, name string) (*Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || pass == "" || strings.TrimSpace(name) == "" {
		err := failure(ErrValidation, "Please fill in all fields")
		e.auditSignUp(ctx, "", err)
		return nil, err
	}
	if !emailPattern.MatchString(email) {
		err := failure(ErrValidation, "Please enter a valid email address")
		e.auditSignUp(ctx, "", err)
		return nil, err
	}
	if len(pass) < e.config.Backend.MinPasswordLength {
		err := failure(ErrValidation, fmt.Sprintf("Password must be at least %d characters", e.config.Backend.MinPasswordLength))
		e.auditSignUp(ctx, "", err)
		return nil, err
	}

	session, err := e.backend.Register(ctx, strings.TrimSpace(name), email, pass)
	if err != nil {
		err = mapBackendErr(err)
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricSignUpDuplicate)
		}
		e.auditSignUp(ctx, "", err)
		return nil, err
	}

	// New identity: prior factor state must not carry over.
	if err := e.gate.Reset(ctx); err != nil {
		return nil, err
	}
	if err := e.pin.Reset(ctx); err != nil {
		return nil, err
	}
	if err := e.lockout.clear(ctx); err != nil {
		return nil, err
	}

	creds := &Credentials{
		Email:        session.Email,
		Password:     pass,
		Name:         session.Name,
		UserID:       session.UserID,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		LoggedIn:     true,
	}
	if creds.Email == "" {
		creds.Email = email
	}
	if creds.Name == "" {
		creds.Name = strings.TrimSpace(name)
	}
	if err := e.creds.Write(ctx, creds); err != nil {
		return nil, err
	}

	e.metricInc(MetricSignUpSuccess)
	e.auditSignUp(ctx, creds.UserID, nil)
	return creds.Identity(), nil
}

// SignOut ends the session locally: the Credential Record and the session
// lock are wiped, while the biometric binding and PIN survive so returning
// users keep their shortcuts. No backend call is made.
func (e *Engine) SignOut(ctx context.Context) error {
	creds, err := e.creds.Read(ctx)
	if err != nil {
		return err
	}

	if err := e.creds.Clear(ctx); err != nil {
		return err
	}
	if err := e.lockout.clear(ctx); err != nil {
		return err
	}

	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventSignOut,
		UserID:    creds.UserID,
		Success:   true,
	})
	return nil
}

// RefreshToken exchanges the stored refresh token for a fresh pair and
// persists it. A rejected refresh token signs the session out.
func (e *Engine) RefreshToken(ctx context.Context) (*Identity, error) {
	creds, err := e.creds.Read(ctx)
	if err != nil {
		return nil, err
	}
	if creds.RefreshToken == "" {
		return nil, failure(ErrNotAuthenticated, "Please sign in first")
	}

	session, err := e.backend.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		err = mapBackendErr(err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventRefreshFailure,
			UserID:    creds.UserID,
			Error:     UserMessage(err),
		})
		if errors.Is(err, ErrNotAuthenticated) {
			creds.LoggedIn = false
			creds.AccessToken = ""
			creds.RefreshToken = ""
			if werr := e.creds.Write(ctx, creds); werr != nil {
				return nil, werr
			}
		}
		return nil, err
	}

	creds.AccessToken = session.AccessToken
	if session.RefreshToken != "" {
		creds.RefreshToken = session.RefreshToken
	}
	if err := e.creds.Write(ctx, creds); err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventRefreshSuccess,
		UserID:    creds.UserID,
		Success:   true,
	})
	return creds.Identity(), nil
}

// mapBackendErr translates backend sentinels into this package's taxonomy
// with presentation-ready messages. Storage faults pass through untouched.
func mapBackendErr(err error) error {
	switch {
	case errors.Is(err, backend.ErrInvalidCredentials):
		return failure(ErrInvalidCredentials, "Invalid email or password")
	case errors.Is(err, backend.ErrAccountExists):
		return failure(ErrAccountExists, "An account with this email already exists")
	case errors.Is(err, backend.ErrInvalidToken):
		return failure(ErrNotAuthenticated, "Your session has expired. Please sign in again.")
	case errors.Is(err, backend.ErrUnavailable):
		return failure(ErrConnectivity, "Cannot reach the server. Please check your connection.")
	case errors.Is(err, ErrStorage):
		return err
	default:
		return failure(ErrConnectivity, "Cannot reach the server. Please check your connection.")
	}
}

func (e *Engine) auditSignIn(ctx context.Context, userID string, err error) {
	event := AuditEvent{
		EventType: auditEventSignInSuccess,
		UserID:    userID,
		Factor:    string(FactorPassword),
		Success:   err == nil,
	}
	if err != nil {
		event.EventType = auditEventSignInFailure
		event.Error = UserMessage(err)
	}
	e.emitAudit(ctx, event)
}

func (e *Engine) auditSignUp(ctx context.Context, userID string, err error) {
	event := AuditEvent{
		EventType: auditEventSignUpSuccess,
		UserID:    userID,
		Factor:    string(FactorPassword),
		Success:   err == nil,
	}
	if err != nil {
		event.EventType = auditEventSignUpFailure
		event.Error = UserMessage(err)
	}
	e.emitAudit(ctx, event)
}
