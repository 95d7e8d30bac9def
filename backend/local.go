package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/softlock/authcore/jwt"
	"github.com/softlock/authcore/password"
	"github.com/softlock/authcore/vault"
)

const localUsersKey = "auth:local:users"

// Local keeps accounts on the device, persisted through the vault as one
// serialized record, with argon2id password hashes and locally minted JWT
// pairs. It exists so the engine can run fully offline with the exact same
// orchestration logic as against [Remote].
type Local struct {
	vault  vault.Vault
	hasher *password.Hasher
	tokens *jwt.Manager
	device string
}

type localUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// NewLocal wires a local backend. The device fingerprint is bound into every
// issued token pair.
func NewLocal(v vault.Vault, hasher *password.Hasher, tokens *jwt.Manager, device string) (*Local, error) {
	if v == nil || hasher == nil || tokens == nil {
		return nil, errors.New("local backend requires vault, hasher, and token manager")
	}
	return &Local{vault: v, hasher: hasher, tokens: tokens, device: device}, nil
}

// Ping implements [IdentityBackend]. The device store is always reachable.
func (l *Local) Ping(context.Context) error { return nil }

// Login implements [IdentityBackend].
func (l *Local) Login(ctx context.Context, email, pass string) (*Session, error) {
	users, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	user, ok := users[normalizeEmail(email)]
	if !ok {
		return nil, ErrInvalidCredentials
	}

	match, err := l.hasher.Verify(pass, user.PasswordHash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}

	if upgrade, err := l.hasher.NeedsUpgrade(user.PasswordHash); err == nil && upgrade {
		// Rehash is best-effort and must not block a successful login.
		if newHash, err := l.hasher.Hash(pass); err == nil {
			user.PasswordHash = newHash
			users[normalizeEmail(email)] = user
			if err := l.store(ctx, users); err != nil {
				log.Print("authcore: local password hash upgrade failed")
			}
		}
	}

	return l.issue(user, email)
}

// Register implements [IdentityBackend].
func (l *Local) Register(ctx context.Context, name, email, pass string) (*Session, error) {
	users, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	key := normalizeEmail(email)
	if _, exists := users[key]; exists {
		return nil, ErrAccountExists
	}

	hash, err := l.hasher.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	user := localUser{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: hash,
	}
	users[key] = user

	if err := l.store(ctx, users); err != nil {
		return nil, err
	}
	return l.issue(user, email)
}

// Refresh implements [IdentityBackend].
func (l *Local) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := l.tokens.Parse(refreshToken, jwt.KindRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	access, refresh, err := l.tokens.CreatePair(claims.UID, claims.Email, claims.Name, l.device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Session{
		UserID:       claims.UID,
		Email:        claims.Email,
		Name:         claims.Name,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// User implements [IdentityBackend].
func (l *Local) User(ctx context.Context, id string) (*User, error) {
	users, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	for email, u := range users {
		if u.ID == id {
			return &User{ID: u.ID, Email: email, Name: u.Name}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (l *Local) issue(user localUser, email string) (*Session, error) {
	access, refresh, err := l.tokens.CreatePair(user.ID, normalizeEmail(email), user.Name, l.device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Session{
		UserID:       user.ID,
		Email:        normalizeEmail(email),
		Name:         user.Name,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (l *Local) load(ctx context.Context) (map[string]localUser, error) {
	raw, err := l.vault.Get(ctx, localUsersKey)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return map[string]localUser{}, nil
		}
		return nil, err
	}
	users := map[string]localUser{}
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("%w: corrupt local user store: %v", vault.ErrStorage, err)
	}
	return users, nil
}

func (l *Local) store(ctx context.Context, users map[string]localUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("%w: encode local user store: %v", vault.ErrStorage, err)
	}
	return l.vault.Set(ctx, localUsersKey, string(raw))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
