package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/softlock/authcore/jwt"
	"github.com/softlock/authcore/password"
	"github.com/softlock/authcore/vault"
)

func newLocalBackend(t *testing.T) (*Local, *vault.Memory) {
	t.Helper()

	hasher, err := password.New(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("password.New: %v", err)
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    6 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		Key:           []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "authcore-test",
	})
	if err != nil {
		t.Fatalf("jwt.NewManager: %v", err)
	}

	v := vault.NewMemory()
	l, err := NewLocal(v, hasher, tokens, "dev-1")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l, v
}

func TestLocalRegisterAndLogin(t *testing.T) {
	l, _ := newLocalBackend(t)
	ctx := context.Background()

	created, err := l.Register(ctx, "Ada", "Ada@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.UserID == "" || created.AccessToken == "" || created.RefreshToken == "" {
		t.Fatalf("incomplete session: %+v", created)
	}
	if created.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}

	// Case-insensitive login.
	session, err := l.Login(ctx, "ADA@example.COM", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.UserID != created.UserID || session.Name != "Ada" {
		t.Fatalf("session = %+v", session)
	}

	if _, err := l.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := l.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
}

func TestLocalRegisterDuplicate(t *testing.T) {
	l, _ := newLocalBackend(t)
	ctx := context.Background()

	if _, err := l.Register(ctx, "Ada", "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := l.Register(ctx, "Imposter", "ADA@example.com", "other")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate register: %v, want ErrAccountExists", err)
	}
}

func TestLocalRefresh(t *testing.T) {
	l, _ := newLocalBackend(t)
	ctx := context.Background()

	created, err := l.Register(ctx, "Ada", "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	refreshed, err := l.Refresh(ctx, created.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.UserID != created.UserID || refreshed.AccessToken == "" {
		t.Fatalf("refreshed = %+v", refreshed)
	}

	if _, err := l.Refresh(ctx, created.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token as refresh: %v, want ErrInvalidToken", err)
	}
	if _, err := l.Refresh(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: %v, want ErrInvalidToken", err)
	}
}

func TestLocalUserLookup(t *testing.T) {
	l, _ := newLocalBackend(t)
	ctx := context.Background()

	created, err := l.Register(ctx, "Ada", "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := l.User(ctx, created.UserID)
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if user.Email != "ada@example.com" || user.Name != "Ada" {
		t.Fatalf("user = %+v", user)
	}

	if _, err := l.User(ctx, "missing"); err == nil {
		t.Fatal("unknown id accepted")
	}
}

func TestLocalStorageFaultPropagates(t *testing.T) {
	l, v := newLocalBackend(t)
	v.FailAll = true

	if _, err := l.Login(context.Background(), "ada@example.com", "hunter22"); !errors.Is(err, vault.ErrStorage) {
		t.Fatalf("Login with dead vault: %v, want ErrStorage", err)
	}
}
