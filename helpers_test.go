package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/softlock/authcore/backend"
	"github.com/softlock/authcore/biometric"
	"github.com/softlock/authcore/vault"
)

type fakeBackend struct {
	mu            sync.Mutex
	pingCalls     int
	loginCalls    int
	registerCalls int
	refreshCalls  int

	pingErr     error
	loginErr    error
	registerErr error
	refreshErr  error

	session backend.Session
}

func (f *fakeBackend) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	return f.pingErr
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	s := f.session
	if s.Email == "" {
		s.Email = email
	}
	return &s, nil
}

func (f *fakeBackend) Register(_ context.Context, name, email, _ string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	s := f.session
	if s.Email == "" {
		s.Email = email
	}
	if s.Name == "" {
		s.Name = name
	}
	return &s, nil
}

func (f *fakeBackend) Refresh(context.Context, string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	s := f.session
	return &s, nil
}

func (f *fakeBackend) User(_ context.Context, id string) (*backend.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &backend.User{ID: id, Email: f.session.Email, Name: f.session.Name}, nil
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingCalls + f.loginCalls + f.registerCalls + f.refreshCalls
}

// testClock is a mutable clock shared between a test and its engine.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testRig struct {
	engine  *Engine
	vault   *vault.Memory
	backend *fakeBackend
	sim     *biometric.Simulator
	clock   *testClock
}

func newTestRig(t *testing.T, mutate func(*Builder)) *testRig {
	t.Helper()

	rig := &testRig{
		vault: vault.NewMemory(),
		backend: &fakeBackend{
			session: backend.Session{
				UserID:       "u-1",
				Email:        "ada@example.com",
				Name:         "Ada",
				AccessToken:  "at-1",
				RefreshToken: "rt-1",
			},
		},
		sim:   biometric.NewSimulator(),
		clock: newTestClock(),
	}

	b := New().
		WithVault(rig.vault).
		WithBackend(rig.backend).
		WithPrompter(rig.sim).
		withNow(rig.clock.Now)
	if mutate != nil {
		mutate(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	rig.engine = engine
	return rig
}

func (r *testRig) signIn(t *testing.T) *Identity {
	t.Helper()
	identity, err := r.engine.SignIn(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return identity
}

func (r *testRig) enableBiometric(t *testing.T) {
	t.Helper()
	if err := r.engine.EnableBiometric(context.Background()); err != nil {
		t.Fatalf("EnableBiometric: %v", err)
	}
}

func (r *testRig) configurePIN(t *testing.T, pin string) {
	t.Helper()
	if err := r.engine.ConfigurePIN(context.Background(), pin); err != nil {
		t.Fatalf("ConfigurePIN: %v", err)
	}
}
