package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/softlock/authcore/backend"
	"github.com/softlock/authcore/biometric"
	"github.com/softlock/authcore/password"
	"github.com/softlock/authcore/vault"
)

// pinHashConfig is the fixed argon2id cost for PIN hashing. Lighter than a
// server-side password cost: the secret is device-local and the lockout
// budget is the real defense.
var pinHashConfig = password.Config{
	Memory:      16 * 1024,
	Time:        2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Builder assembles an [Engine]. Vault, backend, and prompter are required;
// everything else has working defaults.
type Builder struct {
	config   Config
	hasCfg   bool
	vault    vault.Vault
	backend  backend.IdentityBackend
	prompter biometric.Prompter
	sink     AuditSink
	metrics  bool
	now      func() time.Time
}

// New returns an empty [Builder].
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration. Zero fields are filled
// with defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.hasCfg = true
	return b
}

// WithVault sets the opaque encrypted key-value store all state persists
// through. Required.
func (b *Builder) WithVault(v vault.Vault) *Builder {
	b.vault = v
	return b
}

// WithBackend sets the identity backend. Required.
func (b *Builder) WithBackend(ib backend.IdentityBackend) *Builder {
	b.backend = ib
	return b
}

// WithPrompter sets the platform biometric prompter. Required.
func (b *Builder) WithPrompter(p biometric.Prompter) *Builder {
	b.prompter = p
	return b
}

// WithAuditSink enables audit dispatch to the given sink.
func (b *Builder) WithAuditSink(s AuditSink) *Builder {
	b.sink = s
	return b
}

// WithMetricsEnabled enables the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.metrics = enabled
	return b
}

// withNow overrides the clock. Test hook.
func (b *Builder) withNow(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.vault == nil {
		return nil, errors.New("authcore: vault is required")
	}
	if b.backend == nil {
		return nil, errors.New("authcore: identity backend is required")
	}
	if b.prompter == nil {
		return nil, errors.New("authcore: biometric prompter is required")
	}

	cfg := b.config
	if !b.hasCfg {
		cfg = defaultConfig()
	}
	cfg.applyDefaults()
	if b.metrics {
		cfg.Metrics.Enabled = true
	}
	if b.sink != nil {
		cfg.Audit.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("authcore: invalid config: %w", err)
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	pinHasher, err := password.New(pinHashConfig)
	if err != nil {
		return nil, fmt.Errorf("authcore: pin hasher: %w", err)
	}

	e := &Engine{
		config:  cfg,
		vault:   b.vault,
		backend: b.backend,
		now:     now,
	}
	e.creds = &credentialStore{vault: b.vault}
	e.device = &deviceIdentity{vault: b.vault}
	e.pin = &pinFallback{
		vault:  b.vault,
		hasher: pinHasher,
		creds:  e.creds,
		cfg:    cfg.PIN,
		now:    now,
	}
	e.gate = &biometricGate{
		vault:    b.vault,
		prompter: b.prompter,
		cfg:      cfg.Biometric,
		now:      now,
		counter: &attemptCounter{
			vault:  b.vault,
			key:    keyBiometricAttempts,
			max:    cfg.Biometric.MaxAttempts,
			window: cfg.Biometric.ResetWindow,
			now:    now,
		},
		pinConfigured: func(ctx context.Context) (bool, error) {
			return e.pin.IsConfigured(ctx)
		},
	}
	e.lockout = &LockoutController{engine: e}

	if cfg.Metrics.Enabled {
		e.metrics = NewMetrics(cfg.Metrics)
	}
	if cfg.Audit.Enabled {
		sink := b.sink
		if sink == nil {
			sink = NoOpSink{}
		}
		e.audit = newAuditDispatcher(cfg.Audit, sink)
	}

	return e, nil
}
