package authcore

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config tunes the engine. Zero values are filled in by defaults at Build;
// instances are treated as immutable after Build.
type Config struct {
	Backend   BackendConfig
	Biometric BiometricConfig
	PIN       PINConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// BackendConfig tunes the orchestrator's interaction with the identity
// backend.
type BackendConfig struct {
	// ProbeBeforeSignIn runs a reachability probe before each sign-in and
	// fails with a connectivity error when it does not answer.
	ProbeBeforeSignIn bool `env:"AUTHCORE_PROBE_BEFORE_SIGNIN"`
	// MinPasswordLength is enforced at sign-up only.
	MinPasswordLength int `env:"AUTHCORE_MIN_PASSWORD_LENGTH"`
}

// BiometricConfig tunes the biometric gate.
type BiometricConfig struct {
	// MaxAttempts is the failure budget within one reset window.
	MaxAttempts int `env:"AUTHCORE_BIOMETRIC_MAX_ATTEMPTS"`
	// PromptTimeout bounds one platform prompt. An unresolved prompt
	// counts as an ordinary failure when it elapses. The shipped 3s value
	// is not a deliberate security threshold; it is tunable.
	PromptTimeout time.Duration `env:"AUTHCORE_BIOMETRIC_PROMPT_TIMEOUT"`
	// ResetWindow is how long failure counts accumulate before becoming
	// eligible for lazy reset, measured from the first failure of a
	// streak.
	ResetWindow time.Duration `env:"AUTHCORE_BIOMETRIC_RESET_WINDOW"`
	// Reason is the prompt message shown by the platform sheet.
	Reason string `env:"AUTHCORE_BIOMETRIC_REASON"`
	// BiometricOnly disables the platform's own device-credential
	// fallback; this library runs its own fallback chain.
	BiometricOnly bool `env:"AUTHCORE_BIOMETRIC_ONLY"`
	// StickyAuth keeps the platform prompt alive across an app switch.
	StickyAuth bool `env:"AUTHCORE_BIOMETRIC_STICKY"`
}

// PINConfig tunes the PIN fallback factor.
type PINConfig struct {
	// MaxAttempts is the failure budget before the PIN locks.
	MaxAttempts int `env:"AUTHCORE_PIN_MAX_ATTEMPTS"`
	// LockoutDuration is how long the PIN stays locked once the budget is
	// exhausted.
	LockoutDuration time.Duration `env:"AUTHCORE_PIN_LOCKOUT_DURATION"`
	// MinLength is enforced when a PIN is configured.
	MinLength int `env:"AUTHCORE_PIN_MIN_LENGTH"`
}

// AuditConfig tunes the audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"AUTHCORE_AUDIT_ENABLED"`
	BufferSize int  `env:"AUTHCORE_AUDIT_BUFFER"`
	// DropIfFull drops events instead of blocking the caller when the
	// buffer is full.
	DropIfFull bool `env:"AUTHCORE_AUDIT_DROP_IF_FULL"`
}

// MetricsConfig tunes the in-process metrics counters.
type MetricsConfig struct {
	Enabled bool `env:"AUTHCORE_METRICS_ENABLED"`
}

const (
	defaultMinPasswordLength    = 6
	defaultBiometricMaxAttempts = 3
	defaultPromptTimeout        = 3 * time.Second
	defaultResetWindow          = 24 * time.Hour
	defaultPINMaxAttempts       = 5
	defaultPINLockoutDuration   = 5 * time.Minute
	defaultPINMinLength         = 4
	defaultPromptReason         = "Authenticate to unlock your account"
)

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			MinPasswordLength: defaultMinPasswordLength,
		},
		Biometric: BiometricConfig{
			MaxAttempts:   defaultBiometricMaxAttempts,
			PromptTimeout: defaultPromptTimeout,
			ResetWindow:   defaultResetWindow,
			Reason:        defaultPromptReason,
			BiometricOnly: true,
			StickyAuth:    true,
		},
		PIN: PINConfig{
			MaxAttempts:     defaultPINMaxAttempts,
			LockoutDuration: defaultPINLockoutDuration,
			MinLength:       defaultPINMinLength,
		},
		Audit: AuditConfig{
			BufferSize: 64,
			DropIfFull: true,
		},
	}
}

// ConfigFromEnv returns the defaults overlaid with AUTHCORE_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values so a partially specified Config stays
// usable.
func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.Backend.MinPasswordLength <= 0 {
		c.Backend.MinPasswordLength = d.Backend.MinPasswordLength
	}
	if c.Biometric.MaxAttempts <= 0 {
		c.Biometric.MaxAttempts = d.Biometric.MaxAttempts
	}
	if c.Biometric.PromptTimeout <= 0 {
		c.Biometric.PromptTimeout = d.Biometric.PromptTimeout
	}
	if c.Biometric.ResetWindow <= 0 {
		c.Biometric.ResetWindow = d.Biometric.ResetWindow
	}
	if c.Biometric.Reason == "" {
		c.Biometric.Reason = d.Biometric.Reason
	}
	if c.PIN.MaxAttempts <= 0 {
		c.PIN.MaxAttempts = d.PIN.MaxAttempts
	}
	if c.PIN.LockoutDuration <= 0 {
		c.PIN.LockoutDuration = d.PIN.LockoutDuration
	}
	if c.PIN.MinLength <= 0 {
		c.PIN.MinLength = d.PIN.MinLength
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = d.Audit.BufferSize
	}
}

// Validate rejects configurations the engine cannot honor.
func (c *Config) Validate() error {
	if c.Biometric.MaxAttempts < 1 {
		return errors.New("biometric MaxAttempts must be >= 1")
	}
	if c.Biometric.PromptTimeout < 100*time.Millisecond {
		return errors.New("biometric PromptTimeout must be >= 100ms")
	}
	if c.Biometric.ResetWindow < time.Minute {
		return errors.New("biometric ResetWindow must be >= 1m")
	}
	if c.PIN.MaxAttempts < 1 {
		return errors.New("PIN MaxAttempts must be >= 1")
	}
	if c.PIN.LockoutDuration < time.Second {
		return errors.New("PIN LockoutDuration must be >= 1s")
	}
	if c.PIN.MinLength < 4 {
		return errors.New("PIN MinLength must be >= 4")
	}
	if c.Backend.MinPasswordLength < 1 {
		return errors.New("MinPasswordLength must be >= 1")
	}
	return nil
}
