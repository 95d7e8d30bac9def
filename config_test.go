package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Biometric.MaxAttempts != 3 || cfg.PIN.MaxAttempts != 5 {
		t.Fatalf("unexpected attempt budgets: %+v", cfg)
	}
	if cfg.Biometric.ResetWindow != 24*time.Hour {
		t.Fatalf("ResetWindow = %v", cfg.Biometric.ResetWindow)
	}
}

func TestApplyDefaultsFillsZeroes(t *testing.T) {
	cfg := Config{}
	cfg.Biometric.MaxAttempts = 10

	cfg.applyDefaults()
	if cfg.Biometric.MaxAttempts != 10 {
		t.Fatal("explicit value overwritten")
	}
	if cfg.Biometric.PromptTimeout != defaultPromptTimeout {
		t.Fatalf("PromptTimeout = %v", cfg.Biometric.PromptTimeout)
	}
	if cfg.PIN.MinLength != defaultPINMinLength {
		t.Fatalf("MinLength = %d", cfg.PIN.MinLength)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("filled config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Biometric.PromptTimeout = 10 * time.Millisecond },
		func(c *Config) { c.Biometric.ResetWindow = 30 * time.Second },
		func(c *Config) { c.PIN.MinLength = 2 },
		func(c *Config) { c.PIN.LockoutDuration = 100 * time.Millisecond },
	}
	for i, mutate := range cases {
		cfg := defaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: invalid config accepted", i)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHCORE_BIOMETRIC_MAX_ATTEMPTS", "7")
	t.Setenv("AUTHCORE_PIN_LOCKOUT_DURATION", "10m")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Biometric.MaxAttempts != 7 {
		t.Fatalf("MaxAttempts = %d", cfg.Biometric.MaxAttempts)
	}
	if cfg.PIN.LockoutDuration != 10*time.Minute {
		t.Fatalf("LockoutDuration = %v", cfg.PIN.LockoutDuration)
	}
	// Untouched values keep their defaults.
	if cfg.PIN.MaxAttempts != defaultPINMaxAttempts {
		t.Fatalf("PIN MaxAttempts = %d", cfg.PIN.MaxAttempts)
	}
}
