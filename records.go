package authcore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/softlock/authcore/vault"
)

// Vault key layout. Composite records are one JSON document under one key:
// a single serialized write, so a reader can never observe a half-updated
// record.
const (
	keyCredentials       = "auth:credentials"
	keyBiometricBinding  = "auth:biometric"
	keyBiometricAttempts = "auth:attempts:biometric"
	keyPIN               = "auth:pin"
	keyLockout           = "auth:lockout"
	keyDeviceID          = "auth:device_id"
)

// readRecord decodes the JSON record at key into out. Returns
// vault.ErrNotFound when the key is absent; any decode failure is a storage
// fault, since only this package writes these keys.
func readRecord(ctx context.Context, v vault.Vault, key string, out interface{}) error {
	raw, err := v.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: corrupt record at %s: %v", vault.ErrStorage, key, err)
	}
	return nil
}

// writeRecord encodes rec as one JSON document under key.
func writeRecord(ctx context.Context, v vault.Vault, key string, rec interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record for %s: %v", vault.ErrStorage, key, err)
	}
	return v.Set(ctx, key, string(raw))
}

// credentialStore owns the Credential Record.
type credentialStore struct {
	vault vault.Vault
}

// Read returns the stored record, or an empty one when none exists.
func (s *credentialStore) Read(ctx context.Context) (*Credentials, error) {
	var creds Credentials
	if err := readRecord(ctx, s.vault, keyCredentials, &creds); err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return &Credentials{}, nil
		}
		return nil, err
	}
	return &creds, nil
}

// Write persists the record as a single serialized write.
func (s *credentialStore) Write(ctx context.Context, creds *Credentials) error {
	return writeRecord(ctx, s.vault, keyCredentials, creds)
}

// Clear wipes every field of the record.
func (s *credentialStore) Clear(ctx context.Context) error {
	return s.Write(ctx, &Credentials{})
}
