package authcore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/softlock/authcore/vault"
)

// deviceIdentity derives one stable per-install fingerprint, generated once
// and cached in memory and in the vault.
type deviceIdentity struct {
	vault vault.Vault

	mu     sync.Mutex
	cached string
}

// ID returns the device fingerprint, minting and persisting it on first use.
func (d *deviceIdentity) ID(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != "" {
		return d.cached, nil
	}

	id, err := d.vault.Get(ctx, keyDeviceID)
	if err == nil && id != "" {
		d.cached = id
		return id, nil
	}
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := d.vault.Set(ctx, keyDeviceID, id); err != nil {
		return "", err
	}
	d.cached = id
	return id, nil
}
