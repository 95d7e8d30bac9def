package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a [Vault] backed by a Redis instance, for hosts that already run
// the client state through a server-side enclave (kiosk and managed-device
// deployments). Encryption at rest is the Redis deployment's responsibility;
// this adapter provides the contract surface and key namespacing.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client. All keys are stored under prefix (default "cv").
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "cv"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

// Get implements [Vault].
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return v, nil
}

// Set implements [Vault].
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Delete implements [Vault].
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Clear implements [Vault]. Only keys under this adapter's prefix are wiped.
func (r *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":*", 100).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
