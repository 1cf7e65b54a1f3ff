package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a memo shared through a Redis server. Keys carry the catalog
// version, so processes serving different snapshots never read each
// other's entries.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedis creates a Redis memo. A zero ttl keeps entries until evicted.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	keyPrefix := ""
	if prefix != "" {
		keyPrefix = prefix + ":memo:"
	}
	return &Redis{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, err
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.keyPrefix+key, value, r.ttl).Err()
}
