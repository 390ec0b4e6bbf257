package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

// Redis implements caching layer for feeds using Redis
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

// NewRedis connects to Redis. Zero ttl keeps entries forever.
func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis URL")
	}

	client := redis.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.WithContext(ctx).Get(key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to query cache key %q", key)
	}

	return Unmarshal(data)
}

func (c *Redis) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := Marshal(entry)
	if err != nil {
		return err
	}

	return c.client.WithContext(ctx).Set(key, data, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := c.client.WithContext(ctx).Del(key).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete cache key %q", key)
	}

	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
