package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	// URL is a redis:// or rediss:// URL; rediss enables TLS.
	URL         string
	PoolSize    int
	MinIdleConn int
}

// DefaultRedisConfig returns the pool defaults.
func DefaultRedisConfig(url string) RedisConfig {
	return RedisConfig{
		URL:         url,
		PoolSize:    50,
		MinIdleConn: 5,
	}
}

// RedisClient wraps the Redis client.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, config RedisConfig) (*RedisClient, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConn

	r := &RedisClient{client: redis.NewClient(opts)}
	if err := r.PingWithRetry(ctx); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return r, nil
}

// NewRedisClientFrom wraps an existing client.
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Client returns the underlying redis client.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Ping checks the connection.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PingWithRetry pings until Redis answers or the connect policy gives up.
func (r *RedisClient) PingWithRetry(ctx context.Context) error {
	return Retry(ctx, ConnectRetryConfig(), func() error {
		return r.Ping(ctx)
	})
}

// Close closes the client.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// ErrLockNotAcquired is returned when another holder owns the lock.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Lock is a distributed lock held in Redis.
type Lock struct {
	client *RedisClient
	key    string
	value  string
}

// AcquireLock attempts to take key for ttl.
func (r *RedisClient) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	value := uuid.NewString()
	acquired, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}
	return &Lock{client: r, key: key, value: value}, nil
}

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

const extendScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// Release releases the lock if it is still held by this holder.
func (l *Lock) Release(ctx context.Context) error {
	return l.client.client.Eval(ctx, releaseScript, []string{l.key}, l.value).Err()
}

// Extend resets the lock TTL if it is still held by this holder.
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	return l.client.client.Eval(ctx, extendScript, []string{l.key}, l.value, ttl.Milliseconds()).Err()
}
