package maps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IntervalLimiter grants at most one call per interval. The mutex is held
// while computing the wait, sleeping and recording the grant, so concurrent
// callers are serialised in call order and never measure against a stale
// timestamp. One instance guards one provider; the key is not used.
type IntervalLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewIntervalLimiter creates a limiter allowing ratePerSecond calls per
// second. A non-positive rate is treated as 1.
func NewIntervalLimiter(ratePerSecond float64) *IntervalLimiter {
	return &IntervalLimiter{interval: intervalFor(ratePerSecond)}
}

func intervalFor(ratePerSecond float64) time.Duration {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return time.Duration(float64(time.Second) / ratePerSecond)
}

// Interval returns the minimum spacing between grants.
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the interval has elapsed since the previous grant. It
// only fails when ctx is done first.
func (l *IntervalLimiter) Wait(ctx context.Context, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if wait := l.interval - time.Since(l.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}

// Allow grants immediately if the interval has already elapsed.
func (l *IntervalLimiter) Allow(_ context.Context, _ string) bool {
	if !l.mu.TryLock() {
		return false
	}
	defer l.mu.Unlock()

	if !l.last.IsZero() && time.Since(l.last) < l.interval {
		return false
	}
	l.last = time.Now()
	return true
}

// intervalScript grants when no grant was recorded within the interval and
// otherwise returns the milliseconds left to wait.
var intervalScript = redis.NewScript(`
local last = redis.call('GET', KEYS[1])
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
if last then
	local wait = tonumber(last) + interval - now
	if wait > 0 then
		return wait
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 0
`)

// RedisIntervalLimiter is IntervalLimiter shared by every replica through
// Redis, so the provider sees one client regardless of scale-out.
type RedisIntervalLimiter struct {
	client    redis.UniversalClient
	keyPrefix string
	interval  time.Duration
}

// NewRedisIntervalLimiter creates a Redis-backed interval limiter.
func NewRedisIntervalLimiter(client redis.UniversalClient, keyPrefix string, ratePerSecond float64) *RedisIntervalLimiter {
	if keyPrefix == "" {
		keyPrefix = "maps:ratelimit:"
	}
	return &RedisIntervalLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		interval:  intervalFor(ratePerSecond),
	}
}

func (r *RedisIntervalLimiter) try(ctx context.Context, key string) (time.Duration, error) {
	intervalMs := r.interval.Milliseconds()
	if intervalMs < 1 {
		intervalMs = 1
	}

	wait, err := intervalScript.Run(ctx, r.client, []string{r.keyPrefix + key},
		time.Now().UnixMilli(), intervalMs, 2*intervalMs).Int64()
	if err != nil {
		return 0, fmt.Errorf("rate limiter error: %w", err)
	}
	return time.Duration(wait) * time.Millisecond, nil
}

// Allow grants immediately if no grant was recorded within the interval.
// Redis errors deny the call.
func (r *RedisIntervalLimiter) Allow(ctx context.Context, key string) bool {
	wait, err := r.try(ctx, key)
	return err == nil && wait == 0
}

// Wait blocks until the interval has elapsed since the last grant on any
// replica.
func (r *RedisIntervalLimiter) Wait(ctx context.Context, key string) error {
	for {
		wait, err := r.try(ctx, key)
		if err != nil {
			return err
		}
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// NoopRateLimiter is a rate limiter that allows everything.
// Use for testing or when rate limiting is disabled.
type NoopRateLimiter struct{}

// NewNoopRateLimiter creates a new noop rate limiter.
func NewNoopRateLimiter() *NoopRateLimiter {
	return &NoopRateLimiter{}
}

// Allow always returns true.
func (r *NoopRateLimiter) Allow(ctx context.Context, key string) bool {
	return true
}

// Wait always returns immediately.
func (r *NoopRateLimiter) Wait(ctx context.Context, key string) error {
	return nil
}
