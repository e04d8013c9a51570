package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rightfit/rightfit-navigation/auth"
	"github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/logging"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// RequestsPerSecond is the number of requests allowed per second.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size (bucket capacity).
	BurstSize int
	// KeyFunc extracts the rate limit key from the request.
	KeyFunc func(r *http.Request) string
	// ExcludeFunc determines if a request should be excluded from rate limiting.
	ExcludeFunc func(r *http.Request) bool
	// OnLimitExceeded is called when the rate limit is exceeded.
	OnLimitExceeded func(r *http.Request, key string)
	// CleanupInterval is how often to clean up idle buckets.
	CleanupInterval time.Duration
}

// DefaultRateLimiterConfig returns the defaults for the public API.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		KeyFunc:           TenantKeyFunc,
		CleanupInterval:   time.Minute,
	}
}

// IPKeyFunc returns the client IP: the first X-Forwarded-For hop, then
// X-Real-IP, then the connection address without its port.
func IPKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ip:" + xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// TenantKeyFunc keys authenticated requests by tenant and everything else
// by client IP.
func TenantKeyFunc(r *http.Request) string {
	if tenantID := auth.TenantID(r.Context()); tenantID != "" {
		return "tenant:" + tenantID
	}
	return IPKeyFunc(r)
}

// TokenBucket implements the token bucket algorithm.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a new token bucket.
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (b *TokenBucket) refill(now time.Time) {
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// Allow checks if a request is allowed and consumes a token if so.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tokens returns the current number of available tokens.
func (b *TokenBucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	return b.tokens
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	config  RateLimiterConfig
	buckets sync.Map // map[string]*TokenBucket
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = TenantKeyFunc
	}
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	if config.CleanupInterval > 0 {
		go rl.cleanupLoop()
	}

	return rl
}

func (rl *RateLimiter) getBucket(key string) *TokenBucket {
	if bucket, ok := rl.buckets.Load(key); ok {
		return bucket.(*TokenBucket)
	}

	bucket := NewTokenBucket(float64(rl.config.BurstSize), rl.config.RequestsPerSecond)
	actual, _ := rl.buckets.LoadOrStore(key, bucket)
	return actual.(*TokenBucket)
}

// allow reports whether the request may proceed and returns its bucket.
func (rl *RateLimiter) allow(r *http.Request) (bool, *TokenBucket) {
	if rl.config.ExcludeFunc != nil && rl.config.ExcludeFunc(r) {
		return true, nil
	}

	key := rl.config.KeyFunc(r)
	bucket := rl.getBucket(key)

	if !bucket.Allow() {
		if rl.config.OnLimitExceeded != nil {
			rl.config.OnLimitExceeded(r, key)
		}
		return false, bucket
	}
	return true, bucket
}

// Allow checks if a request should be allowed.
func (rl *RateLimiter) Allow(r *http.Request) bool {
	ok, _ := rl.allow(r)
	return ok
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes buckets that are full (not recently used).
func (rl *RateLimiter) cleanup() {
	rl.buckets.Range(func(key, value interface{}) bool {
		bucket := value.(*TokenBucket)
		if bucket.Tokens() >= float64(rl.config.BurstSize)*0.99 {
			rl.buckets.Delete(key)
		}
		return true
	})
}

// Close stops the cleanup loop.
func (rl *RateLimiter) Close() {
	rl.cancel()
}

// Middleware returns an HTTP middleware that applies rate limiting. It must
// run after authentication for tenant keys to apply.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, bucket := rl.allow(r)
		if bucket != nil {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.BurstSize))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatFloat(bucket.Tokens(), 'f', 0, 64))
		}

		if !ok {
			w.Header().Set("Retry-After", "1")
			errors.WriteError(w, errors.New(errors.CodeRateLimited, "Too many requests. Please slow down."),
				logging.TraceIDFromContext(r.Context()))
			return
		}

		next.ServeHTTP(w, r)
	})
}
