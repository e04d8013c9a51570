package maps

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestIntervalLimiter_SpacesBackToBackCalls(t *testing.T) {
	const rate = 10 // 100ms interval
	limiter := NewIntervalLimiter(rate)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		grants []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(ctx, ProviderNominatim); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(grants) != 3 {
		t.Fatalf("got %d grants, want 3", len(grants))
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].Before(grants[j]) })

	// Slack for timestamps taken just after Wait returns.
	minGap := time.Second/rate - 20*time.Millisecond
	for i := 1; i < len(grants); i++ {
		if gap := grants[i].Sub(grants[i-1]); gap < minGap {
			t.Errorf("grants %d and %d only %v apart, want >= %v", i-1, i, gap, time.Second/rate)
		}
	}
}

func TestIntervalLimiter_TwoSequentialCalls(t *testing.T) {
	limiter := NewIntervalLimiter(20) // 50ms
	ctx := context.Background()

	start := time.Now()
	if err := limiter.Wait(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if err := limiter.Wait(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("two acquisitions took %v, want >= 50ms", elapsed)
	}
}

func TestIntervalLimiter_ContextCancelled(t *testing.T) {
	limiter := NewIntervalLimiter(0.5) // 2s
	if err := limiter.Wait(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait err = %v, want deadline exceeded", err)
	}
}

func TestIntervalLimiter_Allow(t *testing.T) {
	limiter := NewIntervalLimiter(1)
	ctx := context.Background()

	if !limiter.Allow(ctx, "") {
		t.Fatal("first Allow should grant")
	}
	if limiter.Allow(ctx, "") {
		t.Error("second Allow within the interval should deny")
	}
}

func TestIntervalLimiter_NonPositiveRate(t *testing.T) {
	if got := NewIntervalLimiter(0).Interval(); got != time.Second {
		t.Errorf("Interval() = %v, want 1s", got)
	}
}

func TestRedisIntervalLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisIntervalLimiter(client, "test:", 20) // 50ms
	ctx := context.Background()

	if !limiter.Allow(ctx, ProviderNominatim) {
		t.Fatal("first Allow should grant")
	}
	if limiter.Allow(ctx, ProviderNominatim) {
		t.Error("second Allow within the interval should deny")
	}
	if !limiter.Allow(ctx, "other") {
		t.Error("keys should be limited independently")
	}

	start := time.Now()
	if err := limiter.Wait(ctx, ProviderNominatim); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := limiter.Wait(ctx, ProviderNominatim); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("two waits took %v, want >= 50ms", elapsed)
	}
}

func TestRedisIntervalLimiter_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	limiter := NewRedisIntervalLimiter(client, "", 1)
	if limiter.Allow(context.Background(), "k") {
		t.Error("Allow should deny when Redis is unreachable")
	}
	if err := limiter.Wait(context.Background(), "k"); err == nil {
		t.Error("Wait should fail when Redis is unreachable")
	}
}

func TestNoopRateLimiter(t *testing.T) {
	l := NewNoopRateLimiter()
	if !l.Allow(context.Background(), "k") || l.Wait(context.Background(), "k") != nil {
		t.Error("noop limiter should always grant")
	}
}
