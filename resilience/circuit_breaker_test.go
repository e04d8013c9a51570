package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream 503")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.Now
	return cb, clock
}

func fail(context.Context) error    { return errUpstream }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{Name: "tomtom", FailureThreshold: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, fail); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("function should not run while open")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{
		Name:             "what3words",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	clock.Advance(time.Minute)
	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("probe err = %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", cb.State())
	}

	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("second probe err = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitBreaker_ReopensOnHalfOpenFailure(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{Name: "tomtom", FailureThreshold: 1, OpenTimeout: time.Second})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.Advance(time.Second)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateOpen {
		t.Errorf("state = %s, want open", cb.State())
	}
	if err := cb.Execute(ctx, succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen right after reopening", err)
	}
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	errClient := errors.New("400 bad request")
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		Name:             "tomtom",
		FailureThreshold: 1,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, errClient)
		},
	})

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return errClient })
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, client errors should not open the circuit", cb.State())
	}
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{Name: "tomtom", FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cb.Execute(ctx, succeed); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCall(t *testing.T) {
	cb, _ := newTestBreaker(DefaultCircuitBreakerConfig("what3words"))

	got, err := Call(context.Background(), cb, func(context.Context) (string, error) {
		return "index.home.raft", nil
	})
	if err != nil || got != "index.home.raft" {
		t.Errorf("Call() = %q, %v", got, err)
	}

	got, err = Call[string](context.Background(), nil, func(context.Context) (string, error) {
		return "no.breaker.here", nil
	})
	if err != nil || got != "no.breaker.here" {
		t.Errorf("Call(nil breaker) = %q, %v", got, err)
	}
}

func TestCircuitBreaker_ResetAndMetrics(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{Name: "tomtom", FailureThreshold: 2})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	if m := cb.Metrics(); m.Failures != 1 || m.State != "closed" || m.Name != "tomtom" {
		t.Errorf("metrics = %+v", m)
	}

	_ = cb.Execute(ctx, fail)
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("state after reset = %s", cb.State())
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "tomtom", FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = cb.Execute(context.Background(), fail)
			} else {
				_ = cb.Execute(context.Background(), succeed)
			}
		}(i)
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		StateClosed:      "closed",
		StateOpen:        "open",
		StateHalfOpen:    "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
