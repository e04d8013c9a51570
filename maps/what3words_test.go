package maps

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestWhat3WordsClient_CachesResult(t *testing.T) {
	calls := 0
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v3/convert-to-3wa" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("coordinates") != "51.520847,-0.195521" {
			t.Errorf("coordinates = %s", r.URL.Query().Get("coordinates"))
		}
		_, _ = w.Write([]byte(`{"words": "filled.count.soap"}`))
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := NewWhat3WordsClient(testConfig(server.URL), nil, nil, NewRedisCache(rdb, ""), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		words, err := client.ConvertTo3WA(ctx, pt(51.520847, -0.195521))
		if err != nil {
			t.Fatalf("ConvertTo3WA: %v", err)
		}
		if words != "filled.count.soap" {
			t.Errorf("words = %q", words)
		}
	}

	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
	if !mr.Exists("maps:w3w:51.520847,-0.195521") {
		t.Error("expected cached key in redis")
	}
}

func TestWhat3WordsClient_ErrorBody(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"code": "BadCoordinates", "message": "latitude must be >=-90 and <= 90"}}`))
	})

	client := NewWhat3WordsClient(testConfig(server.URL), nil, nil, nil, nil)
	if _, err := client.ConvertTo3WA(context.Background(), pt(0, 0)); err == nil {
		t.Error("expected error for error body")
	}
}

func TestWhat3WordsClient_Disabled(t *testing.T) {
	cfg := testConfig("http://unused.invalid")
	cfg.What3WordsAPIKey = ""
	client := NewWhat3WordsClient(cfg, nil, nil, nil, nil)

	if _, err := client.ConvertTo3WA(context.Background(), pt(0, 0)); !errors.Is(err, ErrProviderDisabled) {
		t.Errorf("err = %v, want ErrProviderDisabled", err)
	}
}

func TestInMemoryCache(t *testing.T) {
	cache := NewInMemoryCache()
	ctx := context.Background()

	if v, err := cache.Get(ctx, "missing"); v != nil || err != nil {
		t.Errorf("miss = %q, %v", v, err)
	}

	_ = cache.Set(ctx, "k", []byte("v"), 0)
	if v, _ := cache.Get(ctx, "k"); v != nil {
		t.Errorf("expired entry returned %q", v)
	}

	_ = cache.Set(ctx, "k", []byte("v"), 1<<40)
	if v, _ := cache.Get(ctx, "k"); string(v) != "v" {
		t.Errorf("Get = %q, want v", v)
	}
}
