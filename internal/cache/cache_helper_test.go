package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCacheHelper(client, "trail:"), mr
}

func TestSetAndGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	type payload struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}

	if err := helper.Set(ctx, "id:1", payload{ID: 1, Title: "Go Basics"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != 1 || got.Title != "Go Basics" {
		t.Errorf("got %+v", got)
	}
}

func TestGetMissReturnsNotFound(t *testing.T) {
	helper, _ := newTestHelper(t)

	var dest map[string]any
	if err := helper.Get(context.Background(), "id:404", &dest); err != ErrCacheNotFound {
		t.Errorf("err = %v, want ErrCacheNotFound", err)
	}
}

func TestNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "trail:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", "x", time.Minute); err != nil {
		t.Errorf("set with nil client: %v", err)
	}
	var dest string
	if err := helper.Get(ctx, "id:1", &dest); err != ErrCacheNotAvailable {
		t.Errorf("get err = %v, want ErrCacheNotAvailable", err)
	}
	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("delete with nil client: %v", err)
	}
}

func TestInvalidatePattern(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"modules:7:page:1", "modules:7:page:2", "modules:8:page:1"} {
		if err := helper.Set(ctx, key, "v", time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "modules:7:*"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if mr.Exists("trail:modules:7:page:1") || mr.Exists("trail:modules:7:page:2") {
		t.Error("matching keys survived invalidation")
	}
	if !mr.Exists("trail:modules:8:page:1") {
		t.Error("non-matching key was removed")
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]string{"title": "Concurrency"}, nil
	}

	var first map[string]string
	if err := helper.CacheOrExecute(ctx, "id:9", &first, time.Minute, fetch); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if calls != 1 || first["title"] != "Concurrency" {
		t.Fatalf("calls=%d first=%v", calls, first)
	}

	// The async cache fill races the second read; wait for the key.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := helper.Exists(ctx, "id:9"); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	var second map[string]string
	if err := helper.CacheOrExecute(ctx, "id:9", &second, time.Minute, fetch); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch ran %d times, want 1 (second read should hit cache)", calls)
	}
}
