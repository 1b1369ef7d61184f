package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestLimiter(limit int, window time.Duration) (*Limiter, *time.Time) {
	l := New(limit, window)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllowUnderLimit(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)
	for i := 0; i < 5; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d denied under the limit", i)
		}
	}
	if l.Allow("client") {
		t.Error("request over the limit allowed")
	}
}

func TestKeysAreIsolated(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	l.Allow("a")
	l.Allow("a")
	if l.Allow("a") {
		t.Error("key a over its limit")
	}
	if !l.Allow("b") {
		t.Error("key b throttled by key a's traffic")
	}
}

func TestWindowSlides(t *testing.T) {
	l, now := newTestLimiter(10, time.Minute)
	for i := 0; i < 10; i++ {
		l.Allow("client")
	}
	if l.Allow("client") {
		t.Fatal("limit not enforced")
	}

	// Half a window later the previous count still weighs in at 50%,
	// so roughly half the budget is available again.
	*now = now.Add(90 * time.Second)
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("client") {
			allowed++
		}
	}
	if allowed == 0 {
		t.Error("no budget recovered after the window slid")
	}
	if allowed == 10 {
		t.Error("previous window ignored entirely")
	}

	// Two full idle windows clear all history.
	*now = now.Add(3 * time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow("client") {
			t.Fatalf("request %d denied after history expired", i)
		}
	}
}

func TestPrune(t *testing.T) {
	l, now := newTestLimiter(5, time.Minute)
	l.Allow("stale")
	*now = now.Add(5 * time.Minute)
	l.Allow("fresh")

	if removed := l.Prune(); removed != 1 {
		t.Errorf("pruned %d buckets, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("%d buckets remain, want 1", l.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	l := New(1000, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", g%2)
			for i := 0; i < 200; i++ {
				l.Allow(key)
			}
		}(g)
	}
	wg.Wait()
	if l.Len() != 2 {
		t.Errorf("%d keys tracked, want 2", l.Len())
	}
}
