package cache

import (
	"context"
	"testing"
	"time"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	return c.t
}

func newTestCache(t *testing.T) (*Cache[string], *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2018, time.March, 25, 0, 0, 0, 0, time.UTC)}
	c := New[string]()
	c.now = clk.now
	return c, clk
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(t)

	if _, ok := c.Get("foo"); ok {
		t.Errorf("got hit on empty cache")
	}

	c.Set("foo", "bar", time.Minute)
	got, ok := c.Get("foo")
	if !ok {
		t.Fatalf("got miss, want hit")
	}
	if got != "bar" {
		t.Errorf("Got %q, want %q", got, "bar")
	}
}

func TestExpiry(t *testing.T) {
	c, clk := newTestCache(t)

	c.Set("foo", "bar", time.Minute)

	clk.t = clk.t.Add(59 * time.Second)
	if _, ok := c.Get("foo"); !ok {
		t.Errorf("got miss before expiry")
	}

	clk.t = clk.t.Add(time.Second)
	if _, ok := c.Get("foo"); ok {
		t.Errorf("got hit at expiry")
	}
	if n := c.Len(); n != 0 {
		t.Errorf("expired entry not removed on Get, Len = %d", n)
	}
}

func TestClean(t *testing.T) {
	c, clk := newTestCache(t)

	c.Set("short", "a", time.Second)
	c.Set("long", "b", time.Hour)

	clk.t = clk.t.Add(time.Minute)
	c.clean()

	if n := c.Len(); n != 1 {
		t.Errorf("Len = %d after clean, want 1", n)
	}
	if _, ok := c.Get("long"); !ok {
		t.Errorf("unexpired entry was cleaned")
	}
}

func TestCleanEveryNonPositive(t *testing.T) {
	cases := []struct {
		name     string
		interval time.Duration
	}{
		{"zero", 0},
		{"negative", -time.Hour},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cache, _ := newTestCache(t)

			done := make(chan struct{})
			go func() {
				defer close(done)
				cache.CleanEvery(context.Background(), c.interval)
			}()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatalf("CleanEvery(%v) did not return", c.interval)
			}
		})
	}
}

func TestCleanEvery(t *testing.T) {
	cache, clk := newTestCache(t)
	cache.Set("foo", "bar", time.Minute)
	clk.t = clk.t.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.CleanEvery(ctx, time.Millisecond)
	}()

	deadline := time.Now().Add(time.Second)
	for cache.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if got := cache.Len(); got != 0 {
		t.Errorf("got %d entries after cleaning, want 0", got)
	}
}
