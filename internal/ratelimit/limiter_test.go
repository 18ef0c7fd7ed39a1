package ratelimit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nrw/internal/ratelimit"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
	err   error
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestWaitSpacesCallsPerChannel(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	lim := ratelimit.New(time.Second, clock)
	ctx := context.Background()

	if err := lim.Wait(ctx, "omdb"); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 0 {
		t.Fatalf("first call must not wait, slept %v", clock.slept)
	}

	if err := lim.Wait(ctx, "omdb"); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != time.Second {
		t.Fatalf("expected a 1s wait, got %v", clock.slept)
	}

	if err := lim.Wait(ctx, "wikidata"); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 1 {
		t.Fatalf("other channels must not wait, got %v", clock.slept)
	}

	clock.advance(3 * time.Second)
	if err := lim.Wait(ctx, "omdb"); err != nil {
		t.Fatal(err)
	}
	if len(clock.slept) != 1 {
		t.Fatalf("no wait expected after the interval elapsed, got %v", clock.slept)
	}
	if lim.Waits() != 4 {
		t.Fatalf("expected 4 recorded waits, got %d", lim.Waits())
	}
}

func TestWaitZeroIntervalNeverSleeps(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	lim := ratelimit.New(0, clock)
	for range 3 {
		if err := lim.Wait(context.Background(), "omdb"); err != nil {
			t.Fatal(err)
		}
	}
	if len(clock.slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", clock.slept)
	}
}

func TestWaitPropagatesCancellation(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	lim := ratelimit.New(time.Second, clock)
	if err := lim.Wait(context.Background(), "omdb"); err != nil {
		t.Fatal(err)
	}
	clock.err = context.Canceled
	if err := lim.Wait(context.Background(), "omdb"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestSleepWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ratelimit.SleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if err := ratelimit.SleepWithContext(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
}
