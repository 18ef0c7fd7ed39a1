// Package ratelimit spaces outbound calls per provider channel.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts wall time so tests can advance it without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock uses the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	return SleepWithContext(ctx, d)
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Limiter enforces a minimum interval between calls on the same channel.
// Channels are independent; a zero interval disables waiting entirely.
type Limiter struct {
	interval time.Duration
	clock    Clock

	mu       sync.Mutex
	channels map[string]*rate.Limiter

	waits atomic.Int64
}

// New builds a limiter. A nil clock uses SystemClock.
func New(interval time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{
		interval: interval,
		clock:    clock,
		channels: make(map[string]*rate.Limiter),
	}
}

// Interval returns the configured spacing.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until the channel may issue its next call. The first call on a
// channel never waits.
func (l *Limiter) Wait(ctx context.Context, channel string) error {
	l.waits.Add(1)
	if l.interval <= 0 {
		return ctx.Err()
	}
	lim := l.channel(channel)

	now := l.clock.Now()
	reservation := lim.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := l.clock.Sleep(ctx, delay); err != nil {
		reservation.CancelAt(l.clock.Now())
		return err
	}
	return nil
}

// Waits reports how many times Wait has been called.
func (l *Limiter) Waits() int64 { return l.waits.Load() }

func (l *Limiter) channel(name string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.channels[name]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.channels[name] = lim
	}
	return lim
}
