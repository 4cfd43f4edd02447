package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed right now, consuming it if so
	Allow() bool
	// Wait blocks until the limiter allows another request or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the limiter state
	Reset()
}

// RequestLimiter paces every HTTP request sent to the site with a token
// bucket refilled at a per-minute rate.
type RequestLimiter struct {
	perMinute int
	limiter   *rate.Limiter
	mu        sync.Mutex
}

// NewRequestLimiter allows perMinute requests per minute with a burst of one.
// A non-positive perMinute disables limiting.
func NewRequestLimiter(perMinute int) *RequestLimiter {
	rl := &RequestLimiter{perMinute: perMinute}
	rl.limiter = rl.newLimiter()
	return rl
}

func (rl *RequestLimiter) newLimiter() *rate.Limiter {
	if rl.perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), 1)
}

func (rl *RequestLimiter) current() *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.limiter
}

// Allow checks if a request can proceed
func (rl *RequestLimiter) Allow() bool {
	return rl.current().Allow()
}

// Wait blocks until a token is available
func (rl *RequestLimiter) Wait(ctx context.Context) error {
	return rl.current().Wait(ctx)
}

// Reset refills the bucket
func (rl *RequestLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter = rl.newLimiter()
}

// Pacer sleeps a fixed delay before every call except the first one after
// construction or Reset. The delay does not shrink when the caller was busy
// between calls.
type Pacer struct {
	delay   time.Duration
	started bool
	sleep   func(ctx context.Context, d time.Duration) error
	mu      sync.Mutex
}

// NewPacer creates a pacer with the given delay
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// Allow reports whether a call may proceed without sleeping, which is only
// the first one after Reset.
func (p *Pacer) Allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && p.delay > 0 {
		return false
	}
	p.started = true
	return true
}

// Wait returns immediately on the first call and sleeps the full delay on
// every call after it.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	wait := p.started
	p.started = true
	p.mu.Unlock()

	if !wait {
		return ctx.Err()
	}
	return p.sleep(ctx, p.delay)
}

// Reset makes the next call pass immediately
func (p *Pacer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
}

// Nop never blocks
type Nop struct{}

func (Nop) Allow() bool                    { return true }
func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
func (Nop) Reset()                         {}
