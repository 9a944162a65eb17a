// Package resilience wraps cross-service calls in retry with exponential
// backoff plus a circuit breaker per named call site. An open breaker fails
// fast with ErrServiceUnavailable so callers can fall back or compensate
// without burning their deadline.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

var ErrServiceUnavailable = errors.New("service unavailable")

type Config struct {
	MaxAttempts     int           // total attempts per call, retries included
	InitialInterval time.Duration // first backoff delay, jittered
	OpenTimeout     time.Duration // how long an open breaker stays open
	MinCalls        uint32        // calls observed before the breaker may trip
	FailureRatio    float64       // trip threshold over the observed window
}

// Caller is the envelope for one named call site.
type Caller struct {
	cb  *gobreaker.CircuitBreaker
	cfg Config
}

func NewCaller(name string, cfg Config) *Caller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}

	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	if cfg.MinCalls == 0 {
		cfg.MinCalls = 20
	}

	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // one probe while half-open
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinCalls &&
				float64(c.TotalFailures)/float64(c.Requests) > cfg.FailureRatio
		},
	})

	return &Caller{cb: cb, cfg: cfg}
}

// Do runs fn through the breaker, retrying retryable failures with jittered
// exponential backoff. A failure wrapped with Permanent (4xx-class) is
// surfaced immediately and still counts against the breaker.
//
// Returns:
//   - error: resilience.ErrServiceUnavailable when the breaker is open,
//     otherwise the last error fn returned.
func (c *Caller) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	const op = "resilience.Caller.Do"

	_, err := c.cb.Execute(func() (any, error) {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = c.cfg.InitialInterval

		return nil, backoff.Retry(
			func() error { return fn(ctx) },
			backoff.WithContext(
				backoff.WithMaxRetries(bo, uint64(c.cfg.MaxAttempts-1)),
				ctx,
			),
		)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s:%s:%w", op, c.cb.Name(), ErrServiceUnavailable)
	}

	return err
}

// Permanent marks err as not worth retrying. The breaker still records it
// as a failure.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Group hands out one Caller per call-site name, sharing one Config.
type Group struct {
	mu      sync.Mutex
	cfg     Config
	callers map[string]*Caller
}

func NewGroup(cfg Config) *Group {
	return &Group{cfg: cfg, callers: make(map[string]*Caller)}
}

func (g *Group) Caller(name string) *Caller {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.callers[name]
	if !ok {
		c = NewCaller(name, g.cfg)
		g.callers[name] = c
	}

	return c
}

// Do routes through the named call site's breaker.
func (g *Group) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return g.Caller(name).Do(ctx, fn)
}
