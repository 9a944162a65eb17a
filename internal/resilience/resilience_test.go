package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgo/railgo/internal/resilience"
)

func fastConfig() resilience.Config {
	return resilience.Config{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		OpenTimeout:     50 * time.Millisecond,
		MinCalls:        4,
		FailureRatio:    0.5,
	}
}

func TestCaller_Do(t *testing.T) {
	t.Run("should retry transient failures up to the attempt budget", func(t *testing.T) {
		c := resilience.NewCaller("test.retry", fastConfig())

		calls := 0
		err := c.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("should give up after the attempt budget", func(t *testing.T) {
		c := resilience.NewCaller("test.exhaust", fastConfig())

		calls := 0
		boom := errors.New("upstream 500")
		err := c.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return boom
		})

		require.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("should not retry permanent failures", func(t *testing.T) {
		c := resilience.NewCaller("test.permanent", fastConfig())

		calls := 0
		bad := errors.New("bad request")
		err := c.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return resilience.Permanent(bad)
		})

		require.ErrorIs(t, err, bad)
		assert.Equal(t, 1, calls)
	})

	t.Run("should fail fast once the breaker opens", func(t *testing.T) {
		c := resilience.NewCaller("test.open", fastConfig())

		boom := errors.New("upstream down")
		for i := 0; i < 4; i++ {
			_ = c.Do(context.Background(), func(ctx context.Context) error {
				return boom
			})
		}

		calls := 0
		err := c.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})

		require.ErrorIs(t, err, resilience.ErrServiceUnavailable)
		assert.Zero(t, calls, "open breaker must not invoke the call")
	})

	t.Run("should allow a probe after the open timeout", func(t *testing.T) {
		cfg := fastConfig()
		c := resilience.NewCaller("test.halfopen", cfg)

		boom := errors.New("upstream down")
		for i := 0; i < 4; i++ {
			_ = c.Do(context.Background(), func(ctx context.Context) error {
				return boom
			})
		}
		require.ErrorIs(t,
			c.Do(context.Background(), func(ctx context.Context) error { return nil }),
			resilience.ErrServiceUnavailable,
		)

		time.Sleep(cfg.OpenTimeout + 10*time.Millisecond)

		err := c.Do(context.Background(), func(ctx context.Context) error { return nil })
		assert.NoError(t, err, "half-open probe should run and close the breaker")
	})
}

func TestGroup(t *testing.T) {
	t.Run("should isolate breakers per call site", func(t *testing.T) {
		g := resilience.NewGroup(fastConfig())

		boom := errors.New("down")
		for i := 0; i < 4; i++ {
			_ = g.Do(context.Background(), "site.a", func(ctx context.Context) error {
				return boom
			})
		}

		require.ErrorIs(t,
			g.Do(context.Background(), "site.a", func(ctx context.Context) error { return nil }),
			resilience.ErrServiceUnavailable,
		)
		assert.NoError(t,
			g.Do(context.Background(), "site.b", func(ctx context.Context) error { return nil }),
		)
	})

	t.Run("should reuse the caller for one name", func(t *testing.T) {
		g := resilience.NewGroup(fastConfig())
		assert.Same(t, g.Caller("x"), g.Caller("x"))
	})
}
