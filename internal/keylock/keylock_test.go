package keylock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgo/railgo/internal/keylock"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("should serialize holders of the same key", func(t *testing.T) {
		km := keylock.New()

		const workers = 16
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock("T1|2025-06-01")
				defer unlock()
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
			}()
		}
		wg.Wait()

		assert.Equal(t, workers, counter)
	})

	t.Run("should not block holders of different keys", func(t *testing.T) {
		km := keylock.New()

		unlockA := km.Lock("T1|2025-06-01")
		defer unlockA()

		done := make(chan struct{})
		go func() {
			unlockB := km.Lock("T1|2025-06-02")
			unlockB()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on a different key blocked")
		}
	})

	t.Run("should allow relocking after release", func(t *testing.T) {
		km := keylock.New()

		unlock := km.Lock("key")
		unlock()

		require.NotPanics(t, func() {
			unlock = km.Lock("key")
			unlock()
		})
	})
}
