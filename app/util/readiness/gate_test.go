package readiness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateReleasesAllWaiters(t *testing.T) {
	g := New[int]()
	assert.False(t, g.Ready())

	const waiters = 8

	var wg sync.WaitGroup
	results := make(chan int, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := g.Wait(context.Background())
			if err == nil {
				results <- v
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.True(t, g.Resolve(42, nil))

	wg.Wait()
	close(results)

	count := 0
	for v := range results {
		assert.Equal(t, 42, v)
		count++
	}
	assert.Equal(t, waiters, count)
	assert.True(t, g.Ready())
}

func TestGateResolvesOnce(t *testing.T) {
	g := New[string]()

	assert.True(t, g.Resolve("first", nil))
	assert.False(t, g.Resolve("second", errors.New("ignored")))

	v, err := g.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestGateCarriesError(t *testing.T) {
	g := New[*int]()
	loadErr := errors.New("load failed")
	g.Resolve(nil, loadErr)

	_, err := g.Wait(context.Background())
	assert.ErrorIs(t, err, loadErr)
}

func TestGateWaitHonoursContext(t *testing.T) {
	g := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, g.Ready())
}
