package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMutualExclusion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(ctx, JobKey(1))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, m.size())
}

func TestMemoryDistinctKeysDoNotBlock(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	release1, err := m.Lock(ctx, JobKey(1))
	require.NoError(t, err)
	defer release1()

	release2, err := m.Lock(ctx, JobKey(2))
	require.NoError(t, err)
	release2()
}

func TestMemoryLockHonoursContextWhileWaiting(t *testing.T) {
	m := NewMemory()
	release, err := m.Lock(context.Background(), CounterKey("jobs"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, CounterKey("jobs"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Zero(t, m.size())

	release, err = m.Lock(context.Background(), CounterKey("jobs"))
	require.NoError(t, err)
	release()
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "job:7", JobKey(7))
	assert.Equal(t, "counter:jobs", CounterKey("jobs"))
}
