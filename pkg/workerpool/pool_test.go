package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsEveryTask(t *testing.T) {
	p := New(4)
	defer p.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int64(100), counter.Load())
}

func TestPool_HardCap(t *testing.T) {
	const workers = 3
	p := New(workers)
	defer p.Close()

	var inFlight, maxSeen atomic.Int32
	items := make([]int, 40)
	err := Each(context.Background(), p, items, func(context.Context, int) {
		n := inFlight.Add(1)
		for {
			m := maxSeen.Load()
			if n <= m || maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, int(maxSeen.Load()), workers)
	assert.LessOrEqual(t, p.Peak(), workers)
	assert.Equal(t, 0, p.Active())
}

func TestPool_SubmitBlocksUntilWorkerFree(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(context.Context) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close()

	assert.True(t, p.IsClosed())
	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) {}), ErrClosed)
}

func TestPool_CloseWaitsForRunningTasks(t *testing.T) {
	p := New(2)

	var done atomic.Int32
	for i := 0; i < 2; i++ {
		require.NoError(t, p.Submit(context.Background(), func(context.Context) {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
		}))
	}
	p.Close()
	assert.Equal(t, int32(2), done.Load())
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	p := New(1)
	defer p.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(context.Background(), func(context.Context) {
		defer wg.Done()
		panic("boom")
	}))
	wg.Wait()

	ran := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panic")
	}
	assert.Equal(t, int64(1), p.Panics())
}

func TestEach_StopsOnCancel(t *testing.T) {
	p := New(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32
	err := Each(ctx, p, []int{1, 2, 3, 4, 5}, func(context.Context, int) {
		ran.Add(1)
		cancel()
		time.Sleep(5 * time.Millisecond)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, ran.Load(), int32(5))
}

func TestNew_MinimumOneWorker(t *testing.T) {
	p := New(0)
	defer p.Close()
	assert.Equal(t, 1, p.Cap())
}
