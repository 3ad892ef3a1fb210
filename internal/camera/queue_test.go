package camera

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhiFever/pantryscan/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.INFO)
	os.Exit(m.Run())
}

func TestQueueRunsInSubmissionOrder(t *testing.T) {
	q := NewQueue("test")
	defer q.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, q.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, q.Do(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestQueueNeverInterleaves(t *testing.T) {
	q := NewQueue("test")
	defer q.Close()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestQueueDoContextCancelled(t *testing.T) {
	q := NewQueue("test")
	defer q.Close()

	release := make(chan struct{})
	require.NoError(t, q.Submit(func() { <-release }))

	ran := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Do(ctx, func() { close(ran) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task abandoned by its caller should still run")
	}
}

func TestQueueSurvivesPanic(t *testing.T) {
	q := NewQueue("test")
	defer q.Close()

	require.NoError(t, q.Submit(func() { panic("boom") }))

	ran := false
	require.NoError(t, q.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestQueueClose(t *testing.T) {
	q := NewQueue("test")

	ran := false
	require.NoError(t, q.Submit(func() { ran = true }))
	q.Close()

	assert.True(t, ran, "queued work finishes before Close returns")
	assert.ErrorIs(t, q.Submit(func() {}), ErrQueueClosed)
	assert.ErrorIs(t, q.Do(context.Background(), func() {}), ErrQueueClosed)
	assert.Zero(t, q.Len())

	q.Close()
}
