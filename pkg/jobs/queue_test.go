package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueCoalescesWaitingKeys(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	handled := map[string]int{}

	q := NewQueue("test", func(_ context.Context, job Job) error {
		if job.ID == "blocker" {
			close(started)
			<-release
		}
		mu.Lock()
		handled[job.Key]++
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "blocker", Key: "a"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "1", Key: "host-1"}))
	require.NoError(t, q.Enqueue(Job{ID: "2", Key: "host-1"}))
	require.NoError(t, q.Enqueue(Job{ID: "3", Key: "sentinel"}))
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled["sentinel"] == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, handled["host-1"])
}

func TestQueueRetriesFailures(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(context.Context, Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("redis down")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Key: "host-1"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, time.Second, 5*time.Millisecond)
}

func TestQueueObserverSeesEveryRun(t *testing.T) {
	var mu sync.Mutex
	var outcomes []bool
	q := NewQueue("test", func(_ context.Context, job Job) error {
		if job.Attempt == 0 {
			return errors.New("first try fails")
		}
		return nil
	}, QueueConfig{
		Workers:    1,
		RetryDelay: time.Millisecond,
		Observer: func(queue string, _ Job, _ time.Duration, err error) {
			assert.Equal(t, "test", queue)
			mu.Lock()
			outcomes = append(outcomes, err == nil)
			mu.Unlock()
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outcomes) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true}, outcomes)
}

func TestQueueBackoffDoublesUpToCap(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{
		RetryDelay:    100 * time.Millisecond,
		MaxRetryDelay: 500 * time.Millisecond,
	})
	assert.Equal(t, 100*time.Millisecond, q.backoff(1))
	assert.Equal(t, 200*time.Millisecond, q.backoff(2))
	assert.Equal(t, 400*time.Millisecond, q.backoff(3))
	assert.Equal(t, 500*time.Millisecond, q.backoff(4))
	assert.Equal(t, 500*time.Millisecond, q.backoff(9))
}
