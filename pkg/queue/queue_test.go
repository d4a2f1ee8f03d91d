package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_ProcessesJobsSuccessfully(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	pool.Start(context.Background())
	defer pool.Stop()

	var processed int32
	var jobs []*Job
	for i := 0; i < 5; i++ {
		jobs = append(jobs, pool.Submit(fmt.Sprintf("job-%d", i), func(ctx context.Context) error {
			atomic.AddInt32(&processed, 1)
			return nil
		}))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&processed) == 5
	}, 2*time.Second, 10*time.Millisecond)

	for _, j := range jobs {
		assert.Eventually(t, func() bool { return j.Status() == JobSucceeded }, time.Second, 10*time.Millisecond)
	}
}

func TestWorkerPool_RecordsJobFailure(t *testing.T) {
	pool := NewWorkerPool(1, 10)
	pool.Start(context.Background())
	defer pool.Stop()

	job := pool.Submit("failing-job", func(ctx context.Context) error {
		return fmt.Errorf("adapter blew up")
	})

	require.Eventually(t, func() bool { return job.Status() == JobFailed }, time.Second, 10*time.Millisecond)
	assert.Error(t, job.Err())
}

func TestWorkerPool_StartIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2, 10)
	ctx := context.Background()
	pool.Start(ctx)
	pool.Start(ctx) // must not panic or spawn a second set of workers
	defer pool.Stop()

	health := pool.Health()
	assert.Equal(t, 2, health.TotalWorkers)
}

func TestWorkerPool_HealthReportsQueueDepth(t *testing.T) {
	pool := NewWorkerPool(1, 10)
	block := make(chan struct{})
	pool.Start(context.Background())
	defer pool.Stop()

	pool.Submit("blocker", func(ctx context.Context) error {
		<-block
		return nil
	})
	pool.Submit("queued", func(ctx context.Context) error { return nil })

	require.Eventually(t, func() bool {
		return pool.Health().ActiveWorkers == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, pool.Health().QueueDepth)

	close(block)
}
