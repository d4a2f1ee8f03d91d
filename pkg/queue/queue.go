// Package queue drives scan-workflow phases as background jobs across a
// pool of workers, grounded on tarsy's pkg/queue/pool.go and worker.go —
// generalized from polling a database-backed alert-session queue to an
// in-memory channel queue of scan jobs, since a scan run has no equivalent
// to tarsy's multi-pod session claiming.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobStatus mirrors tarsy's WorkerStatus idle/working split, generalized to
// a job's own lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one unit of background work submitted to the pool — typically one
// orchestrator.WorkflowStep dispatch, but the pool itself is agnostic to
// what Run does.
type Job struct {
	ID  string
	Run func(ctx context.Context) error

	mu     sync.Mutex
	status JobStatus
	err    error
}

func newJob(id string, run func(ctx context.Context) error) *Job {
	return &Job{ID: id, Run: run, status: JobPending}
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the job's terminal error, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) setStatus(s JobStatus, err error) {
	j.mu.Lock()
	j.status = s
	j.err = err
	j.mu.Unlock()
}

// WorkerHealth reports one worker's current activity, grounded on tarsy's
// pkg/queue/worker.go WorkerHealth.
type WorkerHealth struct {
	ID            string
	Status        string
	CurrentJobID  string
	JobsProcessed int
	LastActivity  time.Time
}

// PoolHealth reports the whole pool's state, grounded on tarsy's
// pkg/queue/pool.go PoolHealth.
type PoolHealth struct {
	TotalWorkers  int
	ActiveWorkers int
	QueueDepth    int
	WorkerStats   []WorkerHealth
}

// WorkerPool runs submitted Jobs across a fixed number of goroutines,
// grounded on tarsy's pkg/queue/pool.go WorkerPool, simplified to a single
// in-process channel queue.
type WorkerPool struct {
	workerCount int
	jobs        chan *Job

	mu       sync.RWMutex
	statuses []workerState
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type workerState struct {
	id            string
	status        string
	currentJobID  string
	jobsProcessed int
	lastActivity  time.Time
}

// NewWorkerPool constructs a WorkerPool with workerCount concurrent workers
// and a queue buffered to queueDepth pending jobs.
func NewWorkerPool(workerCount, queueDepth int) *WorkerPool {
	return &WorkerPool{
		workerCount: workerCount,
		jobs:        make(chan *Job, queueDepth),
		statuses:    make([]workerState, workerCount),
		stopCh:      make(chan struct{}),
	}
}

// Start spawns the worker goroutines. Safe to call once; a second call is a
// no-op, mirroring WorkerPool.Start's started guard.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		slog.Warn("worker pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true
	for i := range p.statuses {
		p.statuses[i] = workerState{id: fmt.Sprintf("worker-%d", i), status: "idle", lastActivity: time.Now()}
	}
	p.mu.Unlock()

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Stop signals every worker to finish its current job and exit, then waits
// for them, mirroring WorkerPool.Stop's graceful drain.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

// Submit enqueues run as a Job named id and returns it for status polling.
// Submit blocks if the queue is full — callers that need a non-blocking
// enqueue should size queueDepth generously.
func (p *WorkerPool) Submit(id string, run func(ctx context.Context) error) *Job {
	job := newJob(id, run)
	p.jobs <- job
	return job
}

func (p *WorkerPool) run(ctx context.Context, idx int) {
	defer p.wg.Done()
	log := slog.With("worker_id", fmt.Sprintf("worker-%d", idx))
	log.Info("worker started")

	for {
		select {
		case <-p.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.process(ctx, idx, job)
		}
	}
}

func (p *WorkerPool) process(ctx context.Context, idx int, job *Job) {
	p.mu.Lock()
	p.statuses[idx].status = "working"
	p.statuses[idx].currentJobID = job.ID
	p.mu.Unlock()

	job.setStatus(JobRunning, nil)
	err := job.Run(ctx)
	if err != nil {
		job.setStatus(JobFailed, err)
		slog.Error("job failed", "job_id", job.ID, "error", err)
	} else {
		job.setStatus(JobSucceeded, nil)
	}

	p.mu.Lock()
	p.statuses[idx].status = "idle"
	p.statuses[idx].currentJobID = ""
	p.statuses[idx].jobsProcessed++
	p.statuses[idx].lastActivity = time.Now()
	p.mu.Unlock()
}

// Health reports the pool's current activity snapshot, mirroring
// WorkerPool.Health.
func (p *WorkerPool) Health() PoolHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	active := 0
	stats := make([]WorkerHealth, len(p.statuses))
	for i, s := range p.statuses {
		if s.status == "working" {
			active++
		}
		stats[i] = WorkerHealth{ID: s.id, Status: s.status, CurrentJobID: s.currentJobID, JobsProcessed: s.jobsProcessed, LastActivity: s.lastActivity}
	}

	return PoolHealth{
		TotalWorkers:  p.workerCount,
		ActiveWorkers: active,
		QueueDepth:    len(p.jobs),
		WorkerStats:   stats,
	}
}
