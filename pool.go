package qpersist

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/theapemachine/errnie"
)

/*
Q is a fixed-size worker pool. Jobs go onto a queue, the manager hands each one
to the next idle worker, and results land in a Space keyed by job ID where the
scheduler awaits them.
*/
type Q struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Job
	jobs       chan Job
	space      *Space
	metrics    *Metrics
	workerMu   sync.Mutex
	workerList []*Worker
}

// NewQ starts a pool of size workers; size <= 0 uses one worker per CPU.
func NewQ(ctx context.Context, size int) *Q {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	q := &Q{
		ctx:        ctx,
		cancel:     cancel,
		workerList: make([]*Worker, 0, size),
		jobs:       make(chan Job, size*10),
		workers:    make(chan chan Job, size),
		space:      newSpace(),
		metrics:    NewMetrics(),
	}

	for i := 0; i < size; i++ {
		q.startWorker()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.manage()
	}()

	errnie.Debug("started pool with %d workers", size)
	return q
}

func (q *Q) manage() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			select {
			case <-q.ctx.Done():
				return
			case workerChan := <-q.workers:
				select {
				case workerChan <- job:
				case <-q.ctx.Done():
					return
				}
			}
		}
	}
}

/*
Schedule queues fn under id and returns the channel its result arrives on. If
the pool shuts down before the job is queued the channel carries the context
error instead.
*/
func (q *Q) Schedule(id string, fn func() (any, error)) chan Result {
	job := Job{
		ID:        id,
		Fn:        fn,
		StartTime: time.Now(),
	}

	result := q.space.Await(id)

	if err := q.ctx.Err(); err != nil {
		q.space.Store(id, nil, fmt.Errorf("job %s not scheduled: %w", id, err))
		return result
	}

	select {
	case q.jobs <- job:
		return result
	case <-q.ctx.Done():
		q.space.Store(id, nil, fmt.Errorf("job %s not scheduled: %w", id, q.ctx.Err()))
		return result
	}
}

// Metrics returns a snapshot of the pool counters.
func (q *Q) Metrics() MetricsSnapshot {
	return q.metrics.Snapshot()
}

func (q *Q) startWorker() {
	worker := &Worker{
		pool: q,
		jobs: make(chan Job),
	}

	q.workerMu.Lock()
	q.workerList = append(q.workerList, worker)
	q.workerMu.Unlock()

	q.metrics.mu.Lock()
	q.metrics.WorkerCount++
	q.metrics.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run()
	}()
}

// Close stops the manager and every worker and waits for them to exit.
func (q *Q) Close() {
	if q == nil {
		return
	}

	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()

	q.workerMu.Lock()
	q.workerList = nil
	q.workerMu.Unlock()

	errnie.Debug("pool closed")
}
