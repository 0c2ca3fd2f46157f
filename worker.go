package qpersist

import (
	"fmt"
)

// Worker processes jobs handed to it by the pool manager.
type Worker struct {
	pool *Q
	jobs chan Job
}

/*
run offers the worker's job channel to the manager, executes whatever arrives
and stores the result, until the pool context ends.
*/
func (w *Worker) run() {
	ctx := w.pool.ctx
	for {
		select {
		case <-ctx.Done():
			return
		case w.pool.workers <- w.jobs:
			select {
			case job := <-w.jobs:
				result, err := w.processJob(job)
				w.pool.space.Store(job.ID, result, err)
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) processJob(job Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
		w.pool.metrics.recordJobExecution(job.StartTime, err == nil)
	}()

	return job.Fn()
}
