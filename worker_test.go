package qpersist

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const timeoutMsg = "timed out waiting for value retrieval"

func TestWorker(t *testing.T) {
	Convey("Given a worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())

		pool := &Q{
			ctx:     ctx,
			workers: make(chan chan Job, 1),
			space:   newSpace(),
			metrics: NewMetrics(),
		}

		worker := &Worker{
			pool: pool,
			jobs: make(chan Job, 1),
		}

		Reset(func() {
			cancel()
		})

		Convey("It should process a job successfully", func() {
			job := Job{
				ID:        "job_success",
				Fn:        func() (any, error) { return "result", nil },
				StartTime: time.Now(),
			}

			worker.jobs <- job
			go worker.run()

			select {
			case <-time.After(2 * time.Second):
				t.Fatal(timeoutMsg)
			case value := <-pool.space.Await(job.ID):
				So(value.Error, ShouldBeNil)
				So(value.Value, ShouldEqual, "result")
			}
			So(pool.metrics.Snapshot().Jobs, ShouldEqual, int64(1))
		})

		Convey("It should turn a panic into an error result", func() {
			job := Job{
				ID:        "job_panic",
				Fn:        func() (any, error) { panic("bad trial") },
				StartTime: time.Now(),
			}

			worker.jobs <- job
			go worker.run()

			select {
			case <-time.After(2 * time.Second):
				t.Fatal(timeoutMsg)
			case value := <-pool.space.Await(job.ID):
				So(value.Error, ShouldNotBeNil)
				So(value.Error.Error(), ShouldContainSubstring, "job_panic panicked")
			}
			So(pool.metrics.Snapshot().Failures, ShouldEqual, int64(1))
		})

		Convey("It should stop when the pool context ends", func() {
			done := make(chan struct{})
			go func() {
				worker.run()
				close(done)
			}()

			cancel()
			select {
			case <-time.After(2 * time.Second):
				t.Fatal("worker did not stop")
			case <-done:
			}
		})
	})
}
