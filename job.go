package qpersist

import "time"

// Job is one unit of work handed to a worker.
type Job struct {
	ID        string
	Fn        func() (any, error)
	StartTime time.Time
}
