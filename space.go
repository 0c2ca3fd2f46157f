package qpersist

import (
	"sync"
	"time"
)

// Result wraps the value a job produced with its error and completion time.
type Result struct {
	Value     any
	Error     error
	CreatedAt time.Time
}

/*
Space holds finished job results until somebody awaits them. Awaiting a result
that is not there yet parks a channel that Store fills later.
*/
type Space struct {
	mu      sync.Mutex
	values  map[string]Result
	waiting map[string][]chan Result
}

func newSpace() *Space {
	return &Space{
		values:  make(map[string]Result),
		waiting: make(map[string][]chan Result),
	}
}

/*
Store records a result. Waiting channels receive it immediately and the value
is not retained; otherwise it is kept for a later Await.
*/
func (s *Space) Store(id string, value any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Result{Value: value, Error: err, CreatedAt: time.Now()}

	if channels, ok := s.waiting[id]; ok {
		for _, ch := range channels {
			ch <- r
			close(ch)
		}
		delete(s.waiting, id)
		return
	}
	s.values[id] = r
}

// Await returns a channel that receives the result for id exactly once.
func (s *Space) Await(id string) chan Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Result, 1)

	if r, ok := s.values[id]; ok {
		delete(s.values, id)
		ch <- r
		close(ch)
		return ch
	}

	s.waiting[id] = append(s.waiting[id], ch)
	return ch
}

// Pending returns how many results are stored but not yet awaited.
func (s *Space) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
