package qpersist

import (
	"sync"
	"time"
)

/*
Progress is one progress notification from a running experiment.
*/
type Progress struct {
	Completed int
	Total     int
	Elapsed   time.Duration
}

// Fraction returns completion in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

/*
BroadcastMetrics tracks delivery for a broadcast group.
*/
type BroadcastMetrics struct {
	MessagesSent      int64
	MessagesDropped   int64
	ActiveSubscribers int
	LastBroadcastTime time.Time
}

/*
BroadcastGroup fans progress notifications out to subscribers. Sending never
blocks the experiment: a subscriber whose buffer is full misses the message and
the drop is counted.
*/
type BroadcastGroup struct {
	mu          sync.RWMutex
	ID          string
	subscribers map[string]chan Progress
	metrics     BroadcastMetrics
	closed      bool
}

func NewBroadcastGroup(id string) *BroadcastGroup {
	return &BroadcastGroup{
		ID:          id,
		subscribers: make(map[string]chan Progress),
	}
}

/*
Subscribe registers a subscriber with the given buffer size. Re-subscribing an
existing ID returns its current channel.
*/
func (bg *BroadcastGroup) Subscribe(subscriberID string, bufferSize int) chan Progress {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if ch, ok := bg.subscribers[subscriberID]; ok {
		return ch
	}

	ch := make(chan Progress, bufferSize)
	if bg.closed {
		close(ch)
		return ch
	}
	bg.subscribers[subscriberID] = ch
	bg.metrics.ActiveSubscribers = len(bg.subscribers)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (bg *BroadcastGroup) Unsubscribe(subscriberID string) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if ch, ok := bg.subscribers[subscriberID]; ok {
		close(ch)
		delete(bg.subscribers, subscriberID)
		bg.metrics.ActiveSubscribers = len(bg.subscribers)
	}
}

// Send delivers p to every subscriber that has room for it.
func (bg *BroadcastGroup) Send(p Progress) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if bg.closed {
		return
	}

	for _, ch := range bg.subscribers {
		select {
		case ch <- p:
			bg.metrics.MessagesSent++
		default:
			bg.metrics.MessagesDropped++
		}
	}
	bg.metrics.LastBroadcastTime = time.Now()
}

// Close closes every subscriber channel; later sends are ignored.
func (bg *BroadcastGroup) Close() {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if bg.closed {
		return
	}
	for id, ch := range bg.subscribers {
		close(ch)
		delete(bg.subscribers, id)
	}
	bg.closed = true
	bg.metrics.ActiveSubscribers = 0
}

// Metrics returns a copy of the delivery counters.
func (bg *BroadcastGroup) Metrics() BroadcastMetrics {
	bg.mu.RLock()
	defer bg.mu.RUnlock()
	return bg.metrics
}
