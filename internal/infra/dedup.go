package infra

import (
	"context"
	"sync"
)

// RequestDeduplicator coalesces identical in-flight API calls so a burst of
// lookups for the same page costs one HTTP round trip. The client keys
// calls by their encoded query parameters.
type RequestDeduplicator struct {
	mu      sync.Mutex
	flights map[string]*flight
}

// flight is one owned call plus the waiters sharing its outcome.
type flight struct {
	done  chan struct{}
	value interface{}
	err   error
}

// NewRequestDeduplicator creates an empty deduplicator.
func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{flights: make(map[string]*flight)}
}

// Do runs fn unless a call with the same key is already in flight, in which
// case it waits for that call and shares its outcome. The bool reports
// whether the result was shared. A cancelled context abandons the wait but
// leaves the owning call running.
func (d *RequestDeduplicator) Do(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, bool, error) {
	d.mu.Lock()
	if f, ok := d.flights[key]; ok {
		d.mu.Unlock()
		select {
		case <-f.done:
			return f.value, true, f.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	d.flights[key] = f
	d.mu.Unlock()

	f.value, f.err = fn()

	d.mu.Lock()
	delete(d.flights, key)
	d.mu.Unlock()
	close(f.done)

	return f.value, false, f.err
}

// Stats reports how many calls are currently in flight.
func (d *RequestDeduplicator) Stats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.flights)
}
