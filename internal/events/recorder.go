package events

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *Recorder) Publish(_ context.Context, event OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]OrderEvent(nil), r.events...)
}
