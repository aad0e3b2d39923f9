package events

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory. Tests use it in place of a
// broker.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
	Err    error
}

func (r *Recorder) Publish(_ context.Context, key string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, NewEnvelope(key, data))
	return nil
}

// Keys returns the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.Events))
	for i, e := range r.Events {
		keys[i] = e.Type
	}
	return keys
}
