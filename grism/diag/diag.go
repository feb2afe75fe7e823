// Package diag provides the injected diagnostics sink used by the
// dispersion and compositing stages. There is no package-level logger;
// callers that want events pass a Sink explicitly.
package diag

import "sync"

// Sink receives diagnostic events. Implementations must be safe for
// concurrent use; dispersion workers may emit events in parallel.
type Sink interface {
	Event(msg string, kv ...any)
}

// Nop discards all events.
type Nop struct{}

// Event implements Sink.
func (Nop) Event(string, ...any) {}

// Event is one recorded diagnostic entry.
type Event struct {
	Msg string
	KV  []any
}

// Recorder captures events in memory, mainly for tests and offline
// inspection of a run.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Event implements Sink.
func (r *Recorder) Event(msg string, kv ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Msg: msg, KV: kv})
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
