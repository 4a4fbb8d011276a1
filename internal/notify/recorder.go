package notify

import "sync"

// Call is one recorded sink invocation.
type Call struct {
	Op           string // "show" or "withdraw"
	Tag          string
	Notification Notification
}

// Recorder is an in-memory Sink that remembers every call in order.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) Show(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "show", Tag: n.Tag, Notification: n})
	return nil
}

func (r *Recorder) Withdraw(tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "withdraw", Tag: tag})
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Shown returns the notifications passed to Show.
func (r *Recorder) Shown() []Notification {
	var out []Notification
	for _, c := range r.Calls() {
		if c.Op == "show" {
			out = append(out, c.Notification)
		}
	}
	return out
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
