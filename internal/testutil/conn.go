package testutil

import (
	"sync"

	"github.com/mcoot/bullcow/internal/model"
)

// RecordingConn is a model.Conn that records every event it is sent.
// Use it in tests to assert on what a player would have received.
type RecordingConn struct {
	mu     sync.Mutex
	events []model.Event
	closed bool
}

// Ensure RecordingConn implements model.Conn
var _ model.Conn = (*RecordingConn)(nil)

// NewRecordingConn creates an empty RecordingConn
func NewRecordingConn() *RecordingConn {
	return &RecordingConn{}
}

// Send records the event
func (c *RecordingConn) Send(event model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Close marks the connection closed
func (c *RecordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called
func (c *RecordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events returns a copy of all recorded events
func (c *RecordingConn) Events() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Types returns the type of every recorded event in order
func (c *RecordingConn) Types() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

// OfType returns the recorded events of one type
func (c *RecordingConn) OfType(t model.EventType) []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent event, or a zero Event if none
func (c *RecordingConn) Last() model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return model.Event{}
	}
	return c.events[len(c.events)-1]
}

// Reset discards recorded events
func (c *RecordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
