// Package perception turns camera frames into state store actions.
package perception

import "sync"

// Clock issues strictly increasing millisecond timestamps for the
// recognizer, even when the wall clock stalls or steps backwards.
type Clock struct {
	mu   sync.Mutex
	last int64
}

// Next returns wallMs if it is later than the last issued value, and
// last+1 otherwise.
func (c *Clock) Next(wallMs int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := wallMs
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Last returns the most recently issued timestamp, or 0.
func (c *Clock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
