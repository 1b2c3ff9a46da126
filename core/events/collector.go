package events

import "sync"

// Collector buffers emitted events until a consumer drains them. It is safe
// for concurrent use.
type Collector struct {
	mu     sync.Mutex
	buffer []Event
}

func NewCollector() *Collector {
	return &Collector{}
}

// Emit implements the Emitter interface.
func (c *Collector) Emit(evt Event) {
	if evt == nil {
		return
	}
	c.mu.Lock()
	c.buffer = append(c.buffer, evt)
	c.mu.Unlock()
}

// Drain returns the buffered events and resets the buffer.
func (c *Collector) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.buffer
	c.buffer = nil
	return drained
}

// Len reports the number of buffered events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}
