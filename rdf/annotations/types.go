// Package annotations provides a low-overhead event system for tracking
// query evaluation metrics and debugging information.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following a hierarchical naming pattern.
const (
	// Evaluation lifecycle
	EvaluationBegin    = "evaluation/begin"
	EvaluationComplete = "evaluation/complete"

	// Statement access
	PatternScan = "pattern/scan"

	// Join operations
	JoinNested              = "join/nested"
	JoinParallel            = "join/parallel"
	LeftJoinBadlyDesigned   = "leftjoin/badly-designed"
	ParallelCloseGraceLapse = "join/close-grace-lapsed"

	// Buffering operators
	OrderSpilled = "order/spilled"

	// Describe traversal
	DescribeExpanded = "describe/expanded"

	// Errors
	ErrorEvaluation = "error/evaluation"
)

// Event represents a single annotation event during query evaluation.
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Additional event-specific data
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events during evaluation. It is safe for
// concurrent use, which parallel join cursors rely on.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
	mu      sync.Mutex
}

// NewCollector creates a new annotation collector. A nil handler disables
// collection.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
		events:  make([]Event, 0, 64),
	}
}

// Enabled reports whether events are recorded.
func (c *Collector) Enabled() bool { return c != nil && c.enabled }

// Handler returns the underlying event handler.
func (c *Collector) Handler() Handler {
	return c.handler
}

// Add records a new event.
func (c *Collector) Add(event Event) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	// Call handler outside the lock to avoid deadlocks
	c.handler(event)
}

// AddTiming records an event that started at start and ends now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.Enabled() {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Events returns a copy of all collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	eventsCopy := make([]Event, len(c.events))
	copy(eventsCopy, c.events)
	return eventsCopy
}

// Reset clears the collector for reuse.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}

// MultiHandler fans an event out to several handlers.
func MultiHandler(handlers ...Handler) Handler {
	return func(event Event) {
		for _, h := range handlers {
			if h != nil {
				h(event)
			}
		}
	}
}
