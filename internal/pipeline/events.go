// Package pipeline carries progress events for a debug run.
package pipeline

import (
	"sync"
	"time"
)

type EventType string

const (
	EventRunStarted       EventType = "run.started"
	EventAgentsDispatched EventType = "agents.dispatched"
	EventAgentFinished    EventType = "agent.finished"
	EventSynthesisStarted EventType = "synthesis.started"
	EventRunCompleted     EventType = "run.completed"
)

// Event is a single progress notification. Data holds one of the *Data
// payload types below, or nil.
type Event struct {
	Type      EventType
	Timestamp time.Time
	RunID     string
	Source    string
	Data      any
}

// AgentFinishedData reports one agent's outcome.
type AgentFinishedData struct {
	Agent   string
	Status  string
	Elapsed time.Duration
}

// RunCompletedData summarizes a finished run.
type RunCompletedData struct {
	Solutions  int
	Confidence float64
	Elapsed    time.Duration
}

// EventHandler receives events. Handlers may be called from several
// goroutines at once.
type EventHandler func(Event)

const defaultMaxHistory = 100

type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
	history     []Event
	maxHistory  int
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]EventHandler),
		history:     make([]Event, 0),
		maxHistory:  defaultMaxHistory,
	}
}

func (e *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers[eventType] = append(e.subscribers[eventType], handler)
}

func (e *EventBus) SubscribeAll(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers["*"] = append(e.subscribers["*"], handler)
}

// Publish records the event and calls matching handlers synchronously. A
// zero Timestamp is set to now. Publishing on a nil bus is a no-op.
func (e *EventBus) Publish(event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e.mu.Lock()
	e.history = append(e.history, event)
	if len(e.history) > e.maxHistory {
		e.history = e.history[1:]
	}

	handlers := make([]EventHandler, 0, len(e.subscribers[event.Type])+len(e.subscribers["*"]))
	handlers = append(handlers, e.subscribers[event.Type]...)
	handlers = append(handlers, e.subscribers["*"]...)
	e.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// RecentEvents returns up to n events, oldest first.
func (e *EventBus) RecentEvents(n int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if n > len(e.history) {
		n = len(e.history)
	}
	out := make([]Event, n)
	copy(out, e.history[len(e.history)-n:])
	return out
}

// RecentByType returns up to n events of the given type, newest first.
func (e *EventBus) RecentByType(eventType EventType, n int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var result []Event
	for i := len(e.history) - 1; i >= 0 && len(result) < n; i-- {
		if e.history[i].Type == eventType {
			result = append(result, e.history[i])
		}
	}
	return result
}
