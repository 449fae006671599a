package service

import (
	"sync"

	"discpress/internal/domain"
)

type EventType string

const (
	// EventJob carries a full job snapshot after a state change.
	EventJob EventType = "job"
	// EventLog carries one appended output line.
	EventLog EventType = "log"
	// EventQueue signals queue-level changes (removal, clear,
	// processing flag).
	EventQueue EventType = "queue"
	// EventNotification carries a user-facing success/failure message.
	EventNotification EventType = "notification"
)

// Event is what workflow subscribers receive.
type Event struct {
	Type       EventType       `json:"type"`
	Workflow   domain.Workflow `json:"workflow"`
	JobID      string          `json:"job_id,omitempty"`
	Job        *domain.Job     `json:"job,omitempty"`
	Line       string          `json:"line,omitempty"`
	Message    string          `json:"message,omitempty"`
	Processing *bool           `json:"processing,omitempty"`
}

// EventPublisher is the store/notifier side of the bus.
type EventPublisher interface {
	Publish(wf domain.Workflow, event Event)
}

// EventBus fans events out to per-workflow subscribers.
type EventBus struct {
	subscribers map[domain.Workflow][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[domain.Workflow][]chan Event),
	}
}

func (eb *EventBus) Subscribe(wf domain.Workflow) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 64)
	eb.subscribers[wf] = append(eb.subscribers[wf], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(wf domain.Workflow, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[wf]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[wf] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[wf]) == 0 {
		delete(eb.subscribers, wf)
	}
}

func (eb *EventBus) Publish(wf domain.Workflow, event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	event.Workflow = wf
	for _, ch := range eb.subscribers[wf] {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is slow
		}
	}
}
