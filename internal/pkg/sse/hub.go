package sse

import (
	"sync"
)

// Event names published on a company feed.
const (
	EventAttendanceRecorded = "attendance.recorded"
	EventRequestSubmitted   = "attendance_request.submitted"
	EventRequestProcessed   = "attendance_request.processed"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	CompanyID string
	Event     string
	Data      interface{}
}

// Hub fans events out to the open streams of each company.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for a company and returns the event channel and cleanup function
func (h *Hub) Subscribe(companyID string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[companyID] == nil {
		h.subscribers[companyID] = make(map[chan Event]struct{})
	}
	h.subscribers[companyID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[companyID], ch)
			close(ch)
			if len(h.subscribers[companyID]) == 0 {
				delete(h.subscribers, companyID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to every stream of event.CompanyID. Slow subscribers miss events rather than block.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[event.CompanyID]; ok {
		for ch := range subs {
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active streams for a company
func (h *Hub) SubscriberCount(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[companyID])
}
