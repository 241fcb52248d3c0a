package service

import (
	"context"
	"sync"

	"pdf-reader-session/internal/domain"
)

const defaultSubscriberBuffer = 64

// EventHub fans session events out to per-session subscribers. Emit never blocks:
// a subscriber whose buffer is full misses the event.
type EventHub struct {
	mu         sync.RWMutex
	subs       map[string]map[*Subscription]struct{}
	bufferSize int
	logger     domain.Logger
}

// Subscription receives the events of one session until Close.
type Subscription struct {
	SessionID string
	Events    <-chan domain.SessionEvent

	events chan domain.SessionEvent
	hub    *EventHub
	once   sync.Once
}

func NewEventHub(logger domain.Logger) *EventHub {
	return &EventHub{
		subs:       make(map[string]map[*Subscription]struct{}),
		bufferSize: defaultSubscriberBuffer,
		logger:     logger,
	}
}

// Subscribe registers a subscriber for sessionID.
func (h *EventHub) Subscribe(sessionID string) *Subscription {
	ch := make(chan domain.SessionEvent, h.bufferSize)
	sub := &Subscription{SessionID: sessionID, Events: ch, events: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*Subscription]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	return sub
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.SessionID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.SessionID)
			}
		}
		close(s.events)
	})
}

// Emit implements domain.EventEmitter.
func (h *EventHub) Emit(_ context.Context, event string, data interface{}) {
	ev, ok := data.(domain.SessionEvent)
	if !ok {
		ev = domain.SessionEvent{Type: event, Data: data}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.SessionID] {
		select {
		case sub.events <- ev:
		default:
			h.logger.Debug("Dropping event for slow subscriber", "session_id", ev.SessionID, "event", ev.Type)
		}
	}
}

// Subscribers returns the number of subscribers of a session.
func (h *EventHub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  interface{}
}

func (m *MockEmitter) Emit(_ context.Context, event string, data interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many events named event were recorded.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}
