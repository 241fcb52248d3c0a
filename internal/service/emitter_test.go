package service

import (
	"context"
	"testing"

	"pdf-reader-session/internal/domain"
)

func TestEventHub_RoutesBySession(t *testing.T) {
	hub := NewEventHub(NewMockLogger())
	a := hub.Subscribe("a")
	b := hub.Subscribe("b")
	defer a.Close()
	defer b.Close()

	hub.Emit(context.Background(), domain.EventPage, domain.SessionEvent{SessionID: "a", Type: domain.EventPage, Data: 3})

	select {
	case ev := <-a.Events:
		if ev.Type != domain.EventPage || ev.Data != 3 {
			t.Fatalf("expected page event with 3, got %+v", ev)
		}
	default:
		t.Fatal("expected subscriber a to receive the event")
	}

	select {
	case ev := <-b.Events:
		t.Fatalf("expected subscriber b to receive nothing, got %+v", ev)
	default:
	}
}

func TestEventHub_CloseUnsubscribes(t *testing.T) {
	hub := NewEventHub(NewMockLogger())
	sub := hub.Subscribe("a")
	if n := hub.Subscribers("a"); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	sub.Close()
	sub.Close()

	if n := hub.Subscribers("a"); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
	if _, ok := <-sub.Events; ok {
		t.Fatal("expected events channel to be closed")
	}
	hub.Emit(context.Background(), domain.EventClosed, domain.SessionEvent{SessionID: "a", Type: domain.EventClosed})
}

func TestEventHub_DropsForSlowSubscriber(t *testing.T) {
	hub := NewEventHub(NewMockLogger())
	hub.bufferSize = 2
	sub := hub.Subscribe("a")
	defer sub.Close()

	for i := 0; i < 5; i++ {
		hub.Emit(context.Background(), domain.EventPage, domain.SessionEvent{SessionID: "a", Type: domain.EventPage, Data: i})
	}

	if n := len(sub.Events); n != 2 {
		t.Fatalf("expected 2 buffered events, got %d", n)
	}
	first := <-sub.Events
	if first.Data != 0 {
		t.Fatalf("expected oldest event to be kept, got %v", first.Data)
	}
}

func TestMockEmitter_Count(t *testing.T) {
	m := &MockEmitter{}
	m.Emit(context.Background(), domain.EventPage, nil)
	m.Emit(context.Background(), domain.EventPage, nil)
	m.Emit(context.Background(), domain.EventClosed, nil)

	if n := m.Count(domain.EventPage); n != 2 {
		t.Fatalf("expected 2 page events, got %d", n)
	}
}
